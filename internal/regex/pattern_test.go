// Copyright 2025 The relayd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package regex

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func feed(t *testing.T, p *Pattern, s string) Result {
	t.Helper()
	var last Result
	for i := 0; i < len(s); i++ {
		last = p.Next(s[i])
	}
	return last
}

func TestLiteralMatch(t *testing.T) {
	p, err := Compile("abc")
	require.NoError(t, err)

	require.Equal(t, Pass, p.Next('a'))
	require.Equal(t, Pass, p.Next('b'))
	require.Equal(t, Accept, p.Next('c'))
	require.True(t, p.IsAccepted())
}

func TestLiteralMismatchLatchesFail(t *testing.T) {
	p, err := Compile("abc")
	require.NoError(t, err)

	require.Equal(t, Pass, p.Next('a'))
	require.Equal(t, Fail, p.Next('x'))
	// once loose, every subsequent byte stays FAIL regardless of content
	require.Equal(t, Fail, p.Next('a'))
	require.Equal(t, Fail, p.Next('b'))
	require.Equal(t, Fail, p.Next('c'))

	p.Reset()
	require.Equal(t, Accept, feed(t, p, "abc"))
}

func TestStarQuantifier(t *testing.T) {
	p, err := Compile("ab*c")
	require.NoError(t, err)
	require.Equal(t, Accept, feed(t, p, "ac"))

	p.Reset()
	require.Equal(t, Accept, feed(t, p, "abbbc"))

	p.Reset()
	require.Equal(t, Fail, feed(t, p, "abx"))
}

func TestPlusQuantifierRequiresOne(t *testing.T) {
	p, err := Compile("ab+c")
	require.NoError(t, err)
	require.Equal(t, Fail, feed(t, p, "ac"))

	p.Reset()
	require.Equal(t, Accept, feed(t, p, "abc"))
}

func TestOptionalQuantifier(t *testing.T) {
	p, err := Compile("colou?r")
	require.NoError(t, err)
	require.Equal(t, Accept, feed(t, p, "color"))

	p.Reset()
	require.Equal(t, Accept, feed(t, p, "colour"))
}

func TestAlternation(t *testing.T) {
	p, err := Compile("cat|dog")
	require.NoError(t, err)
	require.Equal(t, Accept, feed(t, p, "cat"))

	p.Reset()
	require.Equal(t, Accept, feed(t, p, "dog"))

	p.Reset()
	require.Equal(t, Fail, feed(t, p, "bat"))
}

func TestCharacterClassRange(t *testing.T) {
	p, err := Compile("[a-c]+")
	require.NoError(t, err)
	require.Equal(t, Accept, feed(t, p, "abcba"))

	p.Reset()
	require.Equal(t, Fail, feed(t, p, "d"))
}

func TestNegatedCharacterClass(t *testing.T) {
	p, err := Compile("[^0-9]")
	require.NoError(t, err)
	require.Equal(t, Accept, p.Next('x'))

	p.Reset()
	require.Equal(t, Fail, p.Next('5'))
}

func TestAnyToken(t *testing.T) {
	p, err := Compile("a.c")
	require.NoError(t, err)
	require.Equal(t, Accept, feed(t, p, "abc"))

	p.Reset()
	require.Equal(t, Accept, feed(t, p, "azc"))
}

func TestEscapedMetacharacter(t *testing.T) {
	p, err := Compile(`a\*b`)
	require.NoError(t, err)
	require.Equal(t, Accept, feed(t, p, "a*b"))

	p.Reset()
	require.Equal(t, Fail, feed(t, p, "aab"))
}

func TestGroupedAlternation(t *testing.T) {
	p, err := Compile("(GET|POST) ")
	require.NoError(t, err)
	require.Equal(t, Accept, feed(t, p, "GET "))

	p.Reset()
	require.Equal(t, Accept, feed(t, p, "POST "))
}

func TestHTTPRequestLinePattern(t *testing.T) {
	pattern := `(GET|POST|PUT|DELETE|HEAD|TRACE|CONNECT|OPTIONS) [^ \r\n]+ HTTP/[0-9]\.[0-9]` + "\r\n"
	p, err := Compile(pattern)
	require.NoError(t, err)
	require.Equal(t, Accept, feed(t, p, "GET /index.html HTTP/1.1\r\n"))

	p.Reset()
	require.Equal(t, Fail, feed(t, p, "GOT /index.html HTTP/1.1\r\n"))
}

func TestCompileSyntaxErrors(t *testing.T) {
	_, err := Compile("(abc")
	require.Error(t, err)

	_, err = Compile("abc)")
	require.Error(t, err)

	_, err = Compile("[abc")
	require.Error(t, err)

	_, err = Compile(`ab\`)
	require.Error(t, err)
}

func TestDFACacheReusesStatesAcrossResets(t *testing.T) {
	p, err := Compile("a*b")
	require.NoError(t, err)
	require.Equal(t, Accept, feed(t, p, "aaab"))

	sizeAfterFirst := len(p.cache.byHash)

	p.Reset()
	require.Equal(t, Accept, feed(t, p, "aaab"))
	require.Equal(t, sizeAfterFirst, len(p.cache.byHash), "replaying the same input must not grow the DFA cache")
}
