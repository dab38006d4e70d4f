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

package htmltag

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relayd/relayd/internal/filter"
)

type fixedReader struct{ n uint64 }

func (f fixedReader) Read(n int) uint64 { return f.n }

type capturingWriter struct {
	n uint64
	m int
}

func (c *capturingWriter) Write(n uint64, m int) { c.n, c.m = n, m }

func feed(t *testing.T, f filter.Filter, s string) filter.State {
	t.Helper()
	var last filter.State
	for i := 0; i < len(s); i++ {
		st, err := f.Write(s[i])
		require.NoError(t, err)
		last = st
	}
	return last
}

func TestExtractTagSplitsAttributesAndMarkers(t *testing.T) {
	attrs, start, end := ExtractTag(`<div class="a" id='b'>`)
	require.Equal(t, "<div", start)
	require.Equal(t, []string{`class="a"`, `id='b'`}, attrs)
	require.Equal(t, ">", end)
}

func TestExtractTagDeduplicatesOnlyWhenCallerAsks(t *testing.T) {
	attrs, _, _ := ExtractTag(`<a href="x" href="x">`)
	require.Equal(t, []string{`href="x"`, `href="x"`}, attrs, "raw extraction keeps duplicates; dedup is the caller's job")
}

func TestFilterInSortsAndDedupsAttributes(t *testing.T) {
	in, err := NewFilterIn(fixedReader{n: 1})
	require.NoError(t, err)

	st := feed(t, in, `<a href="x" id="y" href="x">`)
	require.Equal(t, filter.Pass, st)
	require.Equal(t, []string{`href="x"`, `id="y"`}, in.attribs, "FilterIn must sort and dedup before computing efficiency")

	out, err := in.Read()
	require.NoError(t, err)
	require.Contains(t, string(out), "<a")
}

func TestFilterOutKeepsRawOrder(t *testing.T) {
	w := &capturingWriter{}
	out, err := NewFilterOut(w)
	require.NoError(t, err)

	st := feed(t, out, `<a href="x" id="y" href="x">`)
	require.Equal(t, filter.Pass, st)
	require.Equal(t, []string{`href="x"`, `id="y"`, `href="x"`}, out.attribs, "FilterOut must not sort or dedup")

	buf, err := out.Read()
	require.NoError(t, err)
	require.Equal(t, []byte(`<a href="x" id="y" href="x">`), buf)
}

func TestSingleAttributeTagHasNoHidingCapacity(t *testing.T) {
	in, err := NewFilterIn(fixedReader{n: 0})
	require.NoError(t, err)

	st := feed(t, in, `<img src="x">`)
	require.Equal(t, filter.Pass, st)
	require.Equal(t, 0, in.efficiency)

	out, err := in.Read()
	require.NoError(t, err)
	require.Equal(t, []byte(`<img src="x">`), out)
}
