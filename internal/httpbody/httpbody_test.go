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

package httpbody

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relayd/relayd/internal/filter"
)

func feed(t *testing.T, f *Filter, s string) filter.State {
	t.Helper()
	var last filter.State
	for i := 0; i < len(s); i++ {
		st, err := f.Write(s[i])
		require.NoError(t, err)
		last = st
	}
	return last
}

func TestContentLengthBodyPassesThroughInnerFilter(t *testing.T) {
	body := "hello!"
	req := "GET / HTTP/1.1\r\nHost: example.com\r\nContent-Length: " + "6" + "\r\n\r\n" + body

	f, err := New(filter.NewNull(), 0)
	require.NoError(t, err)

	st := feed(t, f, req)
	require.Equal(t, filter.Pass, st)

	out, err := f.Read()
	require.NoError(t, err)
	require.Contains(t, string(out), body)
	require.Contains(t, string(out), "Content-Length: 6\r\n")
}

func TestChunkedBodyIsReassembled(t *testing.T) {
	req := "GET / HTTP/1.1\r\nHost: example.com\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"5\r\nhello\r\n0\r\n"

	f, err := New(filter.NewNull(), 3)
	require.NoError(t, err)

	st := feed(t, f, req)
	require.Equal(t, filter.Pass, st)

	out, err := f.Read()
	require.NoError(t, err)
	require.Contains(t, string(out), "Transfer-Encoding: chunked\r\n")
	// re-chunked into chunks of at most 3 bytes
	require.Contains(t, string(out), "3\r\nhel\r\n2\r\nlo\r\n")
	require.Contains(t, string(out), "0\r\n")
}

func TestNoBodyPassesThroughImmediately(t *testing.T) {
	req := "GET / HTTP/1.1\r\nHost: example.com\r\nContent-Length: 0\r\n\r\n"

	f, err := New(filter.NewNull(), 0)
	require.NoError(t, err)

	st := feed(t, f, req)
	require.Equal(t, filter.Pass, st)

	out, err := f.Read()
	require.NoError(t, err)
	require.Equal(t, []byte(req), out)
}

// blockedInner always reports Waiting, never flushing a result, to exercise
// the fatal "inner filter blocked indefinitely" edge case.
type blockedInner struct{ filter.Base }

func (b *blockedInner) Write(c byte) (filter.State, error) {
	if err := b.CheckWrite(c); err != nil {
		return b.State(), err
	}
	b.SetState(filter.Waiting)
	return filter.Waiting, nil
}

func (b *blockedInner) Read() ([]byte, error) {
	return nil, filter.ErrWaitingRead
}

func TestBlockedInnerFilterIsFatal(t *testing.T) {
	req := "GET / HTTP/1.1\r\nHost: example.com\r\nContent-Length: 2\r\n\r\nhi"

	f, err := New(&blockedInner{}, 0)
	require.NoError(t, err)

	st := feed(t, f, req)
	require.Equal(t, filter.Pass, st)

	_, err = f.Read()
	require.ErrorIs(t, err, ErrInnerFilterBlocked)
}
