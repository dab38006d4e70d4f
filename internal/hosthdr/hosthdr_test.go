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

package hosthdr

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relayd/relayd/internal/filter"
)

// write feeds s byte by byte and stops at the first Pass, since a filter in
// Pass accepts no further bytes until it has been read.
func write(t *testing.T, c *Changer, s string) filter.State {
	t.Helper()
	var last filter.State
	for i := 0; i < len(s); i++ {
		st, err := c.Write(s[i])
		require.NoError(t, err)
		last = st
		if st == filter.Pass {
			break
		}
	}
	return last
}

func TestChangerRewritesHost(t *testing.T) {
	c, err := NewChanger("backend.internal")
	require.NoError(t, err)

	st := write(t, c, "Host: covert.example.com\r\n")
	require.Equal(t, filter.Pass, st)

	out, err := c.Read()
	require.NoError(t, err)
	require.Equal(t, []byte("Host: backend.internal\r\n"), out)
}

func TestChangerPassesThroughNonHostLine(t *testing.T) {
	c, err := NewChanger("backend.internal")
	require.NoError(t, err)

	st := write(t, c, "Accept: */*\r\n")
	require.Equal(t, filter.Pass, st)

	// 'A' already fails the Host pattern, so the filter passes that byte on
	// by itself, unchanged.
	out, err := c.Read()
	require.NoError(t, err)
	require.Equal(t, []byte("A"), out)
}

func TestChangerResetAllowsReuse(t *testing.T) {
	c, err := NewChanger("backend.internal")
	require.NoError(t, err)

	write(t, c, "Host: a\r\n")
	_, err = c.Read()
	require.NoError(t, err)

	c.Reset()
	require.Equal(t, filter.Empty, c.State())

	st := write(t, c, "Host: b\r\n")
	require.Equal(t, filter.Pass, st)
	out, err := c.Read()
	require.NoError(t, err)
	require.Equal(t, []byte("Host: backend.internal\r\n"), out)
}
