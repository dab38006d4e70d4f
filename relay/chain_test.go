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

package relay

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewClientStackBuildsAndResets(t *testing.T) {
	st, err := newClientStack("s3cr3t", 1024)
	require.NoError(t, err)
	require.NotNil(t, st.encode)
	require.NotNil(t, st.decode)
	require.NotNil(t, st.sink)

	// reset/commit must be safe to call before any byte ever flowed
	// through the chains, exactly as globalReset() is safe to call
	// between the very first two connections a relay ever accepts.
	require.NotPanics(t, func() {
		st.reset()
		st.commitEncode()
		st.commitDecode()
	})
}

func TestNewServerStackBuildsAndResets(t *testing.T) {
	st, err := newServerStack("s3cr3t", "origin.example:80", 1024)
	require.NoError(t, err)
	require.NotNil(t, st.encode)
	require.NotNil(t, st.decode)

	require.NotPanics(t, func() {
		st.reset()
		st.commitEncode()
		st.commitDecode()
	})
}

type collectingWriter struct {
	got []byte
}

func (c *collectingWriter) WriteBytes(p []byte) {
	c.got = append(c.got, p...)
}

func TestPipeSinkDelegatesOnceBound(t *testing.T) {
	p := &pipeSink{}
	require.NotPanics(t, func() { p.WriteBytes([]byte("dropped")) })

	w := &collectingWriter{}
	p.w = w
	p.WriteBytes([]byte("hi"))
	require.Equal(t, []byte("hi"), w.got)
}
