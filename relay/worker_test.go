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
	"bytes"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relayd/relayd/internal/filter"
)

// TestWorkerFeedForwardsAndFiresCallbacks drives feed with a passthrough
// Null filter (in place of the real encode/decode chains, which require
// well-formed HTTP/HTML cover text) to isolate the per-byte
// write/read/forward/reset cascade and its two commit callbacks.
func TestWorkerFeedForwardsAndFiresCallbacks(t *testing.T) {
	client, server := net.Pipe()
	var received bytes.Buffer
	done := make(chan struct{})
	go func() {
		_, _ = io.Copy(&received, server)
		close(done)
	}()

	var produced, forwarded int
	d := direction{
		name:        "test",
		chain:       filter.NewNull(),
		onProduced:  func() { produced++ },
		onForwarded: func() { forwarded++ },
	}

	w := &worker{id: "test-conn"}
	err := w.feed(client, d, []byte("ab"))
	require.NoError(t, err)

	require.NoError(t, client.Close())
	<-done

	require.Equal(t, "ab", received.String())
	require.Equal(t, 2, produced)
	require.Equal(t, 2, forwarded)
}

// TestWorkerFeedSkipsForwardedCallbackOnEmptyOutput ensures onForwarded
// never fires for a chain stage that yields nothing to write (a Pass
// whose Read returns no bytes), while onProduced still
// reflects every completed Write/Read cycle.
func TestWorkerFeedSkipsForwardedCallbackOnEmptyOutput(t *testing.T) {
	client, server := net.Pipe()
	go io.Copy(io.Discard, server)
	defer client.Close()

	var produced, forwarded int
	d := direction{
		name:        "test",
		chain:       &emptyReadFilter{Null: filter.NewNull()},
		onProduced:  func() { produced++ },
		onForwarded: func() { forwarded++ },
	}

	w := &worker{id: "test-conn"}
	err := w.feed(client, d, []byte("x"))
	require.NoError(t, err)
	require.Equal(t, 1, produced)
	require.Equal(t, 0, forwarded)
}

// emptyReadFilter wraps Null but always reports an empty read, modelling
// a chain stage whose Pass carries no forwardable bytes.
type emptyReadFilter struct {
	*filter.Null
}

func (e *emptyReadFilter) Read() ([]byte, error) {
	if _, err := e.Null.Read(); err != nil {
		return nil, err
	}
	return nil, nil
}

func TestCloseWriteFallsBackToCloseForNonTCPConn(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	require.NotPanics(t, func() { closeWrite(client) })

	// net.Pipe has no CloseWrite, so closeWrite must have fully closed
	// it: a further write should fail.
	_, err := client.Write([]byte("x"))
	require.Error(t, err)
}
