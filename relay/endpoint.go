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
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/relayd/relayd/logger"
)

// acceptLoop repeatedly accepts connections on ln, grounded on
// tcpsteg.py's SocketThread.run: a listening socket polled with a timeout
// (select(...,1) there, SetDeadline here) so the loop can notice ctx
// cancellation without blocking Accept forever. Each accepted connection
// dials remote and, on success, is handed to a freshly built worker; a
// failed dial closes the accepted connection immediately, matching the
// original's "Cannot connect to the remote host" branch.
func (r *Relay) acceptLoop(ctx context.Context, ln *net.TCPListener) {
	poll := r.cfg.pollInterval()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_ = ln.SetDeadline(time.Now().Add(poll))
		conn, err := ln.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			select {
			case <-ctx.Done():
				return
			default:
				logger.Errorf("accept() failed: %v", err)
				continue
			}
		}

		go r.handleAccepted(ctx, conn)
	}
}

func (r *Relay) handleAccepted(ctx context.Context, local net.Conn) {
	id := uuid.NewString()
	if r.verbose {
		logger.Debugf("[%s] received connection from %s", id, local.RemoteAddr())
	}

	remote, err := (&net.Dialer{}).DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", r.endpoint.RemoteHost, r.endpoint.RemotePort))
	if err != nil {
		dialFailures.Inc()
		if r.verbose {
			logger.Debugf("[%s] cannot connect to remote host: %v", id, err)
		}
		local.Close()
		return
	}
	if r.verbose {
		logger.Debugf("[%s] opened connection to %s:%d", id, r.endpoint.RemoteHost, r.endpoint.RemotePort)
	}

	acceptedConns.Inc()
	w := &worker{id: id, local: local, remote: remote, st: r.stack, verbose: r.verbose}

	listenToRemote, remoteToListen := r.directions()
	w.run(listenToRemote, remoteToListen)
}

// directions binds the role-specific encode/decode chains built by
// chain.go to the physical (local listener -> remote, remote -> local
// listener) pumps. This is the Go replacement for tcpsteg.py's confusing
// argument-swapped SocketThread construction: the mapping is named
// explicitly here instead of being encoded in positional-argument order.
func (r *Relay) directions() (listenToRemote, remoteToListen direction) {
	switch r.role {
	case RoleClient:
		// Client hides outgoing bits in the request it relays toward the
		// remote tcpsteg server, and recovers bits from that server's
		// responses.
		listenToRemote = direction{name: "listen->remote", chain: r.stack.encode, onForwarded: r.stack.commitEncode}
		remoteToListen = direction{name: "remote->listen", chain: r.stack.decode, onProduced: r.stack.commitDecode}
	case RoleServer:
		// Server recovers bits from the inbound carrier request (and
		// rewrites Host: to the real origin) then hides bits in the real
		// origin's response before it goes back out to the carrier.
		listenToRemote = direction{name: "listen->remote", chain: r.stack.decode, onProduced: r.stack.commitDecode}
		remoteToListen = direction{name: "remote->listen", chain: r.stack.encode, onForwarded: r.stack.commitEncode}
	}
	return
}

// feedFifo continuously reads single bytes from the local plaintext
// source (a child process's stdout, or the relay's own stdin) and queues
// them in the covert FIFO, exactly as tcpsteg.py's main loop does with
// `data = pipeout.read(1); fifo.write(data)`. It returns when the source
// is exhausted (EOF) or ctx is cancelled.
func (r *Relay) feedFifo(ctx context.Context, src io.Reader) {
	buf := make([]byte, 1)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		n, err := src.Read(buf)
		if n > 0 {
			r.stack.fifo.WriteBytes(buf[:n])
		}
		if err != nil {
			return
		}
	}
}
