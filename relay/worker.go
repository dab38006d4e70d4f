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
	"net"
	"sync"

	"github.com/relayd/relayd/common"
	"github.com/relayd/relayd/internal/filter"
	"github.com/relayd/relayd/logger"
)

// direction is one of the two byte streams a worker pumps: local socket to
// remote socket, or remote socket back to local socket. Exactly one of
// onProduced/onForwarded is meaningful per direction per role (see
// chain.go's commitEncode/commitDecode), mirroring tcpsteg.py's
// commitReadEvent/commitWriteEvent without its inverted-boolean plumbing.
type direction struct {
	name        string
	chain       filter.Filter
	onProduced  func() // fires once the chain yields a result (decode commit)
	onForwarded func() // fires once that result is written to dst (encode commit)
}

// worker forwards one accepted connection end to end, grounded on
// tcpsteg.py's SocketThread: two independent pumps, one per direction,
// each driving its own filter chain byte by byte and resetting the shared
// stack once both sides have closed.
type worker struct {
	id      string
	local   net.Conn
	remote  net.Conn
	st      *stack
	verbose bool
}

func (w *worker) run(listenToRemote, remoteToListen direction) {
	activeConns.Inc()
	defer activeConns.Dec()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		w.pump(w.local, w.remote, listenToRemote)
	}()
	go func() {
		defer wg.Done()
		w.pump(w.remote, w.local, remoteToListen)
	}()
	wg.Wait()

	w.local.Close()
	w.remote.Close()
	w.st.reset()
}

func (w *worker) pump(src, dst net.Conn, d direction) {
	buf := make([]byte, common.ReadBlockSize)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			coverBytes.WithLabelValues(d.name).Add(float64(n))
			if ferr := w.feed(dst, d, buf[:n]); ferr != nil {
				if w.verbose {
					logger.Debugf("[%s] %s: filter error: %v", w.id, d.name, ferr)
				}
				break
			}
		}
		if err != nil {
			if w.verbose {
				logger.Debugf("[%s] %s closed: %v", w.id, d.name, err)
			}
			break
		}
	}
	closeWrite(dst)
}

// feed drives one direction's filter chain byte by byte. Each time the
// chain reaches Pass it yields zero or more cover-traffic bytes, which are
// forwarded immediately and the chain reset for the next message, exactly
// as filter.SerialGroup's own per-byte cascade does for its sub-filters.
func (w *worker) feed(dst net.Conn, d direction, data []byte) error {
	for _, c := range data {
		st, err := d.chain.Write(c)
		if err != nil {
			return err
		}
		if st != filter.Pass {
			continue
		}

		out, err := d.chain.Read()
		if err != nil {
			return err
		}
		covertExchanges.WithLabelValues(d.name).Inc()
		if d.onProduced != nil {
			d.onProduced()
		}
		d.chain.Reset()

		if len(out) == 0 {
			continue
		}
		if _, err := dst.Write(out); err != nil {
			return err
		}
		if d.onForwarded != nil {
			d.onForwarded()
		}
	}
	return nil
}

func closeWrite(c net.Conn) {
	if tc, ok := c.(*net.TCPConn); ok {
		_ = tc.CloseWrite()
		return
	}
	_ = c.Close()
}
