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
	"net"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/relayd/relayd/common"
	"github.com/relayd/relayd/confengine"
	"github.com/relayd/relayd/internal/childproc"
	"github.com/relayd/relayd/logger"
	"github.com/relayd/relayd/server"
)

// Relay is one running endpoint of the covert channel: either the client
// half (accepts the real application's connections, hides outgoing bits,
// forwards toward a peer relay) or the server half (accepts the peer
// relay's carrier connections, recovers bits, forwards to the real
// origin). Grounded on controller.Controller's lifecycle shape.
type Relay struct {
	ctx    context.Context
	cancel context.CancelFunc

	cfg       Config
	role      Role
	endpoint  Endpoint
	command   string
	verbose   bool
	buildInfo common.BuildInfo

	stack     *stack
	plaintext *childproc.Plaintext
	ln        *net.TCPListener
	svr       *server.Server

	stopped chan struct{}
}

func setupLogger(conf *confengine.Config) error {
	var opts logger.Options
	if conf != nil && conf.Has("logger") {
		if err := conf.UnpackChild("logger", &opts); err != nil {
			return err
		}
	} else {
		opts.Stdout = true
	}
	logger.SetOptions(opts)
	return nil
}

// New builds a Relay for the given role. endpoint carries the five fixed
// positional parameters (spec.md §6); command is the optional -c child
// process command line (empty attaches the relay's own stdio instead).
func New(conf *confengine.Config, role Role, endpoint Endpoint, command string, verbose bool, buildInfo common.BuildInfo) (*Relay, error) {
	if err := setupLogger(conf); err != nil {
		return nil, err
	}

	var cfg Config
	if conf != nil && conf.Has("relay") {
		if err := conf.UnpackChild("relay", &cfg); err != nil {
			return nil, err
		}
	}

	var st *stack
	var err error
	switch role {
	case RoleClient:
		st, err = newClientStack(endpoint.Password, cfg.chunkSize())
	case RoleServer:
		st, err = newServerStack(endpoint.Password, fmt.Sprintf("%s:%d", endpoint.RemoteHost, endpoint.RemotePort), cfg.chunkSize())
	default:
		return nil, errors.Errorf("unknown relay role %q", role)
	}
	if err != nil {
		return nil, err
	}

	plaintext, err := childproc.Attach(command)
	if err != nil {
		return nil, err
	}
	st.sink.w = &writerSink{w: plaintext.In}

	var svr *server.Server
	if conf != nil {
		svr, err = server.New(conf)
		if err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Relay{
		ctx: ctx, cancel: cancel,
		cfg: cfg, role: role, endpoint: endpoint, command: command, verbose: verbose, buildInfo: buildInfo,
		stack: st, plaintext: plaintext, svr: svr,
		stopped: make(chan struct{}),
	}, nil
}

// Start opens the listening socket, launches the accept loop, the
// covert-FIFO feed loop, and (if configured) the admin/metrics server.
// It returns once the listener is up; forwarding happens in background
// goroutines until Stop is called.
func (r *Relay) Start() error {
	addr := fmt.Sprintf("%s:%d", r.endpoint.BindHost, r.endpoint.BindPort)
	if r.verbose {
		logger.Debugf("opening listening socket on %s", addr)
	}
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return errors.Wrap(err, "resolve bind address")
	}
	ln, err := net.ListenTCP("tcp", tcpAddr)
	if err != nil {
		return errors.Wrap(err, "listen")
	}
	r.ln = ln

	r.setupAdmin()
	if r.svr != nil {
		go func() {
			if err := r.svr.ListenAndServe(); err != nil {
				logger.Errorf("admin server stopped: %v", err)
			}
		}()
	}

	go r.acceptLoop(r.ctx, r.ln)
	go func() {
		r.feedFifo(r.ctx, r.plaintext.Out)
		close(r.stopped)
	}()

	return nil
}

// Reload only re-applies conf's logger options; the five covert-channel
// parameters are fixed for a relay's lifetime per spec.md §6.
func (r *Relay) Reload(conf *confengine.Config) error {
	return setupLogger(conf)
}

// Stop cancels the accept/feed loops, waits for the FIFO feed goroutine to
// notice, closes the listener, and waits for any spawned child process to
// exit. Cleanup
// steps are independent of one another, so their errors accumulate
// instead of short-circuiting.
func (r *Relay) Stop() error {
	r.cancel()

	// The FIFO feed goroutine may be blocked inside a Read() on the
	// plaintext source (stdin, or a still-open child pipe) that ctx
	// cancellation cannot interrupt; wait briefly for it to notice EOF
	// on its own rather than hang shutdown indefinitely on it.
	select {
	case <-r.stopped:
	case <-time.After(time.Second):
	}

	var result error
	if r.ln != nil {
		if err := r.ln.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if r.plaintext.HasChild() {
		code, err := r.plaintext.Wait()
		if err != nil {
			result = multierror.Append(result, err)
		} else if r.verbose {
			logger.Debugf("child process terminated with code %d", code)
		}
	}
	return result
}

// writerSink adapts an io.Writer (a child process's stdin, or the
// relay's own stdout) to bitio.ByteWriter.
type writerSink struct {
	w interface{ Write([]byte) (int, error) }
}

func (s *writerSink) WriteBytes(p []byte) {
	if s.w == nil || len(p) == 0 {
		return
	}
	_, _ = s.w.Write(p)
}
