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

// Package childproc attaches the relay's plaintext side to either an
// external command's stdio or, absent one, the relay process's own
// stdin/stdout. This follows tcpsteg.py's handling of -c: a command
// spawned with stdout=PIPE, stdin=PIPE, or else pipeout=sys.stdin /
// pipein=sys.stdout. The child's stderr goes to the relay's own stderr,
// not into the plaintext stream.
package childproc

import (
	"io"
	"os"
	"os/exec"
	"strings"
)

// Plaintext is the relay's local plaintext source/sink: Out is read from
// to find bytes that should be hidden in outgoing cover traffic, In is
// written to with bytes recovered from incoming cover traffic.
type Plaintext struct {
	Out io.Reader
	In  io.Writer

	cmd *exec.Cmd
}

// Attach starts command (split on whitespace, same convention as
// tcpsteg.py's cmdline = command.split()) with its stdout/stdin wired as
// Plaintext.Out/In and stderr merged into the relay's own stderr. An empty
// command attaches the relay's own stdin/stdout instead.
func Attach(command string) (*Plaintext, error) {
	if strings.TrimSpace(command) == "" {
		return &Plaintext{Out: os.Stdin, In: os.Stdout}, nil
	}

	fields := strings.Fields(command)
	cmd := exec.Command(fields[0], fields[1:]...)
	cmd.Stderr = os.Stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	return &Plaintext{Out: stdout, In: stdin, cmd: cmd}, nil
}

// Wait blocks until a spawned child process exits, returning its exit
// code. It returns (0, nil) immediately when no child was attached.
func (p *Plaintext) Wait() (int, error) {
	if p.cmd == nil {
		return 0, nil
	}
	err := p.cmd.Wait()
	if p.cmd.ProcessState != nil {
		return p.cmd.ProcessState.ExitCode(), err
	}
	return -1, err
}

// HasChild reports whether Attach spawned a real child process.
func (p *Plaintext) HasChild() bool {
	return p.cmd != nil
}
