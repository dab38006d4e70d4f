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

// Package relay wires the bit/filter stack built by internal/bitio,
// internal/filter, internal/httpheader, internal/htmltag, internal/httpbody
// and internal/hosthdr into the two-socket forwarding relay described by
// tcpsteg.py's client()/server() functions: one direction of a connection
// hides outgoing bits in the structural ordering of cover HTTP traffic
// (the "encode" chain), the other direction recovers bits an authenticated
// peer hid the same way (the "decode" chain). Which physical direction
// plays which role differs between RoleClient and RoleServer;
// newClientStack and newServerStack build the correct pairing for each.
package relay

import (
	"github.com/relayd/relayd/internal/bitio"
	"github.com/relayd/relayd/internal/filter"
	"github.com/relayd/relayd/internal/fifo"
	"github.com/relayd/relayd/internal/hosthdr"
	"github.com/relayd/relayd/internal/htmltag"
	"github.com/relayd/relayd/internal/httpbody"
	"github.com/relayd/relayd/internal/httpheader"
)

// stack holds one endpoint's complete bit/filter plumbing. It is built
// once per relay process (not per connection): the covert bitstream and
// its authentication state are continuous across every connection the
// relay ever forwards, exactly as tcpsteg.py constructs filterin/filterout
// once in client()/server() and only calls globalReset() between
// connections.
type stack struct {
	fifo *fifo.Buffer

	transacIn  *bitio.BinaryTransactionReader
	transacOut *bitio.BinaryTransactionWriter

	// encode hides bits read from transacIn inside outgoing cover traffic.
	encode filter.Filter
	// decode recovers bits an authenticated peer hid inside incoming
	// cover traffic, writing them to transacOut.
	decode filter.Filter

	// sink is where commitDecode's bytes ultimately land: the local
	// command's stdin, or the relay's own stdout when run without -c.
	sink *pipeSink
}

// newClientStack builds the client's filter pairing: encode only permutes
// HTTP request headers (no body extractor on the client's outbound leg);
// decode walks the server's responses through the HTML-tag extractor
// nested inside the HTTP body extractor, then the header permutation,
// accumulating bits from both layers into the same transacOut sink. The
// decode-side authenticator uses nofail=true so a garbled or short
// response never permanently locks out future decode attempts.
func newClientStack(password string, chunkSize int) (*stack, error) {
	fb := fifo.New(nil)
	pr := bitio.NewPacketReader(fb)
	br := bitio.NewBinaryReader(pr)
	transacIn := bitio.NewBinaryTransactionReader(br)
	authIn := bitio.NewBinaryAuthenticateReader(transacIn, password)

	encode, err := httpheader.NewFilterIn(authIn)
	if err != nil {
		return nil, err
	}

	sink := &pipeSink{}
	pw := bitio.NewPacketWriter(sink)
	bw := bitio.NewBinaryWriter(pw)
	transacOut := bitio.NewBinaryTransactionWriter(bw)
	authOut := bitio.NewBinaryAuthenticateWriter(transacOut, password, true, nil)

	htmlOut, err := htmltag.NewFilterOut(authOut)
	if err != nil {
		return nil, err
	}
	body, err := httpbody.New(htmlOut, chunkSize)
	if err != nil {
		return nil, err
	}
	hdrOut, err := httpheader.NewFilterOut(authOut)
	if err != nil {
		return nil, err
	}
	decode := filter.NewSerialGroup(body, hdrOut)

	return &stack{fifo: fb, transacIn: transacIn, transacOut: transacOut, encode: encode, decode: decode, sink: sink}, nil
}

// newServerStack builds the server's reciprocal pairing: the encode side
// gates its two stages (HTML-tag permutation nested in the body extractor,
// then header permutation) behind a shared BinaryOnOffReader that only
// starts permuting outbound traffic once the inbound leg's password check
// has succeeded; the decode side rewrites Host: to the real origin after
// recovering bits from the inbound request's header order.
func newServerStack(password, realHost string, chunkSize int) (*stack, error) {
	fb := fifo.New(nil)
	pr := bitio.NewPacketReader(fb)
	br := bitio.NewBinaryReader(pr)
	transacIn := bitio.NewBinaryTransactionReader(br)
	authIn := bitio.NewBinaryAuthenticateReader(transacIn, password)
	onoffIn := bitio.NewBinaryOnOffReader(authIn, false, nil)

	htmlIn, err := htmltag.NewFilterIn(onoffIn)
	if err != nil {
		return nil, err
	}
	body, err := httpbody.New(htmlIn, chunkSize)
	if err != nil {
		return nil, err
	}
	hdrIn, err := httpheader.NewFilterIn(onoffIn)
	if err != nil {
		return nil, err
	}
	encode := filter.NewSerialGroup(body, hdrIn)

	sink := &pipeSink{}
	pw := bitio.NewPacketWriter(sink)
	bw := bitio.NewBinaryWriter(pw)
	transacOut := bitio.NewBinaryTransactionWriter(bw)
	authOut := bitio.NewBinaryAuthenticateWriter(transacOut, password, false, func(ok bool) {
		if !ok {
			authFailures.Inc()
		}
		onoffIn.SetEnable(ok)
	})

	hdrOut, err := httpheader.NewFilterOut(authOut)
	if err != nil {
		return nil, err
	}
	changer, err := hosthdr.NewChanger(realHost)
	if err != nil {
		return nil, err
	}
	decode := filter.NewSerialGroup(hdrOut, changer)

	return &stack{fifo: fb, transacIn: transacIn, transacOut: transacOut, encode: encode, decode: decode, sink: sink}, nil
}

// reset mirrors tcpsteg.py's globalReset(): called between connections,
// never mid-connection. The covert FIFO and its authentication windowing
// persist across the process lifetime; only the transient per-connection
// filter/transaction state is wiped.
func (s *stack) reset() {
	s.encode.Reset()
	s.decode.Reset()
	s.transacIn.Rollback()
	s.transacOut.Rollback()
}

// commitEncode confirms bits read out of the covert FIFO were
// steganographically hidden AND the resulting cover traffic was
// successfully forwarded to the peer; only then are they truly consumed.
func (s *stack) commitEncode() { s.transacIn.Commit() }

// commitDecode confirms bits were successfully recovered from incoming
// cover traffic; this fires independent of whether the reassembled cover
// message could also be forwarded onward.
func (s *stack) commitDecode() { s.transacOut.Commit() }

// pipeSink is a placeholder bitio.ByteWriter swapped for the real
// destination (child process stdin, or the relay's own stdout) by
// relay.New once the endpoint's local plaintext sink is known.
type pipeSink struct {
	w bitio.ByteWriter
}

func (p *pipeSink) WriteBytes(b []byte) {
	if p.w != nil {
		p.w.WriteBytes(b)
	}
}
