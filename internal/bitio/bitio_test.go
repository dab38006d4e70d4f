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

package bitio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// memFIFO 是测试用的简单字节管道 同时实现 ByteReader 与 ByteWriter。
type memFIFO struct {
	buf []byte
}

func (m *memFIFO) ReadUpTo(n int) []byte {
	if n > len(m.buf) {
		n = len(m.buf)
	}
	out := m.buf[:n]
	m.buf = m.buf[n:]
	return out
}

func (m *memFIFO) WriteBytes(p []byte) {
	m.buf = append(m.buf, p...)
}

func TestPacketReaderPadsWithEmpty(t *testing.T) {
	fifo := &memFIFO{buf: []byte("AB")}
	pr := NewPacketReader(fifo)
	packets := pr.Read(4)
	require.Equal(t, []uint16{'A', 'B', PacketEmpty, PacketEmpty}, packets)
}

func TestPacketWriterDropsEmpty(t *testing.T) {
	fifo := &memFIFO{}
	pw := NewPacketWriter(fifo)
	pw.Write([]uint16{'A', PacketEmpty, 'B'})
	require.Equal(t, []byte("AB"), fifo.buf)
}

func TestBinaryReaderWriterRoundTrip(t *testing.T) {
	pipe := &memFIFO{}
	bw := NewBinaryWriter(NewPacketWriter(pipe))

	bw.Write(0x1A, 5)  // 11010
	bw.Write(0x3, 2)   // 11
	bw.Write(0x155, 9) // 9-bit value, forces a full packet flush

	br := NewBinaryReader(NewPacketReader(pipe))
	require.Equal(t, uint64(0x1A), br.Read(5))
	require.Equal(t, uint64(0x3), br.Read(2))
	require.Equal(t, uint64(0x155), br.Read(9))
}

func TestBinaryTransactionReaderRollbackReplays(t *testing.T) {
	pipe := &memFIFO{}
	bw := NewBinaryWriter(NewPacketWriter(pipe))
	bw.Write(0xAB, 8)

	tr := NewBinaryTransactionReader(NewBinaryReader(NewPacketReader(pipe)))
	first := tr.Read(8)
	require.Equal(t, uint64(0xAB), first)

	tr.Rollback()
	require.Equal(t, first, tr.Read(8), "rollback must replay identical bits")

	tr.Commit()
}

func TestBinaryTransactionWriterCommitFlushesOnce(t *testing.T) {
	pipe := &memFIFO{}
	bw := NewBinaryWriter(NewPacketWriter(pipe))
	tw := NewBinaryTransactionWriter(bw)

	tw.Write(0xCD, 9)
	tw.Rollback()
	tw.Write(0xEF, 9)
	tw.Commit()

	br := NewBinaryReader(NewPacketReader(pipe))
	require.Equal(t, uint64(0xEF), br.Read(9), "rolled-back bits must never reach the wire")
}

func newAuthPair(password string, nofail bool) (*BinaryAuthenticateReader, *BinaryAuthenticateWriter, *memFIFO) {
	pipe := &memFIFO{}
	bw := NewBinaryWriter(NewPacketWriter(pipe))
	reader := NewBinaryAuthenticateReader(NewBinaryReader(NewPacketReader(pipe)), password)
	writer := NewBinaryAuthenticateWriter(bw, password, nofail, nil)
	return reader, writer, pipe
}

func TestAuthenticateHandshakeSucceeds(t *testing.T) {
	_, writer, pipe := newAuthPair("hi", false)
	bw := NewBinaryWriter(NewPacketWriter(pipe))
	readerSide := NewBinaryReader(NewPacketReader(pipe))
	_ = bw

	// feed the exact password bits followed by one whole payload packet
	pw, n := passwordBits("hi")
	writer.Write(pw, n)
	writer.Write('A', 9)
	require.Equal(t, AuthAuthenticated, writer.state)

	require.Equal(t, uint64('A'), readerSide.Read(9))
}

func TestAuthenticateMismatchLatchesFailedWithoutNofail(t *testing.T) {
	_, writer, _ := newAuthPair("hi", false)

	pw, n := passwordBits("hi")
	writer.Write(pw^0xFF, n) // corrupt the password bits
	require.Equal(t, AuthFailed, writer.state)

	// further writes must stay silently dropped — no resurrection
	writer.Write(1, 1)
	require.Equal(t, AuthFailed, writer.state)
}

func TestAuthenticateMismatchResetsWithNofail(t *testing.T) {
	_, writer, _ := newAuthPair("hi", true)

	pw, n := passwordBits("hi")
	writer.Write(pw^0xFF, n)
	require.Equal(t, AuthWaiting, writer.state)
}

func TestOnOffReaderGatesTraffic(t *testing.T) {
	pipe := &memFIFO{}
	bw := NewBinaryWriter(NewPacketWriter(pipe))
	bw.Write(0xFF, 9)

	inner := NewBinaryReader(NewPacketReader(pipe))
	onoff := NewBinaryOnOffReader(inner, false, nil)

	require.Equal(t, uint64(0), onoff.Read(9), "disabled reader must not leak real bits")

	onoff.SetEnable(true)
	require.Equal(t, uint64(0xFF), onoff.Read(9))
}
