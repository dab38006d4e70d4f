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

// Package bitio 实现隐写比特流的"物理层":把 8 位字节流包装为 9 位报文
// (区分真实字节与填充的空报文) 再在报文流之上提供按比特读写 事务性的
// 提交/回滚 以及口令认证/开关门控。上层 filter 只与这一层的 Read(n)/
// Write(n,m) 打交道 不直接触碰底层 socket 字节。
package bitio

const (
	// PacketEmpty 标记一个报文不承载真实字节 只是填充位
	PacketEmpty = 0x100
	packetCharMask = 0x0ff
	packetSize     = 9
	packetMask     = 0x1ff
)

// ByteReader 以非阻塞方式最多读取 n 个已就绪字节 不足 n 个时返回较短的切片。
type ByteReader interface {
	ReadUpTo(n int) []byte
}

// ByteWriter 把字节写入底层管道(socket 半连接 子进程管道或标准输出)。
type ByteWriter interface {
	WriteBytes(p []byte)
}

// BitReader 是比特层读取端的统一接口 BinaryReader 与
// BinaryTransactionReader 都实现它 方便上层互换包装。
type BitReader interface {
	Read(n int) uint64
}

// BitWriter 是比特层写入端的统一接口 BinaryWriter 与
// BinaryTransactionWriter 都实现它。
type BitWriter interface {
	Write(n uint64, m int)
}

// PacketReader 把 8 位字节流包装为 9 位报文流 读不到的部分以 PacketEmpty 填充。
type PacketReader struct {
	r ByteReader
}

func NewPacketReader(r ByteReader) *PacketReader {
	return &PacketReader{r: r}
}

// Read 读取 n 个报文。不足 n 个真实字节时 剩余报文全部填充为 PacketEmpty。
func (p *PacketReader) Read(n int) []uint16 {
	buf := p.r.ReadUpTo(n)
	out := make([]uint16, n)
	i := 0
	for ; i < len(buf); i++ {
		out[i] = uint16(buf[i])
	}
	for ; i < n; i++ {
		out[i] = PacketEmpty
	}
	return out
}

// PacketWriter 把报文流中标记为真实字符的报文还原为字节并整体写出。
type PacketWriter struct {
	w ByteWriter
}

func NewPacketWriter(w ByteWriter) *PacketWriter {
	return &PacketWriter{w: w}
}

func (p *PacketWriter) Write(packets []uint16) {
	buf := make([]byte, 0, len(packets))
	for _, c := range packets {
		if c&PacketEmpty == 0 {
			buf = append(buf, byte(c&packetCharMask))
		}
	}
	p.w.WriteBytes(buf)
}

// BinaryReader 在报文流上提供按比特读取 跨报文边界累积残留比特。
type BinaryReader struct {
	pr     *PacketReader
	last   uint64
	remain int
}

func NewBinaryReader(pr *PacketReader) *BinaryReader {
	return &BinaryReader{pr: pr}
}

// Read 读取 n 个比特 最高位在前 结果装入 uint64 的低 n 位。n 不应超过 64。
func (b *BinaryReader) Read(n int) uint64 {
	var result uint64
	if b.remain > 0 {
		if b.remain >= n {
			result = b.last >> uint(b.remain-n)
			b.last &= (uint64(1) << uint(b.remain-n)) - 1
			b.remain -= n
			return result
		}
		result = b.last
		n -= b.remain
		b.remain = 0
	}

	nb := n / packetSize
	r := n % packetSize
	if nb > 0 {
		packets := b.pr.Read(nb)
		for _, p := range packets {
			result <<= packetSize
			result |= uint64(p)
		}
		b.remain = 0
	}
	if r > 0 {
		last := b.pr.Read(1)[0]
		result <<= uint(r)
		result |= uint64(last) >> uint(packetSize-r)
		b.last = uint64(last) & ((uint64(1) << uint(packetSize-r)) - 1)
		b.remain = packetSize - r
	}
	return result
}

func (b *BinaryReader) Reset() {
	b.last = 0
	b.remain = 0
}

// BinaryWriter 在报文流上提供按比特写入 累积到整报文边界后批量下发。
type BinaryWriter struct {
	pw      *PacketWriter
	current uint64
	remain  int
}

func NewBinaryWriter(pw *PacketWriter) *BinaryWriter {
	return &BinaryWriter{pw: pw}
}

// Write 把整数 n 的低 m 位写入流中 最高位(第 m-1 位)先写。
func (b *BinaryWriter) Write(n uint64, m int) {
	r := packetSize - b.remain
	if r > m {
		b.current <<= uint(m)
		b.current |= n
		b.remain += m
		return
	}

	var packets []uint16
	m -= r
	b.current <<= uint(r)
	b.current |= (n >> uint(m)) & ((uint64(1) << uint(r)) - 1)
	packets = append(packets, uint16(b.current))
	b.remain = 0
	for m >= packetSize {
		m -= packetSize
		packets = append(packets, uint16((n>>uint(m))&packetMask))
	}
	b.pw.Write(packets)
	b.remain = m
	b.current = n & ((uint64(1) << uint(m)) - 1)
}

func (b *BinaryWriter) Reset() {
	b.current = 0
	b.remain = 0
}

// BinaryTransactionReader 给比特读取加上提交/回滚语义:read() 之后如果
// 外层操作失败(例如字节没能送达对端) rollback() 会让同一批比特在下次
// read() 时原样重放 commit() 则确认这些比特已经消费并清空缓冲。
type BinaryTransactionReader struct {
	br      *BinaryReader
	buffer  uint64
	nbuffer int
	pos     int
}

func NewBinaryTransactionReader(br *BinaryReader) *BinaryTransactionReader {
	return &BinaryTransactionReader{br: br}
}

func (t *BinaryTransactionReader) Read(n int) uint64 {
	if t.pos+n > t.nbuffer {
		nb := t.pos + n - t.nbuffer
		x := t.br.Read(nb)
		t.buffer <<= uint(nb)
		t.buffer |= x
		t.nbuffer = n + t.pos
	}
	result := ((uint64(1) << uint(n)) - 1) & (t.buffer >> uint(t.nbuffer-t.pos-n))
	t.pos += n
	return result
}

// Commit 确认已读比特被成功消费 清空事务缓冲。
func (t *BinaryTransactionReader) Commit() {
	t.buffer = 0
	t.nbuffer = 0
	t.pos = 0
}

// Rollback 让游标回到事务起点 缓冲内容保留 下次 Read 将重放同样的比特。
func (t *BinaryTransactionReader) Rollback() {
	t.pos = 0
}

// BinaryTransactionWriter 给比特写入加上提交/回滚语义:write() 只是把比特
// 累积在本地缓冲 commit() 才真正把累积的比特下发到底层 BinaryWriter
// rollback() 则丢弃累积的比特 从不下发。
type BinaryTransactionWriter struct {
	bw     *BinaryWriter
	buffer uint64
	n      int
}

func NewBinaryTransactionWriter(bw *BinaryWriter) *BinaryTransactionWriter {
	return &BinaryTransactionWriter{bw: bw}
}

func (t *BinaryTransactionWriter) Write(n uint64, m int) {
	x := n & ((uint64(1) << uint(m)) - 1)
	t.buffer <<= uint(m)
	t.buffer |= x
	t.n += m
}

func (t *BinaryTransactionWriter) Commit() {
	t.bw.Write(t.buffer, t.n)
	t.buffer = 0
	t.n = 0
}

func (t *BinaryTransactionWriter) Rollback() {
	t.buffer = 0
	t.n = 0
}

func passwordBits(password string) (uint64, int) {
	var x uint64
	for i := 0; i < len(password); i++ {
		x <<= 8
		x |= uint64(password[i])
	}
	return x, len(password) * 8
}

// BinaryAuthenticateReader 在比特流前面插入口令比特(MSB 优先 每字节 8
// 位) 口令发送完毕后对后续读取完全透明。
type BinaryAuthenticateReader struct {
	r                BitReader
	password         uint64
	npassword        int
	currentPassword  uint64
	nCurrentPassword int
	authenticated    bool
}

func NewBinaryAuthenticateReader(r BitReader, password string) *BinaryAuthenticateReader {
	x, n := passwordBits(password)
	return &BinaryAuthenticateReader{
		r: r, password: x, npassword: n,
		currentPassword: x, nCurrentPassword: n,
	}
}

func (a *BinaryAuthenticateReader) Read(n int) uint64 {
	if a.authenticated {
		return a.r.Read(n)
	}
	if n <= a.nCurrentPassword {
		a.nCurrentPassword -= n
		result := a.currentPassword >> uint(a.nCurrentPassword)
		a.currentPassword &= (uint64(1) << uint(a.nCurrentPassword)) - 1
		return result
	}
	result := a.currentPassword
	rest := n - a.nCurrentPassword
	x := a.r.Read(rest)
	result <<= uint(rest)
	result |= x
	a.authenticated = true
	return result
}

// Reset 让口令在下一次 Read 时重新发送。
func (a *BinaryAuthenticateReader) Reset() {
	a.authenticated = false
	a.currentPassword = a.password
	a.nCurrentPassword = a.npassword
}

// AuthState 是 BinaryAuthenticateWriter 的认证状态。
type AuthState int

const (
	AuthWaiting AuthState = iota
	AuthAuthenticated
	AuthFailed
)

// BinaryAuthenticateWriter 校验传入比特流前缀是否匹配口令 匹配成功后把
// 其余比特原样转发给底层 BinaryWriter。一旦检测到任何不匹配的比特 立即
// 锁定为 AuthFailed(除非 nofail) 不存在"部分匹配但仍可能恢复"的状态。
type BinaryAuthenticateWriter struct {
	w                BitWriter
	password         uint64
	npassword        int
	currentPassword  uint64
	nCurrentPassword int
	state            AuthState
	nofail           bool
	callback         func(ok bool)
	fired            bool
}

func NewBinaryAuthenticateWriter(w BitWriter, password string, nofail bool, callback func(ok bool)) *BinaryAuthenticateWriter {
	x, n := passwordBits(password)
	return &BinaryAuthenticateWriter{
		w: w, password: x, npassword: n,
		currentPassword: x, nCurrentPassword: n,
		state: AuthWaiting, nofail: nofail, callback: callback,
	}
}

func (a *BinaryAuthenticateWriter) fire(ok bool) {
	if a.fired {
		return
	}
	a.fired = true
	if a.callback != nil {
		a.callback(ok)
	}
}

// mismatch 锁定失败状态 除非 nofail 时静默复位并允许重新认证。
func (a *BinaryAuthenticateWriter) mismatch() {
	if a.nofail {
		a.Reset()
		return
	}
	a.state = AuthFailed
	a.fire(false)
}

func (a *BinaryAuthenticateWriter) Write(n uint64, m int) {
	switch a.state {
	case AuthAuthenticated:
		a.w.Write(n, m)
		return
	case AuthFailed:
		return
	}

	if m <= a.nCurrentPassword {
		expected := a.currentPassword >> uint(a.nCurrentPassword-m)
		got := n & ((uint64(1) << uint(m)) - 1)
		if expected != got {
			a.mismatch()
			return
		}
		if m == a.nCurrentPassword {
			a.state = AuthAuthenticated
			a.fire(true)
			return
		}
		a.nCurrentPassword -= m
		a.currentPassword &= (uint64(1) << uint(a.nCurrentPassword)) - 1
		return
	}

	rest := m - a.nCurrentPassword
	expected := a.currentPassword
	got := n >> uint(rest)
	if expected != got {
		a.mismatch()
		return
	}
	a.state = AuthAuthenticated
	a.fire(true)
	a.w.Write(n&((uint64(1)<<uint(rest))-1), rest)
}

// Reset 把认证状态恢复到 WAITING 口令比特需要从头重新匹配。
func (a *BinaryAuthenticateWriter) Reset() {
	a.state = AuthWaiting
	a.currentPassword = a.password
	a.nCurrentPassword = a.npassword
	a.fired = false
}

// BinaryOnOffReader 按开关门控透传或屏蔽底层比特流:关闭时返回全 0 或
// (若启用 random 模式)伪随机比特 绝不泄露真实数据。
type BinaryOnOffReader struct {
	r      BitReader
	enable bool
	random bool
	rng    func(n int) uint64
}

func NewBinaryOnOffReader(r BitReader, random bool, rng func(n int) uint64) *BinaryOnOffReader {
	return &BinaryOnOffReader{r: r, random: random, rng: rng}
}

func (o *BinaryOnOffReader) SetEnable(b bool) {
	o.enable = b
}

func (o *BinaryOnOffReader) Read(n int) uint64 {
	if o.enable {
		return o.r.Read(n)
	}
	if o.random && o.rng != nil {
		return o.rng(n)
	}
	return 0
}
