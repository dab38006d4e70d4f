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

// Package fifo 实现一个可在多个 goroutine 间并发读写的字节队列 用来在
// 一条连接的读 goroutine 与比特编解码 goroutine 之间传递数据 对应
// streamfilters.py 的 FIFOBuffer/SynchronizedFIFOBuffer。
package fifo

import "sync"

// Buffer 是一个先进先出的字节队列 Read/Write/Len 均以互斥锁保护 可以
// 安全地被一个 goroutine 写入 另一个 goroutine 读取。
type Buffer struct {
	mu  sync.Mutex
	buf []byte
}

// New 创建一个初始内容为 seed 的队列。
func New(seed []byte) *Buffer {
	b := &Buffer{}
	if len(seed) > 0 {
		b.buf = append(b.buf, seed...)
	}
	return b
}

// ReadUpTo 最多取走 n 个字节 队列里不足 n 个时返回较短的切片 实现
// bitio.ByteReader。
func (b *Buffer) ReadUpTo(n int) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n > len(b.buf) {
		n = len(b.buf)
	}
	out := make([]byte, n)
	copy(out, b.buf[:n])
	b.buf = b.buf[n:]
	return out
}

// WriteBytes 把 p 追加到队列末尾 实现 bitio.ByteWriter。
func (b *Buffer) WriteBytes(p []byte) {
	if len(p) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
}

// Len 返回队列里当前等待被读取的字节数。
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buf)
}

// Bytes 返回队列当前内容的一份拷贝 不消费队列。
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]byte, len(b.buf))
	copy(out, b.buf)
	return out
}
