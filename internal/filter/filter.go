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

// Package filter 定义隐写处理链的公共生命周期:每个 Filter 逐字节接收
// 输入 在内部状态机完成匹配/改写后进入 Pass 态供上层读取结果 读取后
// 进入 Flushed 态直到显式 Reset。这一状态机照搬
// streamfilters.py 的 AbstractFilter 语义。
package filter

import (
	"github.com/pkg/errors"
	"github.com/valyala/bytebufferpool"

	"github.com/relayd/relayd/common"
)

// State 是一个 Filter 的生命周期阶段。
type State int

const (
	// Empty 是初始态:尚未写入字符 或刚被 Reset。
	Empty State = iota
	// Pass 表示已有处理结果 必须先 Read 才能继续 Write。
	Pass
	// Waiting 表示已识别到部分模式 还需要更多字节才能判定。
	Waiting
	// Flushed 是终态:结果已被读走 必须 Reset 才能复用。
	Flushed
)

func (s State) String() string {
	switch s {
	case Empty:
		return "EMPTY"
	case Pass:
		return "PASS"
	case Waiting:
		return "WAITING"
	default:
		return "FLUSHED"
	}
}

var (
	// ErrMustReset 在对一个已经 Flushed 的 filter 写入时返回。
	ErrMustReset = errors.New("filter must be reset before reuse")
	// ErrPassNotRead 在对一个处于 Pass 态的 filter 写入时返回。
	ErrPassNotRead = errors.New("filter is in pass state and must be read")
	// ErrBufferFull 在写入会超出 common.MaxFilterBuffer 时返回。
	ErrBufferFull = errors.New("filter buffer is full")
	// ErrEmptyRead 在读取一个 Empty filter 时返回。
	ErrEmptyRead = errors.New("empty filter cannot be read")
	// ErrWaitingRead 在读取一个 Waiting filter 时返回。
	ErrWaitingRead = errors.New("waiting filter cannot be read")
)

// Filter 是处理链上的一个节点。实现通常嵌入 Base 来获得状态机校验。
type Filter interface {
	// Write 向 filter 写入一个字节 返回写入后的状态。
	Write(c byte) (State, error)
	// Read 取走 filter 的处理结果。Empty 与 Waiting 态不可读 会返回错误。
	Read() ([]byte, error)
	// Reset 把 filter 恢复到 Empty 态 丢弃内部缓冲。
	Reset()
	// State 返回当前状态 不改变它。
	State() State
}

// Base 为具体 filter 提供状态机校验与一个从 bytebufferpool 租借的累积
// 缓冲区 子类型在自己的 Write 里先调用 Base.CheckWrite(校验状态并追加该字节)。
type Base struct {
	state State
	buf   *bytebufferpool.ByteBuffer
}

// CheckWritable 校验当前状态是否允许写入 不改变任何内容。
func (b *Base) CheckWritable() error {
	switch b.state {
	case Flushed:
		return ErrMustReset
	case Pass:
		return ErrPassNotRead
	}
	return nil
}

// Append 把 p 追加到内部累积缓冲 超出 common.MaxFilterBuffer 时返回
// ErrBufferFull 且不写入任何内容(原型在达到上限时直接拒绝该次写入)。
func (b *Base) Append(p []byte) error {
	if b.buf == nil {
		b.buf = bytebufferpool.Get()
	}
	if b.buf.Len()+len(p) > common.MaxFilterBuffer {
		return ErrBufferFull
	}
	_, _ = b.buf.Write(p)
	return nil
}

// CheckWrite 校验当前状态是否允许写入 并在允许时把字节追加到内部缓冲。
// 子类型应在完成自己的匹配逻辑后自行把 Base.state 设为 Pass/Waiting。
func (b *Base) CheckWrite(c byte) error {
	if err := b.CheckWritable(); err != nil {
		return err
	}
	return b.Append([]byte{c})
}

// Buffered 返回目前已累积的字节(只读视图 不要修改底层数组)。
func (b *Base) Buffered() []byte {
	if b.buf == nil {
		return nil
	}
	return b.buf.Bytes()
}

// SetState 设置 filter 状态 由子类型的 Write 在判定结果后调用。
func (b *Base) SetState(s State) { b.state = s }

// State 返回当前状态。
func (b *Base) State() State { return b.state }

// Read 按 AbstractFilter.read() 的规则校验状态 并把 filter 置为 Flushed。
// 调用方(子类型)仍需自己返回缓冲内容 —— Base 只负责状态转移与校验。
func (b *Base) Read() error {
	switch b.state {
	case Empty:
		return ErrEmptyRead
	case Waiting:
		return ErrWaitingRead
	}
	b.state = Flushed
	return nil
}

// Reset 释放缓冲回 bytebufferpool 并把状态恢复到 Empty。
func (b *Base) Reset() {
	if b.buf != nil {
		bytebufferpool.Put(b.buf)
		b.buf = nil
	}
	b.state = Empty
}
