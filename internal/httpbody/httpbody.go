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

// Package httpbody 把一次 HTTP 请求/响应里的 body 部分剥离出来 整体
// 喂给一个内层 filter(通常是 htmltag 的标签属性排列 filter) 再把结果
// 按原本的框架方式(定长或 chunked)重新封装进消息里。headers/状态行
// 原样转发 只有 body 的字节经过内层 filter。
package httpbody

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/relayd/relayd/internal/filter"
	"github.com/relayd/relayd/internal/httpheader"
	"github.com/relayd/relayd/internal/regex"
	"github.com/relayd/relayd/internal/util"
)

// DefaultChunkSize 是重新分块时单个 chunk 的最大字节数。
const DefaultChunkSize = 65535

const contentLengthPrefix = "Content-Length:"

// ErrInnerFilterBlocked 在内层 filter 处理完 body 的最后一个字节后仍未
// 产出一个完整结果时返回:body 已经读完 但没有字节可以回填进消息 这条
// 连接再也无法被正确重建 因此是致命错误。
var ErrInnerFilterBlocked = errors.New("httpbody: inner filter is blocked indefinitely and cannot flush the extracted body")

// endOfChunk 是 chunked 编码里 "一个 chunk 的数据吃完之后 还要跳过它
// 结尾那对 \r\n" 的小型子状态机。
const (
	chunkDataOrSize = 0
	expectCR        = 1
	expectLF        = 2
)

// Filter 提取 HTTP body 逐字节喂给 inner 再重新封装。
type Filter struct {
	filter.Base
	inner     filter.Filter
	chunkSize int

	pattern       *regex.Pattern
	requestLine   strings.Builder
	intoHeader    bool
	headers       []string
	currentHeader strings.Builder

	intoData bool
	blength  bool
	length   int
	bchunked bool

	chunkLength   int
	chunkSizeLine strings.Builder
	endOfChunk    int

	data   []byte
	finish bool
}

// New 用给定的内层 filter 与重分块时的最大 chunk 大小构造一个 Filter。
// chunkSize 为 0 时使用 DefaultChunkSize。
func New(inner filter.Filter, chunkSize int) (*Filter, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	p, err := regex.Compile(httpheader.ReqRespPattern)
	if err != nil {
		return nil, err
	}
	return &Filter{inner: inner, chunkSize: chunkSize, pattern: p}, nil
}

func (f *Filter) Write(c byte) (filter.State, error) {
	if err := f.CheckWrite(c); err != nil {
		return f.State(), err
	}

	switch {
	case f.intoData:
		return f.writeData(c)
	case f.intoHeader:
		return f.writeHeader(c)
	default:
		return f.writeRequestLine(c)
	}
}

func (f *Filter) writeRequestLine(c byte) (filter.State, error) {
	result := f.pattern.Next(c)
	f.requestLine.WriteByte(c)
	switch result {
	case regex.Pass:
		f.SetState(filter.Waiting)
	case regex.Accept:
		f.intoHeader = true
		f.SetState(filter.Waiting)
	default:
		f.SetState(filter.Pass)
	}
	return f.State(), nil
}

func (f *Filter) writeHeader(c byte) (filter.State, error) {
	f.currentHeader.WriteByte(c)
	tail := f.Buffered()

	if hasSuffix(tail, "\r\n\r\n") {
		if f.blength || f.bchunked {
			f.intoData = true
		} else {
			f.SetState(filter.Pass)
			return filter.Pass, nil
		}
	} else if hasSuffix(tail, "\r\n") {
		header := f.currentHeader.String()
		if header == "Transfer-Encoding: chunked\r\n" {
			f.bchunked = true
		}
		if strings.HasPrefix(header, contentLengthPrefix) {
			n, err := strconv.Atoi(strings.TrimSpace(header[len(contentLengthPrefix):]))
			if err != nil {
				f.SetState(filter.Pass)
				return filter.Pass, nil
			}
			f.length = n
			if f.length > 0 {
				f.blength = true
			}
		}
		f.headers = append(f.headers, header)
		f.currentHeader.Reset()
	}

	f.SetState(filter.Waiting)
	return filter.Waiting, nil
}

func (f *Filter) writeData(c byte) (filter.State, error) {
	switch {
	case f.bchunked:
		return f.writeChunkedData(c)
	case f.blength:
		return f.writeLengthData(c)
	default:
		// 既不是 chunked 也不是定长 —— 无法判断 body 长度 只能放弃
		// 当前消息。intoData 从不会在这两者都为假时被置位 这条分支
		// 纯属防御性的。
		f.SetState(filter.Pass)
		return filter.Pass, nil
	}
}

func (f *Filter) writeChunkedData(c byte) (filter.State, error) {
	switch f.endOfChunk {
	case expectCR:
		if c != '\r' {
			f.SetState(filter.Pass)
			return filter.Pass, nil
		}
		f.endOfChunk = expectLF
	case expectLF:
		if c != '\n' {
			f.SetState(filter.Pass)
			return filter.Pass, nil
		}
		f.endOfChunk = chunkDataOrSize
	default:
		if f.chunkLength > 0 {
			f.chunkLength--
			f.data = append(f.data, c)
			if f.chunkLength == 0 {
				f.endOfChunk = expectCR
			}
		} else {
			f.chunkSizeLine.WriteByte(c)
			line := f.chunkSizeLine.String()
			if strings.HasSuffix(line, "\r\n") {
				n, err := strconv.ParseInt(strings.TrimSuffix(line, "\r\n"), 16, 64)
				if err != nil {
					f.SetState(filter.Pass)
					return filter.Pass, nil
				}
				f.chunkSizeLine.Reset()
				if n == 0 {
					f.finish = true
					f.SetState(filter.Pass)
					return filter.Pass, nil
				}
				f.chunkLength = int(n)
			}
		}
	}
	f.SetState(filter.Waiting)
	return filter.Waiting, nil
}

func (f *Filter) writeLengthData(c byte) (filter.State, error) {
	if f.length <= 0 {
		f.SetState(filter.Pass)
		return filter.Pass, nil
	}
	f.data = append(f.data, c)
	f.length--
	if f.length == 0 {
		f.finish = true
		f.SetState(filter.Pass)
		return filter.Pass, nil
	}
	f.SetState(filter.Waiting)
	return filter.Waiting, nil
}

func hasSuffix(buf []byte, suffix string) bool {
	if len(buf) < len(suffix) {
		return false
	}
	return string(buf[len(buf)-len(suffix):]) == suffix
}

func (f *Filter) Reset() {
	f.Base.Reset()
	f.pattern.Reset()
	f.requestLine.Reset()
	f.intoHeader = false
	f.headers = nil
	f.currentHeader.Reset()
	f.intoData = false
	f.blength = false
	f.length = 0
	f.bchunked = false
	f.chunkLength = 0
	f.chunkSizeLine.Reset()
	f.endOfChunk = chunkDataOrSize
	f.data = nil
	f.finish = false
}

// Read 在 Pass 态下被调用。若这是一条没有 body 的消息(从未进入
// intoData) 原样返回迄今累积的缓冲。否则把抽取出的 body 重新喂给内层
// filter 按原本的编码方式重新封装 headers 与 requestline 原样拼回。
func (f *Filter) Read() ([]byte, error) {
	if err := f.Base.Read(); err != nil {
		return nil, err
	}
	if !f.finish {
		return f.Buffered(), nil
	}

	var out []byte
	ok := true
	for _, c := range f.data {
		st, err := f.inner.Write(c)
		if err != nil {
			return nil, err
		}
		ok = st == filter.Pass
		if ok {
			chunk, err := f.inner.Read()
			if err != nil {
				return nil, err
			}
			out = append(out, chunk...)
			f.inner.Reset()
		}
	}
	if !ok {
		return nil, ErrInnerFilterBlocked
	}

	if f.bchunked {
		return f.rebuildChunked(out), nil
	}
	return f.rebuildLength(out), nil
}

func (f *Filter) rebuildChunked(body []byte) []byte {
	var b strings.Builder
	b.WriteString(f.requestLine.String())
	for _, h := range f.headers {
		b.WriteString(h)
	}
	b.WriteString("\r\n")

	j := 0
	l := len(body)
	for j < l {
		n := f.chunkSize
		if l-j < n {
			n = l - j
		}
		b.WriteString(util.IntToHex(n, false))
		b.WriteString("\r\n")
		b.Write(body[j : j+n])
		b.WriteString("\r\n")
		j += n
	}
	b.WriteString("0\r\n")
	return []byte(b.String())
}

func (f *Filter) rebuildLength(body []byte) []byte {
	for i, h := range f.headers {
		if strings.HasPrefix(h, contentLengthPrefix) {
			f.headers[i] = "Content-Length: " + strconv.Itoa(len(body)) + "\r\n"
		}
	}

	var b strings.Builder
	b.WriteString(f.requestLine.String())
	for _, h := range f.headers {
		b.WriteString(h)
	}
	b.WriteString("\r\n")
	b.Write(body)
	return []byte(b.String())
}
