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

// Package httpheader 在一次 HTTP 请求/响应首部的相对顺序里隐藏比特:
// 一旦识别出请求行/状态行 后续每一条头部按原样收集 到空行为止;收集到
// 的头部集合按字典序排序后作为"基准序列" 用该序列长度的阶乘决定能隐藏
// 多少比特(floor(log2(n!))) 编码端据此把收集到的头部重新排列输出
// 解码端反过来从观察到的排列反推出这些比特。
package httpheader

import (
	"cmp"
	"sort"
	"strings"

	"github.com/relayd/relayd/internal/bitio"
	"github.com/relayd/relayd/internal/filter"
	"github.com/relayd/relayd/internal/permute"
	"github.com/relayd/relayd/internal/regex"
)

const (
	// reURI 是一个宽松的 URI 匹配式 各段都是可选的 照搬自原型对请求行
	// 里请求目标(request-target)的匹配方式 并不追求 RFC 意义上的精确。
	reURI = `(([^:/?#]+):)?(//([^/?#]*))?([^?#]*)(\?([^#]*))?(#(.*))?`

	reHTTPRequest  = `(GET|POST|PUT|DELETE|HEAD|TRACE|CONNECT|OPTIONS) ` + reURI + ` HTTP/[0-9]\.[0-9]\r\n`
	reHTTPResponse = `HTTP/[0-9]\.[0-9] [1-5][0-1][0-9] [^\r\n]*\r\n`

	// ReqRespPattern 匹配一行 HTTP 请求行或状态行 直到其结尾的 \r\n。
	ReqRespPattern = `(` + reHTTPRequest + `|` + reHTTPResponse + `)`
)

// scanner 是 FilterIn 与 FilterOut 共享的首部收集逻辑:识别请求/状态行
// 随后逐行收集头部 直到空行 此时头部按观察到的顺序收集完毕且 efficiency
// 已确定。排序留给 FilterIn 在编码时进行 FilterOut 需要观察到的原始顺序。
type scanner struct {
	filter.Base
	pattern       *regex.Pattern
	intoHeader    bool
	headers       []string
	currentHeader strings.Builder
	requestLine   strings.Builder
	efficiency    int
}

func newScanner() (scanner, error) {
	p, err := regex.Compile(ReqRespPattern)
	if err != nil {
		return scanner{}, err
	}
	return scanner{pattern: p}, nil
}

func (s *scanner) reset() {
	s.Base.Reset()
	s.pattern.Reset()
	s.intoHeader = false
	s.headers = nil
	s.currentHeader.Reset()
	s.requestLine.Reset()
	s.efficiency = 0
}

// write 实现两个方向共有的状态机 返回处理后的状态。
func (s *scanner) write(c byte) (filter.State, error) {
	if err := s.CheckWrite(c); err != nil {
		return s.State(), err
	}

	if s.intoHeader {
		s.currentHeader.WriteByte(c)
		tail := s.Buffered()
		if hasSuffix(tail, "\r\n\r\n") {
			s.efficiency = permute.Efficiency(len(s.headers))
			s.SetState(filter.Pass)
			return filter.Pass, nil
		}
		if hasSuffix(tail, "\r\n") {
			s.headers = append(s.headers, s.currentHeader.String())
			s.currentHeader.Reset()
		}
		s.SetState(filter.Waiting)
		return filter.Waiting, nil
	}

	result := s.pattern.Next(c)
	s.requestLine.WriteByte(c)
	switch result {
	case regex.Pass:
		s.SetState(filter.Waiting)
	case regex.Accept:
		s.intoHeader = true
		s.SetState(filter.Waiting)
	default:
		s.SetState(filter.Pass)
	}
	return s.State(), nil
}

func hasSuffix(buf []byte, suffix string) bool {
	if len(buf) < len(suffix) {
		return false
	}
	return string(buf[len(buf)-len(suffix):]) == suffix
}

// FilterIn 把比特编码进已收集到的头部集合的排列里。
type FilterIn struct {
	scanner
	reader bitio.BitReader
}

func NewFilterIn(reader bitio.BitReader) (*FilterIn, error) {
	s, err := newScanner()
	if err != nil {
		return nil, err
	}
	return &FilterIn{scanner: s, reader: reader}, nil
}

func (f *FilterIn) Write(c byte) (filter.State, error) { return f.write(c) }

func (f *FilterIn) Reset() { f.reset() }

func (f *FilterIn) Read() ([]byte, error) {
	if err := f.Base.Read(); err != nil {
		return nil, err
	}
	if f.efficiency == 0 {
		return f.Buffered(), nil
	}
	n := f.reader.Read(f.efficiency)
	sorted := append([]string(nil), f.headers...)
	sort.Strings(sorted)
	headers := permute.Unrank(n, sorted)
	out := f.requestLine.String()
	for _, h := range headers {
		out += h
	}
	out += "\r\n"
	return []byte(out), nil
}

// FilterOut 从观察到的头部排列里恢复之前编码的比特 随后原样转发头部
// (不需要把顺序还原成排序前的样子 —— 下游 web 服务器并不关心头部顺序)。
type FilterOut struct {
	scanner
	writer bitio.BitWriter
}

func NewFilterOut(writer bitio.BitWriter) (*FilterOut, error) {
	s, err := newScanner()
	if err != nil {
		return nil, err
	}
	return &FilterOut{scanner: s, writer: writer}, nil
}

func (f *FilterOut) Write(c byte) (filter.State, error) { return f.write(c) }

func (f *FilterOut) Reset() { f.reset() }

func (f *FilterOut) Read() ([]byte, error) {
	if err := f.Base.Read(); err != nil {
		return nil, err
	}
	if f.efficiency > 0 {
		n := permute.Rank(f.headers, cmp.Compare[string])
		f.writer.Write(n, f.efficiency)
	}
	return f.Buffered(), nil
}
