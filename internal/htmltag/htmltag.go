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

// Package htmltag 把比特隐藏进一个 HTML/XML 标签里属性的相对顺序
// 与 httpheader 用的是同一套排列编码思想 只是基准序列换成了某个标签
// 的属性列表而不是头部行。编码端(FilterIn)与解码端(FilterOut)对
// 属性列表的整理方式并不对称 这份不对称照搬自原型 customfilters.py:
// FilterIn 会排序并去重属性列表再计算排列空间 FilterOut 则直接使用
// 解析出的原始顺序(可能含重复项) 不排序也不去重。
package htmltag

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
	reSP    = `([\n\r\t ]+)`
	reEQ    = reSP + `?=` + reSP + `?`
	reName  = `[A-Za-z0-9:_][A-Za-z0-9._:-]*`
	reRef   = `&(#[0-9]+|` + reName + `);`
	reValue = `("([^<&"]|` + reRef + `)*"|'([^<&']|` + reRef + `)*')`

	// TagPattern 匹配一个完整的 HTML/XML 起始标签 从 '<' 到它的 '>'。
	TagPattern = `<` + reName + `(` + reSP + reName + reEQ + reValue + `)*` + reSP + `?/?>`
)

var spaceBytes = [256]bool{'\n': true, '\r': true, '\t': true, ' ': true}

// ExtractTag 把一个已经匹配到的标签文本拆解成属性列表 标签开始标记
// (例如 "<div")与标签结束标记(例如 "/>")。直接对应 tools.py 的
// XMLTagExtract:一个识别 属性值用引号包裹、且引号内允许任意字符
// (包括空白)的小型字符状态机。
func ExtractTag(s string) (attrs []string, start, end string) {
	var inVal1, inVal2, inTag, inSep bool
	var current strings.Builder

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inVal1:
			current.WriteByte(c)
			if c == '\'' {
				inTag, inVal1, inVal2 = false, false, false
				attrs = append(attrs, current.String())
				current.Reset()
			}
		case inVal2:
			current.WriteByte(c)
			if c == '"' {
				inTag, inVal1, inVal2 = false, false, false
				attrs = append(attrs, current.String())
				current.Reset()
			}
		case inTag:
			current.WriteByte(c)
			if c == '\'' {
				inVal1 = true
			}
			if c == '"' {
				inVal2 = true
			}
		case inSep:
			if !spaceBytes[c] {
				current.WriteByte(c)
				inTag = true
			}
		case spaceBytes[c]:
			inSep = true
			start = current.String()
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}
	end = current.String()
	return attrs, start, end
}

func sortedDedup(attrs []string) []string {
	out := make([]string, 0, len(attrs))
	sorted := append([]string(nil), attrs...)
	sort.Strings(sorted)
	var prev string
	have := false
	for _, a := range sorted {
		if !have || prev != a {
			out = append(out, a)
			prev = a
			have = true
		}
	}
	return out
}

// scanner 是 FilterIn/FilterOut 共有的标签匹配骨架;真正的属性整理方式
// (排序去重与否)留给各自的 write 完成 因为这正是二者唯一的差异所在。
type scanner struct {
	filter.Base
	pattern    *regex.Pattern
	attribs    []string
	start, end string
	efficiency int
}

func newScanner() (scanner, error) {
	p, err := regex.Compile(TagPattern)
	if err != nil {
		return scanner{}, err
	}
	return scanner{pattern: p}, nil
}

func (s *scanner) reset() {
	s.Base.Reset()
	s.pattern.Reset()
	s.attribs = nil
	s.start, s.end = "", ""
	s.efficiency = 0
}

// FilterIn 编码端:匹配到一个完整标签后 把它的属性列表排序去重 以此
// 决定可隐藏的比特数 随后按解码出的秩重排属性输出。
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

func (f *FilterIn) Write(c byte) (filter.State, error) {
	if err := f.CheckWrite(c); err != nil {
		return f.State(), err
	}

	switch f.pattern.Next(c) {
	case regex.Pass:
		f.SetState(filter.Waiting)
	case regex.Accept:
		attrs, start, end := ExtractTag(string(f.Buffered()))
		f.start, f.end = start, end
		if len(attrs) > 0 {
			f.attribs = sortedDedup(attrs)
			f.efficiency = permute.Efficiency(len(f.attribs))
		}
		f.SetState(filter.Pass)
	default:
		f.SetState(filter.Pass)
	}
	return f.State(), nil
}

func (f *FilterIn) Reset() { f.reset() }

func (f *FilterIn) Read() ([]byte, error) {
	if err := f.Base.Read(); err != nil {
		return nil, err
	}
	if f.efficiency == 0 {
		return f.Buffered(), nil
	}
	n := f.reader.Read(f.efficiency)
	attrs := permute.Unrank(n, f.attribs)
	return []byte(f.start + " " + strings.Join(attrs, " ") + " " + f.end), nil
}

// FilterOut 解码端:使用解析出的原始(未排序 未去重)属性顺序来恢复
// 秩 随后原样转发标签 —— 下游渲染标签不关心属性顺序。
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

func (f *FilterOut) Write(c byte) (filter.State, error) {
	if err := f.CheckWrite(c); err != nil {
		return f.State(), err
	}

	switch f.pattern.Next(c) {
	case regex.Pass:
		f.SetState(filter.Waiting)
	case regex.Accept:
		attrs, start, end := ExtractTag(string(f.Buffered()))
		f.start, f.end = start, end
		f.attribs = attrs
		if len(f.attribs) > 0 {
			f.efficiency = permute.Efficiency(len(f.attribs))
		}
		f.SetState(filter.Pass)
	default:
		f.SetState(filter.Pass)
	}
	return f.State(), nil
}

func (f *FilterOut) Reset() { f.reset() }

func (f *FilterOut) Read() ([]byte, error) {
	if err := f.Base.Read(); err != nil {
		return nil, err
	}
	if f.efficiency > 0 {
		n := permute.Rank(f.attribs, cmp.Compare[string])
		f.writer.Write(n, f.efficiency)
	}
	return f.Buffered(), nil
}
