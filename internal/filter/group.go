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

package filter

// SerialGroup 把多个 Filter 链接成一条流水线:每写入一个字节 这个字节
// (以及它在每一级产生的输出)依次流过每一级 filter。某一级一旦进入
// Pass 态 它的输出立刻被读出 reset 并作为下一级的输入继续推进 —— 一次
// Write 调用可能让某一级消费/产出零个 一个或多个字节 这正是
// streamfilters.py 的 SerialFilterGroup.write 的行为:每级 filter 都可能
// 改变字节的"粒度"。组的最终状态是 Pass 除非其中任意一级仍处于 Waiting。
type SerialGroup struct {
	Base
	filters []Filter
}

func NewSerialGroup(filters ...Filter) *SerialGroup {
	return &SerialGroup{filters: filters}
}

func (g *SerialGroup) Write(c byte) (State, error) {
	if err := g.CheckWritable(); err != nil {
		return g.State(), err
	}

	bufIn := []byte{c}
	for _, f := range g.filters {
		var bufOut []byte
		for _, x := range bufIn {
			st, err := f.Write(x)
			if err != nil {
				return g.State(), err
			}
			if st == Pass {
				out, err := f.Read()
				if err != nil {
					return g.State(), err
				}
				bufOut = append(bufOut, out...)
				f.Reset()
			}
		}
		bufIn = bufOut
	}

	if err := g.Append(bufIn); err != nil {
		return g.State(), err
	}

	state := Pass
	for _, f := range g.filters {
		if f.State() == Waiting {
			state = Waiting
			break
		}
	}
	g.SetState(state)
	return state, nil
}

func (g *SerialGroup) Read() ([]byte, error) {
	if err := g.Base.Read(); err != nil {
		return nil, err
	}
	return g.Buffered(), nil
}

// Reset 把本组以及其内部的每一级 filter 都恢复到 Empty 态。
func (g *SerialGroup) Reset() {
	g.Base.Reset()
	for _, f := range g.filters {
		f.Reset()
	}
}
