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

// Null 是一个总是立即 Pass 且不做任何改写的终端 filter 对应
// streamfilters.py 的 NullTerminalFilter。主要用于测试 SerialGroup 的
// 级联行为 以及在配置里临时禁用某一级处理而不改变管线形状。
type Null struct {
	Base
}

func NewNull() *Null { return &Null{} }

func (n *Null) Write(c byte) (State, error) {
	if err := n.CheckWrite(c); err != nil {
		return n.State(), err
	}
	n.SetState(Pass)
	return Pass, nil
}

func (n *Null) Read() ([]byte, error) {
	if err := n.Base.Read(); err != nil {
		return nil, err
	}
	return n.Buffered(), nil
}
