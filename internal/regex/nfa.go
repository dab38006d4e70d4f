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

package regex

// ndState 是 NFA 的一个状态。next2 仅在 epsilon 转移(分叉)时使用
// 普通字节转移只用 next1。id 是创建顺序编号 在子集构造中充当
// "状态集合" 的排序键 把 Python 原型里按对象内存地址排序的做法换成
// 一个确定性的整数键。mark 是 epsilon-closure 遍历用的世代标记
// 取代原型里用闭包列表自身地址当作去重标记的技巧。
type ndState struct {
	id    int64
	next1 *ndState
	next2 *ndState
	t     uint32
	mark  int64
}

// builder 在语法树编译为 NFA 片段的过程中分配状态并维护全局 id 计数器。
type builder struct {
	nextID int64
}

func (b *builder) newState(next1, next2 *ndState, t uint32) *ndState {
	b.nextID++
	return &ndState{id: b.nextID, next1: next1, next2: next2, t: t}
}

// frag 是一个 NFA 片段:init 是入口状态 final 是待连接的出口状态
// (出口状态创建时类型总是 flagFinal 稍后可能被改写为 flagEpsilon 以便拼接)。
type frag struct {
	init  *ndState
	final *ndState
}

// eclosure 计算一组状态的 epsilon-closure。gen 是本次遍历的世代标记
// 用来给经过的状态打标去重 避免重复访问。返回值里 ok 为 true 当且仅当
// 闭包中存在至少一个终结状态。
func eclosure(states []*ndState, gen int64) (closure []*ndState, ok bool) {
	l := append([]*ndState(nil), states...)
	for i := 0; i < len(l); i++ {
		s := l[i]
		switch {
		case s.t&flagFinal != 0:
			ok = true
		case s.t&flagEpsilon != 0:
			if s.next1 != nil && s.next1.mark != gen {
				s.next1.mark = gen
				l = append(l, s.next1)
			}
			if s.next2 != nil && s.next2.mark != gen {
				s.next2.mark = gen
				l = append(l, s.next2)
			}
		}
	}
	return l, ok
}
