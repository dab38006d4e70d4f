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

// Package regex 实现一个逐字节驱动的增量正则引擎:每喂入一个字节就得到
// PASS/ACCEPT/FAIL 三态结果之一 永不整体缓冲整段输入。匹配通过"惰性"
// 子集构造在线生成 DFA —— NFA 常驻 只在某个 DFA 状态第一次需要某条
// 字节转移时才计算并缓存对应的后继状态。
package regex

// token 把"要匹配什么"编码进一个 32 位整数的位域:
// 低 8 位是字面字节值 高位标志位区分特殊转移类型。
const (
	byteMask    = 0x000000FF
	flagAny     = 0x00000100
	flagFinal   = 0x00000200
	flagEpsilon = 0x00000400
)

// Result 是向状态机喂入一个字节后得到的结果。
type Result int

const (
	// Pass 表示该字节被接受 但尚未构成一个完整匹配。
	Pass Result = iota
	// Fail 表示该字节不被任何转移接受;状态机锁定在失败态直到 Reset。
	Fail
	// Accept 表示该字节使状态机进入一个终结状态 构成一次完整匹配。
	Accept
)

func (r Result) String() string {
	switch r {
	case Pass:
		return "PASS"
	case Accept:
		return "ACCEPT"
	default:
		return "FAIL"
	}
}
