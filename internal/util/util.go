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

// Package util 收集几个在 filter 实现间共用 与 HTTP/HTML 文本格式关系
// 密切 不值得单独成包的小工具函数。
package util

// IntToHex 把非负整数编码为十六进制字符串 不带前导零(0 本身编码为 "0")
// upper 控制字母大小写 —— 用于重写 chunked 编码的块长度行时需要的
// 精确格式控制。
func IntToHex(n int, upper bool) string {
	if n == 0 {
		return "0"
	}
	digits := "0123456789abcdef"
	if upper {
		digits = "0123456789ABCDEF"
	}
	var buf [16]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = digits[n&0xF]
		n >>= 4
	}
	return string(buf[i:])
}

// IsSP 报告 c 是否是 HTTP/HTML 文本里被当作"空白"对待的字符之一:
// 空格 水平制表符 回车 换行。
func IsSP(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n':
		return true
	default:
		return false
	}
}
