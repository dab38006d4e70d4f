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

package common

const (
	// App 应用程序名称
	App = "relayd"

	// Version 应用程序版本
	Version = "v0.1.0"

	// ReadBlockSize 每次从 socket 读取的字节数
	//
	// 隐写编解码是逐字节驱动的 读取粒度只影响系统调用次数 不影响正确性
	ReadBlockSize = 4096

	// MaxFilterBuffer 单个 filter 允许累积的最大字节数
	//
	// 防御性上限 避免畸形报文让 filter buffer 无限增长
	MaxFilterBuffer = 1 << 20 // ~1 MiB

	// DefaultChunkSize 重新分块时单个 chunk 的默认最大长度
	DefaultChunkSize = 65535
)
