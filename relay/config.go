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

package relay

import "time"

// Role 标识一个 Relay 实例是隐写信道的客户端端点还是服务端端点 两端
// 使用互逆的 filter 链(见 chain.go)。
type Role string

const (
	RoleClient Role = "client"
	RoleServer Role = "server"
)

// Endpoint 固定的五个位置参数 对应原型 tcpsteg 命令行的
// "bindhost bindport remotehost remoteport password"。
type Endpoint struct {
	BindHost   string
	BindPort   int
	RemoteHost string
	RemotePort int
	Password   string
}

// Config 是 --config 可覆盖的环境/调优参数 五个位置参数不在其列
// (它们的形状由命令行固定 不属于配置文件)。
type Config struct {
	// ConnIdleTimeout 单条转发连接空闲超时的配置项 0 表示不超时。
	// worker 与 endpoint 都不读取这个值 转发连接不会因空闲而被关闭。
	ConnIdleTimeout time.Duration `config:"connIdleTimeout"`

	// AcceptPollInterval 监听 socket 轮询 accept 的间隔 对应原型
	// select() 的 1 秒超时 这里用于支持优雅关闭的轮询节奏。
	AcceptPollInterval time.Duration `config:"acceptPollInterval"`

	// ChunkSize 重新分块 chunked body 时单个 chunk 的最大长度。
	ChunkSize int `config:"chunkSize"`
}

func (c Config) idleTimeout() time.Duration {
	return c.ConnIdleTimeout
}

func (c Config) pollInterval() time.Duration {
	if c.AcceptPollInterval <= 0 {
		return time.Second
	}
	return c.AcceptPollInterval
}

func (c Config) chunkSize() int {
	return c.ChunkSize
}
