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

// Package hosthdr 重写 HTTP 请求里的 Host 首部 让转发给真实源站的请求
// 携带源站自己的主机名 而不是客户端原本以为在连接的那个隐写封面域名。
package hosthdr

import (
	"github.com/relayd/relayd/internal/filter"
	"github.com/relayd/relayd/internal/regex"
)

// Pattern 匹配一整条 "Host: ...\r\n" 首部行。
const Pattern = `Host: [^\r\n]+\r\n`

// Changer 是一个 filter:匹配到 Host 首部就用配置的新主机名替换它的值
// 匹配失败(不是一条 Host 行)时原样转发 未匹配完成前保持 Waiting。
type Changer struct {
	filter.Base
	pattern *regex.Pattern
	host    string
	found   bool
}

func NewChanger(host string) (*Changer, error) {
	p, err := regex.Compile(Pattern)
	if err != nil {
		return nil, err
	}
	return &Changer{pattern: p, host: host}, nil
}

func (c *Changer) Write(b byte) (filter.State, error) {
	if err := c.CheckWrite(b); err != nil {
		return c.State(), err
	}

	switch c.pattern.Next(b) {
	case regex.Accept:
		c.found = true
		c.SetState(filter.Pass)
	case regex.Fail:
		c.SetState(filter.Pass)
	default:
		c.SetState(filter.Waiting)
	}
	return c.State(), nil
}

func (c *Changer) Read() ([]byte, error) {
	if err := c.Base.Read(); err != nil {
		return nil, err
	}
	if c.found {
		return []byte("Host: " + c.host + "\r\n"), nil
	}
	return c.Buffered(), nil
}

func (c *Changer) Reset() {
	c.Base.Reset()
	c.pattern.Reset()
	c.found = false
}
