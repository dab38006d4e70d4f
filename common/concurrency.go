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

import (
	"runtime"
	"time"
)

var coreNums = runtime.NumCPU()

// AdminWorkers 返回 admin/metrics server 内部轮询任务的建议并发数
func AdminWorkers() int {
	return coreNums
}

var started int64

func init() {
	started = time.Now().Unix()
}

// Started 返回进程启动时间戳 用于 uptime 指标计算
func Started() int64 {
	return started
}
