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

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	var c Config
	require.Equal(t, time.Duration(0), c.idleTimeout())
	require.Equal(t, time.Second, c.pollInterval())
	require.Equal(t, 0, c.chunkSize())
}

func TestConfigOverrides(t *testing.T) {
	c := Config{
		ConnIdleTimeout:    30 * time.Second,
		AcceptPollInterval: 250 * time.Millisecond,
		ChunkSize:          4096,
	}
	require.Equal(t, 30*time.Second, c.idleTimeout())
	require.Equal(t, 250*time.Millisecond, c.pollInterval())
	require.Equal(t, 4096, c.chunkSize())
}
