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

package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relayd/relayd/relay"
)

func TestParseEndpointValid(t *testing.T) {
	ep, err := parseEndpoint([]string{"127.0.0.1", "7777", "example.com", "8888", "s3cr3t"})
	require.NoError(t, err)
	require.Equal(t, relay.Endpoint{
		BindHost:   "127.0.0.1",
		BindPort:   7777,
		RemoteHost: "example.com",
		RemotePort: 8888,
		Password:   "s3cr3t",
	}, ep)
}

func TestParseEndpointBadBindPort(t *testing.T) {
	_, err := parseEndpoint([]string{"127.0.0.1", "notaport", "example.com", "8888", "s3cr3t"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "bind port")
}

func TestParseEndpointBadRemotePort(t *testing.T) {
	_, err := parseEndpoint([]string{"127.0.0.1", "7777", "example.com", "notaport", "s3cr3t"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "remote port")
}

func TestLoadRelayConfigUsesDefaultWhenNoConfigPathGiven(t *testing.T) {
	old := configPath
	configPath = ""
	defer func() { configPath = old }()

	conf, err := loadRelayConfig()
	require.NoError(t, err)
	require.True(t, conf.Has("server"))
	require.True(t, conf.Has("relay"))
}
