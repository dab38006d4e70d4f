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
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/relayd/relayd/common"
	"github.com/relayd/relayd/confengine"
	"github.com/relayd/relayd/internal/sigs"
	"github.com/relayd/relayd/relay"
)

// defaultConfigYaml is used when --config is not given: a logger that
// writes to stdout, and empty (disabled) server/relay sections, matching
// the teacher's own pattern of building a minimal in-memory config for
// flag-driven subcommands.
const defaultConfigYaml = "logger:\n  stdout: true\nserver:\nrelay:\n"

var (
	clientCommand string
	clientVerbose bool
)

var clientCmd = &cobra.Command{
	Use:   "client bindhost bindport remotehost remoteport password",
	Short: "Run the covert-channel client endpoint",
	Args:  cobra.ExactArgs(5),
	Run:   runRelay(relay.RoleClient, &clientCommand, &clientVerbose),
	Example: "# relay client 127.0.0.1 7777 example.com 8888 s3cr3t\n" +
		"# relay client 127.0.0.1 7777 example.com 8888 s3cr3t -c /bin/sh -v",
}

func init() {
	clientCmd.Flags().StringVarP(&clientCommand, "command", "c", "", "Attach a child process to the client's plaintext side instead of the relay's own stdio")
	clientCmd.Flags().BoolVarP(&clientVerbose, "verbose", "v", false, "Verbose logging")
	rootCmd.AddCommand(clientCmd)
}

func parseEndpoint(args []string) (relay.Endpoint, error) {
	bindport, err := strconv.Atoi(args[1])
	if err != nil {
		return relay.Endpoint{}, fmt.Errorf("bad bind port format: %q", args[1])
	}
	remoteport, err := strconv.Atoi(args[3])
	if err != nil {
		return relay.Endpoint{}, fmt.Errorf("bad remote port format: %q", args[3])
	}
	return relay.Endpoint{
		BindHost:   args[0],
		BindPort:   bindport,
		RemoteHost: args[2],
		RemotePort: remoteport,
		Password:   args[4],
	}, nil
}

func loadRelayConfig() (*confengine.Config, error) {
	if configPath != "" {
		return confengine.LoadConfigPath(configPath)
	}
	return confengine.LoadContent([]byte(defaultConfigYaml))
}

// runRelay builds the Run function shared by the client and server
// subcommands: parse positional args, load config, construct and start a
// relay.Relay for role, then block until a termination signal arrives.
func runRelay(role relay.Role, command *string, verbose *bool) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		endpoint, err := parseEndpoint(args)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		conf, err := loadRelayConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}

		buildInfo := common.BuildInfo{Version: version, GitHash: gitHash, Time: buildTime}
		r, err := relay.New(conf, role, endpoint, *command, *verbose, buildInfo)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create relay: %v\n", err)
			os.Exit(2)
		}
		if err := r.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to start relay: %v\n", err)
			os.Exit(2)
		}

		for {
			select {
			case <-sigs.Terminate():
				if err := r.Stop(); err != nil {
					fmt.Fprintf(os.Stderr, "error during shutdown: %v\n", err)
				}
				return

			case <-sigs.Reload():
				if err := r.Reload(conf); err != nil {
					fmt.Fprintf(os.Stderr, "failed to reload: %v\n", err)
				}
			}
		}
	}
}
