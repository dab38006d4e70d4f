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
	"github.com/spf13/cobra"

	"github.com/relayd/relayd/relay"
)

var (
	serverCommand string
	serverVerbose bool
)

var serverCmd = &cobra.Command{
	Use:   "server bindhost bindport remotehost remoteport password",
	Short: "Run the covert-channel server endpoint",
	Args:  cobra.ExactArgs(5),
	Run:   runRelay(relay.RoleServer, &serverCommand, &serverVerbose),
	Example: "# relay server 0.0.0.0 8888 127.0.0.1 80 s3cr3t\n" +
		"# relay server 0.0.0.0 8888 127.0.0.1 80 s3cr3t -c /bin/sh -v",
}

func init() {
	serverCmd.Flags().StringVarP(&serverCommand, "command", "c", "", "Attach a child process to the server's plaintext side instead of the relay's own stdio")
	serverCmd.Flags().BoolVarP(&serverVerbose, "verbose", "v", false, "Verbose logging")
	rootCmd.AddCommand(serverCmd)
}
