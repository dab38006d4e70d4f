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

// Package cmd wires the relay's cobra command surface: client and server
// subcommands for the two covert-channel roles, plus a version
// subcommand, grounded on the teacher's agent/log/watch cobra commands
// (Use/Short/Run/Example, Flags() bound in init(), rootCmd.AddCommand).
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version/gitHash/buildTime are injected at build time via -ldflags,
// following the teacher's common.BuildInfo convention.
var (
	version   = "dev"
	gitHash   = "none"
	buildTime = "unknown"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "relay",
	Short: "relay hides a covert byte stream inside the structural ordering of HTTP/HTML cover traffic",
	Long: "relay is a two-socket TCP relay that steganographically hides an arbitrary byte " +
		"stream inside the relative ordering of HTTP header lines and HTML tag attributes " +
		"of the cover traffic it forwards between a client and a server.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Optional configuration file path (logger, admin server, relay tuning)")
}

// Execute runs the root command, exiting the process with a nonzero code
// on any command error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
