/*
 *     Copyright 2026 The Quack Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *      http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var logLevel string

// rootCmd is the quack command: a thin CLI over pkg/quack, carrying no
// codec/merkle/diff logic of its own.
var rootCmd = &cobra.Command{
	Use:               "quack",
	Short:             "Pack and patch QPK asset bundles",
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logrus.SetLevel(level)
		logrus.SetFormatter(&logrus.TextFormatter{})
		return nil
	},
}

// Execute runs the root command. It is called exactly once, from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	if err := viper.BindPFlags(flags); err != nil {
		panic(err)
	}

	viper.SetEnvPrefix("quack")
	viper.AutomaticEnv()

	rootCmd.AddCommand(bundleCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(patchCmd)
	rootCmd.AddCommand(workspaceCmd)
	rootCmd.AddCommand(versionInfoCmd)
	rootCmd.AddCommand(buildsCmd)
}
