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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quacktool/quack/pkg/version"
)

var versionInfoCmd = &cobra.Command{
	Use:               "version-info",
	Short:             "Print build and container format version information",
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("%-14s%s\n", "Version:", version.GitVersion)
		fmt.Printf("%-14s%s\n", "Commit:", version.GitCommit)
		fmt.Printf("%-14s%s\n", "Platform:", version.Platform)
		fmt.Printf("%-14s%s\n", "BuildTime:", version.BuildTime)
		fmt.Printf("%-14s%d\n", "ContainerFmt:", version.ContainerFormat)
		return nil
	},
}
