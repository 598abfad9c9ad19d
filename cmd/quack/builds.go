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
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quacktool/quack/pkg/quack/buildlog"
)

var buildsOutRoot string

var buildsCmd = &cobra.Command{
	Use:   "builds <bundle-name>",
	Short: "List the recorded build log history for a bundle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBuilds(args[0])
	},
}

func init() {
	flags := buildsCmd.Flags()
	flags.StringVar(&buildsOutRoot, "output-root", ".", "output root holding the .quack build log directory")
	if err := viper.BindPFlags(flags); err != nil {
		panic(err)
	}
}

func runBuilds(bundleName string) error {
	store := buildlog.NewStore(buildsOutRoot)
	logs, err := store.List(bundleName)
	if err != nil {
		return err
	}
	sort.Slice(logs, func(i, j int) bool { return logs[i].CreatedAt.Before(logs[j].CreatedAt) })

	for _, l := range logs {
		fmt.Printf("%-12s build_id=%-36s created=%-20s files=%-5d size=%s\n",
			l.BundleVersion, l.BuildID, l.CreatedAt.Format(time.RFC3339), l.Totals.Files, humanize.Bytes(uint64(l.Totals.Size)))
	}
	fmt.Printf("%d build(s)\n", len(logs))
	return nil
}
