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

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/quacktool/quack/pkg/quack/qpk"
)

var listCmd = &cobra.Command{
	Use:   "list <bundle.qpk>",
	Short: "List every asset a bundle carries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runList(args[0])
	},
}

func runList(bundlePath string) error {
	h, err := qpk.Open(bundlePath, qpk.OpenOptions{})
	if err != nil {
		return err
	}
	defer h.Close()

	m := h.Manifest()
	fmt.Printf("%s  version=%s  build_id=%s  merkle_root=%s\n", m.Name, m.BundleVersion, m.BuildID, m.MerkleRoot)

	type row struct {
		path, locale string
		size         int64
	}
	var rows []row
	for _, byPath := range m.Assets {
		for path, entry := range byPath {
			for _, locale := range entry.Locales {
				rows = append(rows, row{path: path, locale: locale, size: entry.Size})
			}
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].path != rows[j].path {
			return rows[i].path < rows[j].path
		}
		return rows[i].locale < rows[j].locale
	})

	for _, r := range rows {
		fmt.Printf("  %-10s %-48s %s\n", r.locale, r.path, humanize.Bytes(uint64(r.size)))
	}
	fmt.Printf("%d file(s), %s total\n", m.Totals.Files, humanize.Bytes(uint64(m.Totals.Size)))
	return nil
}
