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
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// bundleFile is the on-disk shape of the single-bundle skeleton that
// `init` writes. The `bundle` verb does not read this file; it takes its
// options from flags and its source directory from an argument.
type bundleFile struct {
	Name          string   `json:"name"`
	Source        string   `json:"source"`
	Output        string   `json:"output"`
	Format        string   `json:"format,omitempty"`
	DefaultLocale string   `json:"default_locale,omitempty"`
	Ignore        []string `json:"ignore,omitempty"`
	Compression   struct {
		Algo  string `json:"algo,omitempty"`
		Level int    `json:"level,omitempty"`
	} `json:"compression,omitempty"`
	Versioning struct {
		Strategy      string `json:"strategy,omitempty"`
		BundleVersion string `json:"bundle_version,omitempty"`
	} `json:"versioning,omitempty"`
}

var initCmd = &cobra.Command{
	Use:   "init <bundle-file>",
	Short: "Write a skeleton single-bundle configuration file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit(args[0])
	},
}

func runInit(path string) error {
	skeleton := bundleFile{
		Name:   "my-bundle",
		Source: "assets",
		Output: "dist/my-bundle.qpk",
		Format: "qpk",
	}
	skeleton.Compression.Algo = "lzma"
	skeleton.Compression.Level = 6
	skeleton.Versioning.Strategy = "manual"
	skeleton.Versioning.BundleVersion = "0.1.0"

	data, err := json.MarshalIndent(skeleton, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing bundle file %s: %w", path, err)
	}
	fmt.Printf("wrote bundle definition to %s\n", path)
	return nil
}
