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
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quacktool/quack/pkg/quack/qpk"
)

var (
	extractOutputDir string
	extractPath      string
	extractLocale    string
	extractKey       string
)

var extractCmd = &cobra.Command{
	Use:   "extract <bundle.qpk>",
	Short: "Extract one asset, or every asset, from a bundle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExtract(args[0])
	},
}

func init() {
	flags := extractCmd.Flags()
	flags.StringVarP(&extractOutputDir, "output-dir", "o", ".", "directory assets are extracted into")
	flags.StringVar(&extractPath, "path", "", "extract only this relative_path (default: every asset)")
	flags.StringVar(&extractLocale, "locale", "", "locale to extract (default: the bundle's default_locale)")
	flags.StringVar(&extractKey, "encryption-key", "", "literal decryption key")
	if err := viper.BindPFlags(flags); err != nil {
		panic(err)
	}
}

func runExtract(bundlePath string) error {
	h, err := qpk.Open(bundlePath, qpk.OpenOptions{CipherKey: extractKey})
	if err != nil {
		return err
	}
	defer h.Close()

	m := h.Manifest()

	if extractPath != "" {
		locale := extractLocale
		if locale == "" {
			locale = m.DefaultLocale
		}
		data, err := h.Extract(extractPath, locale)
		if err != nil {
			return err
		}
		return writeExtracted(filepath.Join(extractOutputDir, extractPath), data)
	}

	for _, byPath := range m.Assets {
		for path, entry := range byPath {
			for _, locale := range entry.Locales {
				data, err := h.Extract(path, locale)
				if err != nil {
					return err
				}
				dest := filepath.Join(extractOutputDir, locale, path)
				if err := writeExtracted(dest, data); err != nil {
					return err
				}
			}
		}
	}
	fmt.Printf("extracted %d asset(s) to %s\n", m.Totals.Files, extractOutputDir)
	return nil
}

func writeExtracted(dest string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dest, data, 0o644)
}
