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
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quacktool/quack/pkg/quack/asset"
	"github.com/quacktool/quack/pkg/quack/buildlog"
	"github.com/quacktool/quack/pkg/quack/cipher"
	"github.com/quacktool/quack/pkg/quack/codec"
	"github.com/quacktool/quack/pkg/quack/diff"
	"github.com/quacktool/quack/pkg/quack/manifest"
	"github.com/quacktool/quack/pkg/quack/patch"
	"github.com/quacktool/quack/pkg/quack/qpk"
	"github.com/quacktool/quack/pkg/quack/quackerr"

	"github.com/quacktool/quack/pkg/config"
)

var patchConfig = config.NewPatch()
var patchBundleDir string

var patchCmd = &cobra.Command{
	Use:   "patch",
	Short: "Create, list, and validate differential patches between bundle builds",
}

var patchCreateCmd = &cobra.Command{
	Use:   "create <bundle-name>",
	Short: "Build a patch bundle covering the changes between two recorded versions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		patchConfig.BundleName = args[0]
		if err := patchConfig.Validate(); err != nil {
			return err
		}
		return runPatchCreate(context.Background())
	},
}

var patchListCmd = &cobra.Command{
	Use:   "list <bundle-name>",
	Short: "List the versions a bundle has recorded, in patch order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPatchList(args[0])
	},
}

var patchValidateCmd = &cobra.Command{
	Use:   "validate <patch.qpk>",
	Short: "Open a patch bundle and report its metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPatchValidate(args[0])
	},
}

func init() {
	createFlags := patchCreateCmd.Flags()
	createFlags.StringVar(&patchConfig.FromVersion, "from", "", "source bundle_version")
	createFlags.StringVar(&patchConfig.ToVersion, "to", "", "target bundle_version")
	createFlags.StringVarP(&patchConfig.Output, "output", "o", "", "output patch path")
	createFlags.StringVar(&patchConfig.Compression.Algo, "compression-algo", "lzma", "compression algorithm (none, deflate, lzma)")
	createFlags.IntVar(&patchConfig.Compression.Level, "compression-level", 6, "compression level (0-9)")
	createFlags.BoolVar(&patchConfig.Encryption.Enabled, "encrypt", false, "enable payload encryption")
	createFlags.StringVar(&patchConfig.Encryption.Algo, "encryption-algo", "xor", "encryption algorithm (none, xor, plugin)")
	createFlags.StringVar(&patchConfig.Encryption.Key, "encryption-key", "", "literal encryption key")
	createFlags.StringVar(&patchBundleDir, "bundle-dir", ".", "output root holding the bundle's build logs")
	if err := viper.BindPFlags(createFlags); err != nil {
		panic(err)
	}

	listFlags := patchListCmd.Flags()
	listFlags.StringVar(&patchBundleDir, "bundle-dir", ".", "output root holding the bundle's build logs")
	if err := viper.BindPFlags(listFlags); err != nil {
		panic(err)
	}

	patchCmd.AddCommand(patchCreateCmd, patchListCmd, patchValidateCmd)
}

func runPatchCreate(ctx context.Context) error {
	result, d, err := createPatch(ctx, patchBundleDir, patchConfig)
	if err != nil {
		return err
	}

	fmt.Printf("created patch %s (%d change(s), %s -> %s, merkle_root=%s)\n",
		patchConfig.Output, d.ChangeCount(), patchConfig.FromVersion, patchConfig.ToVersion, result.Manifest.MerkleRoot)
	return nil
}

// createPatch builds one patch bundle from a bundleDir's recorded build
// logs, shared by the standalone patch create verb and the workspace
// verb's per-bundle loop.
func createPatch(ctx context.Context, bundleDir string, pc *config.Patch) (*qpk.BuildResult, diff.Diff, error) {
	store := buildlog.NewStore(bundleDir)
	fromLog, err := store.GetByVersion(pc.BundleName, pc.FromVersion)
	if err != nil {
		return nil, diff.Diff{}, err
	}
	toLog, err := store.GetByVersion(pc.BundleName, pc.ToVersion)
	if err != nil {
		return nil, diff.Diff{}, err
	}

	d := diff.Compute(fromLog, toLog)

	h, err := qpk.Open(toLog.BundlePath, qpk.OpenOptions{})
	if err != nil {
		return nil, diff.Diff{}, err
	}
	defer h.Close()
	toManifest := h.Manifest()

	touched := make(map[string]struct{}, len(d.Added)+len(d.Modified))
	for _, p := range d.Added {
		touched[p] = struct{}{}
	}
	for _, m := range d.Modified {
		touched[m.RelativePath] = struct{}{}
	}

	var newAssets []asset.Asset
	for path := range touched {
		entry, ok := findAssetEntry(toManifest, path)
		if !ok {
			return nil, diff.Diff{}, quackerr.Validationf("path %q from diff is missing in target manifest %s", path, pc.ToVersion)
		}
		locale := asset.DefaultLocale
		if len(entry.Locales) > 0 {
			locale = entry.Locales[0]
		}
		data, err := h.Extract(path, locale)
		if err != nil {
			return nil, diff.Diff{}, err
		}
		newAssets = append(newAssets, asset.Asset{
			RelativePath: entry.RelativePath,
			Type:         entry.Type,
			SubType:      entry.SubType,
			Locales:      entry.Locales,
			Size:         entry.Size,
			ContentHash:  entry.ContentHash,
			MTime:        entry.MTime,
			Version:      entry.Version,
			MediaTag:     entry.MediaTag,
			Bytes:        data,
		})
	}

	compAlgo, err := codec.ParseAlgo(pc.Compression.Algo)
	if err != nil {
		return nil, diff.Diff{}, err
	}
	cipherAlgo, err := cipher.ParseAlgo(pc.Encryption.Algo)
	if err != nil {
		return nil, diff.Diff{}, err
	}
	if !pc.Encryption.Enabled {
		cipherAlgo = cipher.None
	}
	producer, err := cipher.NewProducer(cipherAlgo, pc.Encryption.Key, nil)
	if err != nil {
		return nil, diff.Diff{}, err
	}

	result, err := patch.NewWriter().Write(ctx, pc.Output, patch.BuildInput{
		Diff:             d,
		OldLocalesByPath: localesByPath(fromLog),
		NewLocalesByPath: localesByPath(toLog),
		NewAssets:        newAssets,
		FromVersion:      pc.FromVersion,
		ToVersion:        pc.ToVersion,
		FromMerkleRoot:   fromLog.MerkleRoot,
		ToMerkleRoot:     toLog.MerkleRoot,
		ManifestOptions: manifest.Options{
			Name:          pc.BundleName,
			BundleVersion: pc.ToVersion,
			BuildID:       buildlog.NewBuildID(),
			CreatedAt:     time.Now().UTC(),
			FormatTag:     config.FormatQPK,
			Compression:   manifest.Compression{Algo: pc.Compression.Algo, Level: pc.Compression.Level},
			Encryption:    manifest.Encryption{Enabled: pc.Encryption.Enabled, Algo: pc.Encryption.Algo},
		},
		CompressionAlgo:  compAlgo,
		CompressionLevel: pc.Compression.Level,
		CipherAlgo:       cipherAlgo,
		Cipher:           producer,
		BundleName:       pc.BundleName,
	})
	if err != nil {
		return nil, diff.Diff{}, err
	}

	return result, d, nil
}

func runPatchList(bundleName string) error {
	store := buildlog.NewStore(patchBundleDir)
	logs, err := store.List(bundleName)
	if err != nil {
		return err
	}
	sort.Slice(logs, func(i, j int) bool { return logs[i].CreatedAt.Before(logs[j].CreatedAt) })
	for _, l := range logs {
		fmt.Printf("%s  build_id=%s  created=%s  files=%d\n", l.BundleVersion, l.BuildID, l.CreatedAt.Format(time.RFC3339), l.Totals.Files)
	}
	return nil
}

func runPatchValidate(patchPath string) error {
	h, err := patch.Open(patchPath, qpk.OpenOptions{})
	if err != nil {
		return err
	}
	defer h.Close()

	p := h.Patch()
	fmt.Printf("patch %s -> %s  merkle_root %s -> %s  operations=%d\n",
		p.FromVersion, p.ToVersion, p.FromMerkleRoot, p.ToMerkleRoot, len(p.Operations))
	return nil
}

func localesByPath(log *buildlog.Log) map[string][]string {
	out := make(map[string][]string, len(log.Assets))
	for path, rec := range log.Assets {
		out[path] = rec.Locales
	}
	return out
}

func findAssetEntry(m *manifest.Manifest, path string) (manifest.AssetEntry, bool) {
	for _, byPath := range m.Assets {
		if entry, ok := byPath[path]; ok {
			return entry, true
		}
	}
	return manifest.AssetEntry{}, false
}
