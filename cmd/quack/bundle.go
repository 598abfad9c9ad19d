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
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quacktool/quack/pkg/quack"
	"github.com/quacktool/quack/pkg/quack/buildlog"
	"github.com/quacktool/quack/pkg/quack/cipher"
	"github.com/quacktool/quack/pkg/quack/codec"
	"github.com/quacktool/quack/pkg/quack/manifest"
	"github.com/quacktool/quack/pkg/quack/message"
	"github.com/quacktool/quack/pkg/quack/plugin"
	"github.com/quacktool/quack/pkg/quack/qpk"
	"github.com/quacktool/quack/pkg/quack/workspace"
	"github.com/quacktool/quack/pkg/quack/zipbundle"

	"github.com/quacktool/quack/internal/fsdiscoverer"
	"github.com/quacktool/quack/pkg/config"
)

var bundleConfig = config.NewBundle()
var bundleName string

var bundleCmd = &cobra.Command{
	Use:   "bundle <source-dir>",
	Short: "Build a QPK bundle from a source asset tree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bundleConfig.Source = args[0]
		if err := bundleConfig.Validate(); err != nil {
			return err
		}
		return runBundle(context.Background())
	},
}

func init() {
	flags := bundleCmd.Flags()
	flags.StringVarP(&bundleConfig.Output, "output", "o", "", "output bundle path")
	flags.StringVar(&bundleConfig.Format, "format", config.FormatQPK, "bundle format (qpk, zip, auto)")
	flags.StringVar(&bundleConfig.Compression.Algo, "compression-algo", "lzma", "compression algorithm (none, deflate, lzma)")
	flags.IntVar(&bundleConfig.Compression.Level, "compression-level", 6, "compression level (0-9)")
	flags.BoolVar(&bundleConfig.Encryption.Enabled, "encrypt", false, "enable payload encryption")
	flags.StringVar(&bundleConfig.Encryption.Algo, "encryption-algo", "xor", "encryption algorithm (none, xor, plugin)")
	flags.StringVar(&bundleConfig.Encryption.Key, "encryption-key", "", "literal encryption key")
	flags.StringVar(&bundleConfig.Versioning.Strategy, "versioning-strategy", config.VersioningManual, "versioning strategy (auto, manual)")
	flags.StringVar(&bundleConfig.Versioning.BundleVersion, "bundle-version", "", "bundle_version (semver)")
	flags.StringSliceVar(&bundleConfig.Ignore, "ignore", nil, "glob patterns excluded from discovery")
	flags.StringVar(&bundleConfig.DefaultLocale, "default-locale", "", "locale assigned to assets that omit one")
	flags.StringVar(&bundleName, "name", "", "bundle name recorded in the build log / workspace index")

	if err := viper.BindPFlags(flags); err != nil {
		panic(err)
	}
}

func runBundle(ctx context.Context) error {
	outputPath, buildCtx, version, result, err := buildBundle(ctx, bundleName, bundleConfig)
	if err != nil {
		return err
	}

	fmt.Printf("built %s (version=%s build_id=%s files=%d merkle_root=%s)\n",
		outputPath, version, buildCtx.BuildID, result.Manifest.Totals.Files, result.Manifest.MerkleRoot)
	return nil
}

// buildBundle discovers, builds, and records one bundle. It is shared by
// the standalone bundle verb and the workspace verb's per-bundle loop.
func buildBundle(ctx context.Context, name string, bc *config.Bundle) (string, *quack.BuildContext, string, *qpk.BuildResult, error) {
	log := logrus.WithField("component", "bundle").WithField("bundle", name)

	discoverer := fsdiscoverer.New()
	assets, err := discoverer.Discover(ctx, bc.Source, bc.Ignore)
	if err != nil {
		return "", nil, "", nil, err
	}
	if len(assets) == 0 {
		return "", nil, "", nil, fmt.Errorf("no assets discovered under %s", bc.Source)
	}

	outputPath := bc.Output
	switch bc.Format {
	case config.FormatZip:
		if filepath.Ext(outputPath) != ".zip" {
			outputPath += ".zip"
		}
	default:
		if filepath.Ext(outputPath) != ".qpk" {
			outputPath += ".qpk"
		}
	}
	outRoot := filepath.Dir(outputPath)

	version := bc.Versioning.BundleVersion
	if bc.Versioning.Strategy == config.VersioningAuto {
		version, err = nextAutoVersion(outRoot, name)
		if err != nil {
			return "", nil, "", nil, err
		}
	}

	buildCtx, err := quack.NewBuildContext(bc.Encryption.Key, nil, 0)
	if err != nil {
		return "", nil, "", nil, err
	}

	compAlgo, err := codec.ParseAlgo(bc.Compression.Algo)
	if err != nil {
		return "", nil, "", nil, err
	}
	cipherAlgo, err := cipher.ParseAlgo(bc.Encryption.Algo)
	if err != nil {
		return "", nil, "", nil, err
	}
	if !bc.Encryption.Enabled {
		cipherAlgo = cipher.None
	}
	var cipherPlugin cipher.Cipher
	if cipherAlgo == cipher.Plugin {
		registry, err := pluginRegistry(bc.Plugins)
		if err != nil {
			return "", nil, "", nil, err
		}
		if impl, ok := registry.Lookup(plugin.CapabilityCipher, bc.Encryption.Plugin); ok {
			cipherPlugin, _ = impl.(cipher.Cipher)
		}
	}
	producer, err := cipher.NewProducer(cipherAlgo, buildCtx.EncryptionKey, cipherPlugin)
	if err != nil {
		return "", nil, "", nil, err
	}

	bus := message.NewBus(8)
	defer bus.Close()
	go drainBuildEvents(log, bus)

	bus.Emit(message.Message{Kind: message.KindBundleLoading, BundleName: name, BundleVersion: version})

	input := qpk.BuildInput{
		Assets: assets,
		ManifestOptions: manifest.Options{
			Name:          name,
			BundleVersion: version,
			BuildID:       buildCtx.BuildID,
			CreatedAt:     time.Now().UTC(),
			FormatTag:     bc.Format,
			Compression:   manifest.Compression{Algo: bc.Compression.Algo, Level: bc.Compression.Level},
			Encryption:    manifest.Encryption{Enabled: bc.Encryption.Enabled, Algo: bc.Encryption.Algo},
			DefaultLocale: bc.DefaultLocale,
			EstimatePerf:  true,
			Ignore:        bc.Ignore,
		},
		CompressionAlgo:  compAlgo,
		CompressionLevel: bc.Compression.Level,
		CipherAlgo:       cipherAlgo,
		Cipher:           producer,
		BundleName:       name,
	}

	var result *qpk.BuildResult
	if bc.Format == config.FormatZip {
		result, err = zipbundle.Write(ctx, outputPath, input)
	} else {
		result, err = qpk.NewWriter(log).Write(ctx, outputPath, input)
	}
	if err != nil {
		bus.Emit(message.Message{Kind: message.KindBundleError, BundleName: name, BundleVersion: version, Err: err})
		return "", nil, "", nil, err
	}
	bus.Emit(message.Message{Kind: message.KindBundleLoaded, BundleName: name, BundleVersion: version})

	if err := recordBuild(name, version, buildCtx.BuildID, outputPath, result); err != nil {
		return "", nil, "", nil, err
	}

	return outputPath, buildCtx, version, result, nil
}

// recordBuild appends the build log and advances the workspace index, in
// that order, strictly after the bundle rename (§4 "Ordering").
func recordBuild(name, version, buildID, outputPath string, result *qpk.BuildResult) error {
	outRoot := filepath.Dir(outputPath)

	assetRecords := make(map[string]buildlog.AssetRecord)
	for _, byPath := range result.Manifest.Assets {
		for path, entry := range byPath {
			assetRecords[path] = buildlog.AssetRecord{
				Hash:    entry.ContentHash,
				Size:    entry.Size,
				Version: entry.Version,
				MTime:   entry.MTime,
				Locales: entry.Locales,
			}
		}
	}

	log := &buildlog.Log{
		BundleName:    name,
		BundleVersion: version,
		BuildID:       buildID,
		CreatedAt:     time.Now().UTC(),
		BundlePath:    outputPath,
		BundleHash:    result.BundleHash,
		Totals:        buildlog.Totals{Files: result.Manifest.Totals.Files, Size: result.Manifest.Totals.Size},
		Assets:        assetRecords,
		MerkleLevels:  result.MerkleTree.Levels,
		MerkleRoot:    result.MerkleTree.Root,
	}

	if err := buildlog.NewStore(outRoot).Append(log); err != nil {
		return err
	}

	store, err := workspace.NewStore(outRoot)
	if err != nil {
		return err
	}
	_, err = store.Update(context.Background(), name, workspace.RecordBuild(name, version, buildID, result.BundleHash, outputPath, time.Now().UTC()))
	return err
}

// drainBuildEvents logs every message a build emits until the bus closes,
// the consumer side of the §9 "Event-based host API -> message passing"
// channel.
func drainBuildEvents(log *logrus.Entry, bus *message.Bus) {
	for msg := range bus.Messages() {
		entry := log.WithField("event", msg.Kind)
		if msg.Err != nil {
			entry.WithError(msg.Err).Warn("build event")
			continue
		}
		entry.Debug("build event")
	}
}

// pluginRegistry resolves the capability registry a build consults for
// encryption.algo=plugin (§9 "Plugin registry -> trait objects"). This
// binary links no concrete plugin implementations, so the registry is
// always empty; a bundle requesting a plugin cipher fails with a clear
// configuration error instead of silently falling back to no
// encryption.
func pluginRegistry(names []string) (*plugin.Registry, error) {
	_ = names
	return plugin.NewRegistry(nil)
}

// nextAutoVersion increments the patch component of the last recorded
// build's bundle_version (§6 "strategy=auto increments from last build
// log"). The first build of a bundle starts at 0.1.0.
func nextAutoVersion(outRoot, name string) (string, error) {
	store := buildlog.NewStore(outRoot)
	logs, err := store.List(name)
	if err != nil {
		return "", err
	}
	if len(logs) == 0 {
		return "0.1.0", nil
	}
	latest := logs[0]
	for _, l := range logs[1:] {
		if l.CreatedAt.After(latest.CreatedAt) {
			latest = l
		}
	}
	return bumpPatch(latest.BundleVersion)
}
