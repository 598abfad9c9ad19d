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

// Package zipbundle renders a bundle as a store-only ZIP archive, the
// non-production fallback format (§6 format=zip). It shares the Builder
// and Merkle tree with the QPK Writer but skips QPK's custom container:
// entries go straight into archive/zip with zip.Store, no compression and
// no encryption, since the fallback format exists for quick local
// iteration rather than as a second shippable container.
package zipbundle

import (
	"archive/zip"
	"context"
	"encoding/json"
	"os"

	"github.com/quacktool/quack/pkg/quack/asset"
	"github.com/quacktool/quack/pkg/quack/hash"
	"github.com/quacktool/quack/pkg/quack/manifest"
	"github.com/quacktool/quack/pkg/quack/merkle"
	"github.com/quacktool/quack/pkg/quack/qpk"
	"github.com/quacktool/quack/pkg/quack/quackerr"
)

// manifestEntryName is the zip member holding the JSON-encoded Manifest,
// written last so a partial read of the archive still has every asset
// entry available for inspection.
const manifestEntryName = "manifest.json"

// Write builds a store-only ZIP bundle at outputPath. It reuses
// qpk.BuildInput/BuildResult so the CLI layer's post-build bookkeeping
// (build log, workspace index) does not need to branch on format.
// Encryption is rejected outright: the fallback format carries no cipher
// envelope, so a caller asking for both gets a validation error instead
// of a silently-plaintext "encrypted" bundle.
func Write(ctx context.Context, outputPath string, in qpk.BuildInput) (*qpk.BuildResult, error) {
	if len(in.Assets) == 0 {
		return nil, quackerr.Validation("no assets")
	}
	if in.ManifestOptions.Encryption.Enabled {
		return nil, quackerr.Validation("zip format does not support encryption; use format=qpk")
	}

	assets := hashAssets(in.Assets)

	m, err := manifest.Build(assets, in.ManifestOptions)
	if err != nil {
		return nil, err
	}

	leaves := make([]merkle.Leaf, 0, len(assets))
	for _, a := range assets {
		locales := a.Locales
		if len(locales) == 0 {
			locales = []string{m.DefaultLocale}
		}
		for _, loc := range locales {
			leaves = append(leaves, merkle.Leaf{RelativePath: a.RelativePath, Locale: loc, ContentHash: a.ContentHash})
		}
	}
	tree := merkle.Build(leaves)
	m.MerkleRoot = tree.Root

	// One zip entry per distinct relative_path: locales sharing a path
	// are required to share content (manifest.Build enforces this), so
	// the first asset seen for a path carries the bytes every locale
	// resolves to.
	written := make(map[string]bool, len(assets))

	tmpPath := outputPath + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, quackerr.IO("failed to create temp zip file", err)
	}
	abort := func(cause error) error {
		f.Close()
		os.Remove(tmpPath)
		return quackerr.Wrap(quackerr.KindIO, "zip write aborted", cause)
	}

	zw := zip.NewWriter(f)
	for _, a := range assets {
		if written[a.RelativePath] {
			continue
		}
		written[a.RelativePath] = true

		hdr := &zip.FileHeader{Name: a.RelativePath, Method: zip.Store}
		hdr.Modified = a.MTime
		entryWriter, err := zw.CreateHeader(hdr)
		if err != nil {
			return nil, abort(err)
		}
		if _, err := entryWriter.Write(a.Bytes); err != nil {
			return nil, abort(err)
		}
	}

	manifestJSON, err := json.Marshal(m)
	if err != nil {
		return nil, abort(err)
	}
	mw, err := zw.CreateHeader(&zip.FileHeader{Name: manifestEntryName, Method: zip.Store})
	if err != nil {
		return nil, abort(err)
	}
	if _, err := mw.Write(manifestJSON); err != nil {
		return nil, abort(err)
	}

	if err := zw.Close(); err != nil {
		return nil, abort(err)
	}
	if err := f.Sync(); err != nil {
		return nil, abort(err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, quackerr.IO("failed to close temp zip file", err)
	}
	if err := os.Rename(tmpPath, outputPath); err != nil {
		os.Remove(tmpPath)
		return nil, quackerr.IO("failed to rename temp zip file into place", err)
	}

	bundleHash, size, err := hashFile(outputPath)
	if err != nil {
		return nil, quackerr.IO("failed to hash committed zip bundle", err)
	}

	return &qpk.BuildResult{Manifest: m, MerkleTree: tree, BundleHash: bundleHash, Size: size}, nil
}

func hashAssets(in []asset.Asset) []asset.Asset {
	out := make([]asset.Asset, len(in))
	copy(out, in)
	for i := range out {
		out[i].Size = int64(len(out[i].Bytes))
		if out[i].ContentHash == "" {
			out[i].ContentHash = hash.Bytes(out[i].Bytes)
		}
	}
	return out
}

func hashFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", 0, err
	}
	digest, err := hash.Reader(f)
	if err != nil {
		return "", 0, err
	}
	return digest, info.Size(), nil
}
