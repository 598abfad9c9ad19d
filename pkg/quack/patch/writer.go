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

// Package patch implements the differential patch bundle described in
// §4.L/§4.M: a QPK whose manifest carries a Patch extension, and the
// state machine that applies one to an in-memory bundle state.
package patch

import (
	"context"
	"sort"

	"github.com/quacktool/quack/pkg/quack/asset"
	"github.com/quacktool/quack/pkg/quack/cipher"
	"github.com/quacktool/quack/pkg/quack/codec"
	"github.com/quacktool/quack/pkg/quack/diff"
	"github.com/quacktool/quack/pkg/quack/manifest"
	"github.com/quacktool/quack/pkg/quack/qpk"
	"github.com/quacktool/quack/pkg/quack/quackerr"
)

// BuildInput gathers everything the Writer needs to produce one patch
// bundle from a computed Diff.
type BuildInput struct {
	Diff diff.Diff

	// OldLocalesByPath and NewLocalesByPath give the per-path locale set
	// on each side of the diff, used to expand a path-level change into
	// the per-(path,locale) Add/Modify/Delete operations of §4.L,
	// including the "moved between locales" edge case of §4.K.
	OldLocalesByPath map[string][]string
	NewLocalesByPath map[string][]string

	// NewAssets carries the current content (bytes, hash, type) for any
	// path touched by an Add or Modify operation.
	NewAssets []asset.Asset

	FromVersion    string
	ToVersion      string
	FromMerkleRoot string
	ToMerkleRoot   string

	ManifestOptions  manifest.Options
	CompressionAlgo  codec.Algo
	CompressionLevel int
	CipherAlgo       cipher.Algo
	Cipher           cipher.Cipher
	BundleName       string
}

// Writer produces patch bundles by delegating wire-format serialization
// to qpk.Writer: a patch is an ordinary QPK whose manifest carries a
// Patch extension and whose asset set is restricted to Add/Modify
// payloads (§4.L).
type Writer struct {
	qpkWriter *qpk.Writer
}

// NewWriter returns a patch Writer backed by a fresh qpk.Writer.
func NewWriter() *Writer {
	return &Writer{qpkWriter: qpk.NewWriter(nil)}
}

// Write computes the operation list from in.Diff and the locale sets,
// then serializes a patch bundle at outputPath.
func (w *Writer) Write(ctx context.Context, outputPath string, in BuildInput) (*qpk.BuildResult, error) {
	ops := BuildOperations(in.Diff, in.OldLocalesByPath, in.NewLocalesByPath)

	assetsByPath := make(map[string]asset.Asset, len(in.NewAssets))
	for _, a := range in.NewAssets {
		assetsByPath[a.RelativePath] = a
	}

	localesNeedingPayload := make(map[string]map[string]struct{})
	for _, op := range ops {
		if op.Kind == manifest.OpDelete {
			continue
		}
		if localesNeedingPayload[op.RelativePath] == nil {
			localesNeedingPayload[op.RelativePath] = make(map[string]struct{})
		}
		localesNeedingPayload[op.RelativePath][op.Locale] = struct{}{}
	}

	var patchAssets []asset.Asset
	for path, locales := range localesNeedingPayload {
		src, ok := assetsByPath[path]
		if !ok {
			return nil, quackerr.Validationf("no current asset content available for %q", path)
		}
		localeList := make([]string, 0, len(locales))
		for l := range locales {
			localeList = append(localeList, l)
		}
		sort.Strings(localeList)
		patchAssets = append(patchAssets, asset.Asset{
			RelativePath: src.RelativePath,
			Type:         src.Type,
			SubType:      src.SubType,
			Locales:      localeList,
			Size:         src.Size,
			ContentHash:  src.ContentHash,
			MTime:        src.MTime,
			Version:      src.Version,
			MediaTag:     src.MediaTag,
			Bytes:        src.Bytes,
		})
	}
	sort.Slice(patchAssets, func(i, j int) bool { return patchAssets[i].RelativePath < patchAssets[j].RelativePath })

	patchMeta := &manifest.PatchMeta{
		FromVersion:    in.FromVersion,
		ToVersion:      in.ToVersion,
		FromMerkleRoot: in.FromMerkleRoot,
		ToMerkleRoot:   in.ToMerkleRoot,
		Operations:     ops,
	}

	return w.qpkWriter.Write(ctx, outputPath, qpk.BuildInput{
		Assets:           patchAssets,
		ManifestOptions:  in.ManifestOptions,
		CompressionAlgo:  in.CompressionAlgo,
		CompressionLevel: in.CompressionLevel,
		CipherAlgo:       in.CipherAlgo,
		Cipher:           in.Cipher,
		BundleName:       in.BundleName,
		PatchMeta:        patchMeta,
	})
}

// BuildOperations expands a path-level Diff into the per-(path,locale)
// operations a patch manifest carries, applying the §4.K edge case: a
// path whose locale set changed is represented as deletes of the
// locales that left plus adds of the locales that arrived, on top of
// modifies for locales present on both sides.
func BuildOperations(d diff.Diff, oldLocales, newLocales map[string][]string) []manifest.Op {
	var ops []manifest.Op

	localesOrDefault := func(m map[string][]string, path string) []string {
		if locs := m[path]; len(locs) > 0 {
			return locs
		}
		return []string{asset.DefaultLocale}
	}

	for _, path := range d.Added {
		for _, locale := range localesOrDefault(newLocales, path) {
			ops = append(ops, manifest.Op{Kind: manifest.OpAdd, RelativePath: path, Locale: locale})
		}
	}
	for _, path := range d.Deleted {
		for _, locale := range localesOrDefault(oldLocales, path) {
			ops = append(ops, manifest.Op{Kind: manifest.OpDelete, RelativePath: path, Locale: locale})
		}
	}
	for _, m := range d.Modified {
		oldSet := toSet(localesOrDefault(oldLocales, m.RelativePath))
		newSet := toSet(localesOrDefault(newLocales, m.RelativePath))

		for locale := range newSet {
			if _, inOld := oldSet[locale]; !inOld {
				ops = append(ops, manifest.Op{Kind: manifest.OpAdd, RelativePath: m.RelativePath, Locale: locale})
			}
		}
		for locale := range oldSet {
			if _, inNew := newSet[locale]; !inNew {
				ops = append(ops, manifest.Op{Kind: manifest.OpDelete, RelativePath: m.RelativePath, Locale: locale})
			}
		}
		for locale := range oldSet {
			if _, inNew := newSet[locale]; inNew {
				ops = append(ops, manifest.Op{Kind: manifest.OpModify, RelativePath: m.RelativePath, Locale: locale})
			}
		}
	}

	sort.Slice(ops, func(i, j int) bool {
		if ops[i].RelativePath != ops[j].RelativePath {
			return ops[i].RelativePath < ops[j].RelativePath
		}
		return ops[i].Locale < ops[j].Locale
	})
	return ops
}

func toSet(locales []string) map[string]struct{} {
	s := make(map[string]struct{}, len(locales))
	for _, l := range locales {
		s[l] = struct{}{}
	}
	return s
}
