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

// Package fsdiscoverer is a concrete asset.Discoverer over a local
// directory tree, the reference implementation of the external
// collaborator §6 describes but leaves unspecified. It is CLI glue, not
// core: the core only ever consumes the asset.Discoverer interface.
//
// Layout convention: <type>/<sub_type>/[<locale>/]<relative-path...>,
// mirroring the teacher's PathFilter-style ignore matching
// (pkg/modelfile/path_filter.go) but against doublestar patterns so a
// ignore entry can use "**" to match arbitrarily deep.
package fsdiscoverer

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/quacktool/quack/pkg/quack/asset"
	"github.com/quacktool/quack/pkg/quack/hash"
	"github.com/quacktool/quack/pkg/quack/quackerr"
)

// Discoverer walks a source directory, classifying each file by its
// first two path segments (type, sub_type) and an optional third locale
// segment.
type Discoverer struct {
	Extractor asset.MediaExtractor
}

// New returns a Discoverer with no media extractor: MediaTag is always
// nil, which the core treats as "unsupported, continue without
// metadata" per §6.
func New() *Discoverer {
	return &Discoverer{}
}

// Discover implements asset.Discoverer.
func (d *Discoverer) Discover(ctx context.Context, sourceDir string, ignoreGlobs []string) ([]asset.Asset, error) {
	if err := validateGlobs(ignoreGlobs); err != nil {
		return nil, err
	}

	var assets []asset.Asset
	err := filepath.WalkDir(sourceDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		for _, pattern := range ignoreGlobs {
			matched, err := doublestar.Match(pattern, rel)
			if err != nil {
				return quackerr.Validationf("ignore pattern %q: %v", pattern, err)
			}
			if matched {
				return nil
			}
		}

		a, ok, err := classify(sourceDir, rel)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		if d.Extractor != nil {
			if tag, extractErr := d.Extractor.Extract(ctx, path); extractErr == nil {
				a.MediaTag = tag
			}
		}
		assets = append(assets, a)
		return nil
	})
	if err != nil {
		return nil, quackerr.IO("failed to walk source directory", err)
	}
	return assets, nil
}

// classify splits rel into (type, sub_type, [locale,] relative_path) and
// loads its bytes and content hash. ok is false for paths that don't
// match a recognized top-level type, which are silently skipped (a
// README beside the asset tree, for instance).
func classify(sourceDir, rel string) (asset.Asset, bool, error) {
	segments := strings.Split(rel, "/")
	if len(segments) < 3 {
		return asset.Asset{}, false, nil
	}

	typ := asset.Type(segments[0])
	subTypes, recognized := asset.ValidTypes[typ]
	if !recognized {
		return asset.Asset{}, false, nil
	}
	subType := segments[1]
	if !contains(subTypes, subType) {
		return asset.Asset{}, false, nil
	}

	locale := asset.DefaultLocale
	assetSegments := segments[2:]
	if len(assetSegments) > 1 && asset.LocaleRegexp.MatchString(assetSegments[0]) {
		locale = assetSegments[0]
		assetSegments = assetSegments[1:]
	}
	relativePath := strings.Join(segments[:2], "/") + "/" + strings.Join(assetSegments, "/")

	full := filepath.Join(sourceDir, rel)
	data, err := os.ReadFile(full)
	if err != nil {
		return asset.Asset{}, false, quackerr.IO("failed to read asset file", err)
	}
	info, err := os.Stat(full)
	if err != nil {
		return asset.Asset{}, false, quackerr.IO("failed to stat asset file", err)
	}

	return asset.Asset{
		RelativePath: relativePath,
		Type:         typ,
		SubType:      subType,
		Locales:      []string{locale},
		Size:         info.Size(),
		ContentHash:  hash.Bytes(data),
		MTime:        info.ModTime(),
		Bytes:        data,
	}, true, nil
}

func contains(items []string, target string) bool {
	for _, it := range items {
		if it == target {
			return true
		}
	}
	return false
}

func validateGlobs(patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return quackerr.Validationf("ignore pattern %q is not a valid glob", p)
		}
	}
	return nil
}
