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

// Package merkle computes the deterministic binary Merkle tree over an
// asset set described in §3 and §4.F: leaves sorted by (relative_path,
// locale), odd levels promoted rather than duplicated, levels stored
// leaves-first so Diff and Patch can validate incremental updates
// without rebuilding from raw bytes.
package merkle

import (
	"encoding/hex"
	"sort"

	"github.com/quacktool/quack/pkg/quack/hash"
)

// Leaf is one entry contributing to the tree: identity is (path, locale),
// content is its hash.
type Leaf struct {
	RelativePath string
	Locale       string
	ContentHash  string
}

// Tree is the built Merkle tree: Levels[0] holds the leaf digests in
// sorted order, each subsequent level the interior digests above it,
// Levels[len-1] the single 32-byte root.
type Tree struct {
	Levels [][]string // hex-encoded digests, leaves-first
	Root   string
}

// Build constructs the tree over leaves. The input order does not matter:
// leaves are always re-sorted by (RelativePath, Locale) ascending before
// hashing, which is what gives Build its determinism property (§8.3).
func Build(leaves []Leaf) Tree {
	if len(leaves) == 0 {
		empty := hash.Bytes(nil)
		return Tree{Levels: [][]string{{empty}}, Root: empty}
	}

	sorted := make([]Leaf, len(leaves))
	copy(sorted, leaves)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].RelativePath != sorted[j].RelativePath {
			return sorted[i].RelativePath < sorted[j].RelativePath
		}
		return sorted[i].Locale < sorted[j].Locale
	})

	level := make([]string, len(sorted))
	for i, l := range sorted {
		level[i] = hash.CanonicalAssetRecord(l.RelativePath, l.Locale, l.ContentHash)
	}

	levels := [][]string{level}
	for len(level) > 1 {
		level = promote(level)
		levels = append(levels, level)
	}

	return Tree{Levels: levels, Root: levels[len(levels)-1][0]}
}

// promote computes the interior digests for the level above cur: SHA-256
// of left||right for each pair, promoting an unpaired trailing element
// unchanged rather than duplicating it.
func promote(cur []string) []string {
	next := make([]string, 0, (len(cur)+1)/2)
	for i := 0; i+1 < len(cur); i += 2 {
		leftBytes, _ := hex.DecodeString(cur[i])
		rightBytes, _ := hex.DecodeString(cur[i+1])
		combined := make([]byte, 0, len(leftBytes)+len(rightBytes))
		combined = append(combined, leftBytes...)
		combined = append(combined, rightBytes...)
		next = append(next, hash.Bytes(combined))
	}
	if len(cur)%2 == 1 {
		next = append(next, cur[len(cur)-1])
	}
	return next
}

// Root is a convenience wrapper returning just the root digest.
func Root(leaves []Leaf) string {
	return Build(leaves).Root
}
