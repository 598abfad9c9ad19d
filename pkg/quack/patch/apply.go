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

package patch

import (
	"sort"

	"github.com/quacktool/quack/pkg/quack/hash"
	"github.com/quacktool/quack/pkg/quack/manifest"
	"github.com/quacktool/quack/pkg/quack/merkle"
	"github.com/quacktool/quack/pkg/quack/quackerr"
)

// Blob is one (path, locale) entry of a BundleState: the decoded asset
// bytes the Applicator reasons over, reachable by identity rather than
// by wire offset (§4.M "manifest + payload blobs reachable by
// (path, locale)").
type Blob struct {
	RelativePath string
	Locale       string
	ContentHash  string
	Bytes        []byte
}

func blobKey(path, locale string) string {
	return path + "\x00" + locale
}

// BundleState is the Applicator's view of a bundle's current content: a
// version cursor plus the full set of live blobs. Absent is simply a nil
// *BundleState.
type BundleState struct {
	Version string
	Blobs   map[string]Blob
}

// NewBundleState builds a BundleState from an initial blob set.
func NewBundleState(version string, blobs []Blob) *BundleState {
	s := &BundleState{Version: version, Blobs: make(map[string]Blob, len(blobs))}
	for _, b := range blobs {
		s.Blobs[blobKey(b.RelativePath, b.Locale)] = b
	}
	return s
}

// MerkleRoot recomputes the state's Merkle root over its live blobs.
func (s *BundleState) MerkleRoot() string {
	leaves := make([]merkle.Leaf, 0, len(s.Blobs))
	for _, b := range s.Blobs {
		leaves = append(leaves, merkle.Leaf{RelativePath: b.RelativePath, Locale: b.Locale, ContentHash: b.ContentHash})
	}
	return merkle.Root(leaves)
}

func (s *BundleState) clone() *BundleState {
	cp := &BundleState{Version: s.Version, Blobs: make(map[string]Blob, len(s.Blobs))}
	for k, v := range s.Blobs {
		cp.Blobs[k] = v
	}
	return cp
}

// PayloadSource resolves the decoded bytes for an Add or Modify
// operation, typically backed by a patch.Handle's ExtractOp.
type PayloadSource interface {
	ExtractOp(op manifest.Op) ([]byte, error)
}

// Applicator runs the precondition/apply/postcondition/commit state
// machine of §4.M against a shadow copy, never mutating state until
// every check has passed.
type Applicator struct{}

// NewApplicator returns an Applicator. It carries no state of its own:
// every bundle's version cursor lives in its own BundleState.
func NewApplicator() *Applicator { return &Applicator{} }

// Apply validates patchMeta's preconditions against state, applies its
// operations to a shadow copy, validates the postcondition, and — only
// if every step succeeds — returns the new committed BundleState. state
// itself is never mutated; on any error the caller's state is still
// valid and unchanged.
func (a *Applicator) Apply(state *BundleState, patchMeta *manifest.PatchMeta, src PayloadSource) (*BundleState, error) {
	if state == nil {
		return nil, quackerr.Validation("cannot apply a patch to an absent bundle state")
	}

	// 1. Precondition.
	if state.Version != patchMeta.FromVersion {
		return nil, quackerr.VersionMismatchStr(patchMeta.FromVersion, state.Version)
	}
	if state.MerkleRoot() != patchMeta.FromMerkleRoot {
		return nil, quackerr.RootMismatch(patchMeta.FromMerkleRoot, state.MerkleRoot())
	}

	// 2. Apply, to a shadow copy only.
	shadow := state.clone()
	ops := make([]manifest.Op, len(patchMeta.Operations))
	copy(ops, patchMeta.Operations)
	sort.Slice(ops, func(i, j int) bool {
		if ops[i].RelativePath != ops[j].RelativePath {
			return ops[i].RelativePath < ops[j].RelativePath
		}
		return ops[i].Locale < ops[j].Locale
	})

	for _, op := range ops {
		key := blobKey(op.RelativePath, op.Locale)
		switch op.Kind {
		case manifest.OpDelete:
			if _, ok := shadow.Blobs[key]; !ok {
				return nil, quackerr.OperationConflict("delete refused: " + key + " is absent")
			}
			delete(shadow.Blobs, key)

		case manifest.OpAdd:
			if _, ok := shadow.Blobs[key]; ok {
				return nil, quackerr.OperationConflict("add refused: " + key + " already exists")
			}
			bytes, err := src.ExtractOp(op)
			if err != nil {
				return nil, err
			}
			shadow.Blobs[key] = Blob{RelativePath: op.RelativePath, Locale: op.Locale, ContentHash: hash.Bytes(bytes), Bytes: bytes}

		case manifest.OpModify:
			if _, ok := shadow.Blobs[key]; !ok {
				return nil, quackerr.OperationConflict("modify refused: " + key + " is absent")
			}
			bytes, err := src.ExtractOp(op)
			if err != nil {
				return nil, err
			}
			shadow.Blobs[key] = Blob{RelativePath: op.RelativePath, Locale: op.Locale, ContentHash: hash.Bytes(bytes), Bytes: bytes}

		default:
			return nil, quackerr.Validationf("unknown patch operation kind %q", op.Kind)
		}
	}

	// 3. Postcondition.
	if shadow.MerkleRoot() != patchMeta.ToMerkleRoot {
		return nil, quackerr.PatchCorrupt("post-apply merkle root does not match patch.to_merkle_root")
	}

	// 4. Commit.
	shadow.Version = patchMeta.ToVersion
	return shadow, nil
}
