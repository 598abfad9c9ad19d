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
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quacktool/quack/pkg/quack/asset"
	"github.com/quacktool/quack/pkg/quack/buildlog"
	"github.com/quacktool/quack/pkg/quack/diff"
	"github.com/quacktool/quack/pkg/quack/hash"
	"github.com/quacktool/quack/pkg/quack/manifest"
	"github.com/quacktool/quack/pkg/quack/qpk"
)

func stateFromAssets(version string, assets []asset.Asset) *BundleState {
	var blobs []Blob
	for _, a := range assets {
		locales := a.Locales
		if len(locales) == 0 {
			locales = []string{asset.DefaultLocale}
		}
		for _, loc := range locales {
			blobs = append(blobs, Blob{RelativePath: a.RelativePath, Locale: loc, ContentHash: a.ContentHash, Bytes: a.Bytes})
		}
	}
	return NewBundleState(version, blobs)
}

// S5: Diff(A,B) = {add:[z], modify:[(y,h2,h2')], deleted:[x]}; applying
// the patch to a state holding A advances it to a state whose root
// equals B's root.
func TestApplyAddModifyDelete(t *testing.T) {
	x := asset.Asset{RelativePath: "x", Type: asset.TypeData, Bytes: []byte("x-content")}
	x.ContentHash = hash.Bytes(x.Bytes)
	yOld := asset.Asset{RelativePath: "y", Type: asset.TypeData, Bytes: []byte("y-old")}
	yOld.ContentHash = hash.Bytes(yOld.Bytes)
	yNew := asset.Asset{RelativePath: "y", Type: asset.TypeData, Bytes: []byte("y-new")}
	yNew.ContentHash = hash.Bytes(yNew.Bytes)
	z := asset.Asset{RelativePath: "z", Type: asset.TypeData, Bytes: []byte("z-content")}
	z.ContentHash = hash.Bytes(z.Bytes)

	oldState := stateFromAssets("1", []asset.Asset{x, yOld})
	newState := stateFromAssets("2", []asset.Asset{yNew, z})

	oldLog := &buildlog.Log{Assets: map[string]buildlog.AssetRecord{
		"x": {Hash: x.ContentHash},
		"y": {Hash: yOld.ContentHash},
	}}
	newLog := &buildlog.Log{Assets: map[string]buildlog.AssetRecord{
		"y": {Hash: yNew.ContentHash},
		"z": {Hash: z.ContentHash},
	}}
	d := diff.Compute(oldLog, newLog)
	assert.Equal(t, []string{"z"}, d.Added)
	assert.Equal(t, []string{"x"}, d.Deleted)
	require.Len(t, d.Modified, 1)
	assert.Equal(t, "y", d.Modified[0].RelativePath)

	dir := t.TempDir()
	out := filepath.Join(dir, "patch.qpk")
	w := NewWriter()
	_, err := w.Write(context.Background(), out, BuildInput{
		Diff:             d,
		NewAssets:        []asset.Asset{yNew, z},
		FromVersion:      "1",
		ToVersion:        "2",
		FromMerkleRoot:   oldState.MerkleRoot(),
		ToMerkleRoot:     newState.MerkleRoot(),
		ManifestOptions:  manifest.Options{Name: "demo-patch", BundleVersion: "2.0.0", CreatedAt: time.Unix(0, 0)},
		CompressionLevel: 6,
		BundleName:       "demo",
	})
	require.NoError(t, err)

	h, err := Open(out, qpk.OpenOptions{})
	require.NoError(t, err)
	defer h.Close()

	applicator := NewApplicator()
	got, err := applicator.Apply(oldState, h.Patch(), h)
	require.NoError(t, err)
	assert.Equal(t, "2", got.Version)
	assert.Equal(t, newState.MerkleRoot(), got.MerkleRoot())
}

// S6: patch declares from_version=3; current state is at 2. apply
// returns VersionMismatch; state unchanged.
func TestApplyRejectsVersionMismatch(t *testing.T) {
	state := NewBundleState("2", nil)
	patchMeta := &manifest.PatchMeta{FromVersion: "3", ToVersion: "4"}

	applicator := NewApplicator()
	_, err := applicator.Apply(state, patchMeta, noopSource{})
	require.Error(t, err)
	assert.Equal(t, "2", state.Version)
}

func TestApplyRejectsRootMismatch(t *testing.T) {
	a := asset.Asset{RelativePath: "a", Type: asset.TypeData, Bytes: []byte("content")}
	a.ContentHash = hash.Bytes(a.Bytes)
	state := stateFromAssets("1", []asset.Asset{a})

	patchMeta := &manifest.PatchMeta{FromVersion: "1", ToVersion: "2", FromMerkleRoot: "not-the-real-root"}

	applicator := NewApplicator()
	_, err := applicator.Apply(state, patchMeta, noopSource{})
	require.Error(t, err)
}

func TestApplyRejectsAddOnExistingKey(t *testing.T) {
	a := asset.Asset{RelativePath: "a", Type: asset.TypeData, Bytes: []byte("content")}
	a.ContentHash = hash.Bytes(a.Bytes)
	state := stateFromAssets("1", []asset.Asset{a})

	patchMeta := &manifest.PatchMeta{
		FromVersion:    "1",
		ToVersion:      "2",
		FromMerkleRoot: state.MerkleRoot(),
		Operations:     []manifest.Op{{Kind: manifest.OpAdd, RelativePath: "a", Locale: "default"}},
	}

	applicator := NewApplicator()
	_, err := applicator.Apply(state, patchMeta, noopSource{})
	require.Error(t, err)
	assert.Equal(t, "1", state.Version)
}

func TestBuildOperationsHandlesLocaleMove(t *testing.T) {
	d := diff.Diff{Modified: []diff.Modification{{RelativePath: "scripts/scene.js", OldHash: "h1", NewHash: "h2"}}}
	oldLocales := map[string][]string{"scripts/scene.js": {"default"}}
	newLocales := map[string][]string{"scripts/scene.js": {"en-us"}}

	ops := BuildOperations(d, oldLocales, newLocales)
	require.Len(t, ops, 2)
	assert.Contains(t, ops, manifest.Op{Kind: manifest.OpDelete, RelativePath: "scripts/scene.js", Locale: "default"})
	assert.Contains(t, ops, manifest.Op{Kind: manifest.OpAdd, RelativePath: "scripts/scene.js", Locale: "en-us"})
}

type noopSource struct{}

func (noopSource) ExtractOp(op manifest.Op) ([]byte, error) { return nil, nil }
