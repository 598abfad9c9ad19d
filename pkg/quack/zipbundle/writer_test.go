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

package zipbundle

import (
	"archive/zip"
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quacktool/quack/pkg/quack/asset"
	"github.com/quacktool/quack/pkg/quack/manifest"
	"github.com/quacktool/quack/pkg/quack/qpk"
)

func baseOpts() manifest.Options {
	return manifest.Options{
		Name:          "demo-bundle",
		BundleVersion: "1.0.0",
		BuildID:       "build-1",
		CreatedAt:     time.Unix(0, 0),
		FormatTag:     "zip",
	}
}

func TestWriteProducesStoreOnlyZipWithManifest(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "bundle.zip")

	assets := []asset.Asset{
		{RelativePath: "data/config/game.json", Type: asset.TypeData, SubType: "config", Bytes: []byte(`{"ok":true}`)},
	}
	res, err := Write(context.Background(), out, qpk.BuildInput{
		Assets:          assets,
		ManifestOptions: baseOpts(),
		BundleName:      "demo-bundle",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Manifest.Totals.Files)
	assert.NotEmpty(t, res.BundleHash)

	zr, err := zip.OpenReader(out)
	require.NoError(t, err)
	defer zr.Close()

	var gotData, gotManifest bool
	for _, f := range zr.File {
		assert.Equal(t, zip.Store, f.Method)
		if f.Name == "data/config/game.json" {
			gotData = true
			rc, err := f.Open()
			require.NoError(t, err)
			b, err := io.ReadAll(rc)
			require.NoError(t, err)
			assert.Equal(t, `{"ok":true}`, string(b))
		}
		if f.Name == manifestEntryName {
			gotManifest = true
		}
	}
	assert.True(t, gotData, "expected data entry in zip")
	assert.True(t, gotManifest, "expected manifest.json entry in zip")
}

// A locale variant sharing content with another locale at the same path
// contributes only one zip entry, mirroring the QPK writer's dedup.
func TestWriteDedupsSharedLocaleContent(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "bundle.zip")

	shared := []byte("scene one narration")
	assets := []asset.Asset{
		{RelativePath: "scripts/scene.js", Type: asset.TypeScripts, SubType: "scenario", Locales: []string{"default", "en-us"}, Bytes: shared},
	}
	_, err := Write(context.Background(), out, qpk.BuildInput{
		Assets:          assets,
		ManifestOptions: baseOpts(),
		BundleName:      "demo-bundle",
	})
	require.NoError(t, err)

	zr, err := zip.OpenReader(out)
	require.NoError(t, err)
	defer zr.Close()

	count := 0
	for _, f := range zr.File {
		if f.Name == "scripts/scene.js" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestWriteRejectsEncryption(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "bundle.zip")

	opts := baseOpts()
	opts.Encryption = manifest.Encryption{Enabled: true, Algo: "xor"}
	assets := []asset.Asset{
		{RelativePath: "data/a.json", Type: asset.TypeData, Bytes: []byte("{}")},
	}
	_, err := Write(context.Background(), out, qpk.BuildInput{
		Assets:          assets,
		ManifestOptions: opts,
		BundleName:      "demo-bundle",
	})
	require.Error(t, err)
}
