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

package manifest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quacktool/quack/pkg/quack/asset"
)

func baseOpts() Options {
	return Options{
		Name:          "demo",
		BundleVersion: "1.0.0",
		BuildID:       "build-1",
		CreatedAt:     time.Unix(0, 0),
		FormatTag:     "qpk",
		Compression:   Compression{Algo: "lzma", Level: 6},
	}
}

func TestBuildRejectsEmptyAssets(t *testing.T) {
	_, err := Build(nil, baseOpts())
	require.Error(t, err)
}

func TestBuildRejectsBadSemver(t *testing.T) {
	opts := baseOpts()
	opts.BundleVersion = "not-a-version"
	assets := []asset.Asset{{RelativePath: "data/a.json", Type: asset.TypeData, Size: 7, ContentHash: "h"}}
	_, err := Build(assets, opts)
	require.Error(t, err)
}

func TestBuildRejectsInvalidLocale(t *testing.T) {
	assets := []asset.Asset{{RelativePath: "data/a.json", Type: asset.TypeData, Locales: []string{"EN"}, ContentHash: "h"}}
	_, err := Build(assets, baseOpts())
	require.Error(t, err)
}

func TestBuildRejectsDuplicateKey(t *testing.T) {
	assets := []asset.Asset{
		{RelativePath: "data/a.json", Type: asset.TypeData, Locales: []string{"default"}, ContentHash: "h1"},
		{RelativePath: "data/a.json", Type: asset.TypeData, Locales: []string{"default"}, ContentHash: "h2"},
	}
	_, err := Build(assets, baseOpts())
	require.Error(t, err)
}

func TestBuildMergesLocalesWhenContentMatches(t *testing.T) {
	assets := []asset.Asset{
		{RelativePath: "scripts/scenario/scene.js", Type: asset.TypeScripts, Locales: []string{"default"}, Size: 7, ContentHash: "h1"},
		{RelativePath: "scripts/scenario/scene.js", Type: asset.TypeScripts, Locales: []string{"en-us"}, Size: 7, ContentHash: "h1"},
	}
	m, err := Build(assets, baseOpts())
	require.NoError(t, err)

	assert.Equal(t, 1, m.Totals.Files)
	entry := m.Assets[asset.TypeScripts]["scripts/scenario/scene.js"]
	assert.Equal(t, []string{"default", "en-us"}, entry.Locales)
}

func TestBuildRejectsConflictingContentAcrossLocales(t *testing.T) {
	assets := []asset.Asset{
		{RelativePath: "scripts/scenario/scene.js", Type: asset.TypeScripts, Locales: []string{"default"}, Size: 7, ContentHash: "h1"},
		{RelativePath: "scripts/scenario/scene.js", Type: asset.TypeScripts, Locales: []string{"en-us"}, Size: 9, ContentHash: "h2"},
	}
	_, err := Build(assets, baseOpts())
	require.Error(t, err)
}

func TestBuildAssignsDefaultLocale(t *testing.T) {
	assets := []asset.Asset{{RelativePath: "data/a.json", Type: asset.TypeData, Size: 7, ContentHash: "h"}}
	m, err := Build(assets, baseOpts())
	require.NoError(t, err)
	assert.Equal(t, "default", m.DefaultLocale)
	assert.Equal(t, []string{"default"}, m.Locales)
	assert.Equal(t, 1, m.Totals.Files)
	assert.Equal(t, int64(7), m.Totals.Size)
}

func TestBuildPerfEstimatesMatchFormulae(t *testing.T) {
	opts := baseOpts()
	opts.EstimatePerf = true
	assets := []asset.Asset{{RelativePath: "data/a.json", Type: asset.TypeData, Size: 2_000_000, ContentHash: "h"}}
	m, err := Build(assets, opts)
	require.NoError(t, err)
	require.NotNil(t, m.Perf)
	assert.InDelta(t, 20.0, m.Perf.EstLoadMS, 0.001)
	assert.InDelta(t, 60.0, m.Perf.EstDecompressMS, 0.001) // lzma factor 30
	assert.Equal(t, int64(16*1024*1024), m.Perf.EstMemoryBytes)
}

func TestBuildPerfMemoryFloor(t *testing.T) {
	opts := baseOpts()
	opts.EstimatePerf = true
	assets := []asset.Asset{{RelativePath: "data/a.json", Type: asset.TypeData, Size: 10, ContentHash: "h"}}
	m, err := Build(assets, opts)
	require.NoError(t, err)
	assert.Equal(t, int64(16*1024*1024), m.Perf.EstMemoryBytes)
}

func TestValidateCatchesCorruptedTotals(t *testing.T) {
	assets := []asset.Asset{{RelativePath: "data/a.json", Type: asset.TypeData, Size: 7, ContentHash: "h"}}
	m, err := Build(assets, baseOpts())
	require.NoError(t, err)

	m.Totals.Files = 99
	require.Error(t, Validate(m))
}
