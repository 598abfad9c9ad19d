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

package qpk

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quacktool/quack/pkg/quack/asset"
	"github.com/quacktool/quack/pkg/quack/cipher"
	"github.com/quacktool/quack/pkg/quack/codec"
	"github.com/quacktool/quack/pkg/quack/manifest"
)

func baseManifestOptions() manifest.Options {
	return manifest.Options{
		Name:          "demo-bundle",
		BundleVersion: "1.0.0",
		BuildID:       "build-1",
		CreatedAt:     time.Unix(0, 0),
		FormatTag:     "qpk",
	}
}

// S1: a bundle with a single, tiny asset and no compression round-trips
// byte for byte.
func TestWriteReadRoundTripNoCompression(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "bundle.qpk")

	assets := []asset.Asset{
		{RelativePath: "data/config/game.json", Type: asset.TypeData, SubType: "config", Bytes: []byte(`{"ok":true}`)},
	}
	opts := baseManifestOptions()
	opts.Compression = manifest.Compression{Algo: "none", Level: 0}

	w := NewWriter(nil)
	res, err := w.Write(context.Background(), out, BuildInput{
		Assets:          assets,
		ManifestOptions: opts,
		CompressionAlgo: codec.None,
		BundleName:      "demo-bundle",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.MerkleTree.Root)
	assert.NotEmpty(t, res.BundleHash)

	h, err := Open(out, OpenOptions{})
	require.NoError(t, err)
	defer h.Close()

	assert.Equal(t, "demo-bundle", h.Manifest().Name)
	got, err := h.Extract("data/config/game.json", "default")
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(got))
}

// S3: a highly repetitive payload compressed with lzma must round-trip
// and the stored block must be much smaller than the raw input.
func TestWriteReadRoundTripLZMA(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "bundle.qpk")

	raw := bytes.Repeat([]byte("ab"), 5000)
	assets := []asset.Asset{
		{RelativePath: "scripts/scenario/intro.js", Type: asset.TypeScripts, SubType: "scenario", Bytes: raw},
	}
	opts := baseManifestOptions()
	opts.Compression = manifest.Compression{Algo: "lzma", Level: 6}

	w := NewWriter(nil)
	res, err := w.Write(context.Background(), out, BuildInput{
		Assets:           assets,
		ManifestOptions:  opts,
		CompressionAlgo:  codec.LZMA,
		CompressionLevel: 6,
		BundleName:       "demo-bundle",
	})
	require.NoError(t, err)
	assert.Less(t, res.Manifest.Assets[asset.TypeScripts]["scripts/scenario/intro.js"].StoredSize, int64(200))

	h, err := Open(out, OpenOptions{})
	require.NoError(t, err)
	defer h.Close()

	got, err := h.Extract("scripts/scenario/intro.js", "default")
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

// S4: one logical asset available under two locales that happen to share
// identical bytes must be retrievable independently per locale while the
// underlying payload block is stored once.
func TestWriteReadLocaleFallbackSharedContent(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "bundle.qpk")

	shared := []byte("scene one narration")
	assets := []asset.Asset{
		{RelativePath: "scripts/scene.js", Type: asset.TypeScripts, SubType: "scenario", Locales: []string{"default", "en-us"}, Bytes: shared},
	}
	opts := baseManifestOptions()
	opts.Compression = manifest.Compression{Algo: "deflate", Level: 6}

	w := NewWriter(nil)
	res, err := w.Write(context.Background(), out, BuildInput{
		Assets:           assets,
		ManifestOptions:  opts,
		CompressionAlgo:  codec.Deflate,
		CompressionLevel: 6,
		BundleName:       "demo-bundle",
	})
	require.NoError(t, err)
	assert.Contains(t, res.Manifest.Locales, "default")
	assert.Contains(t, res.Manifest.Locales, "en-us")

	h, err := Open(out, OpenOptions{})
	require.NoError(t, err)
	defer h.Close()

	gotDefault, err := h.Extract("scripts/scene.js", "default")
	require.NoError(t, err)
	gotEnUS, err := h.Extract("scripts/scene.js", "en-us")
	require.NoError(t, err)
	assert.Equal(t, shared, gotDefault)
	assert.Equal(t, shared, gotEnUS)
}

// Encrypted bundles: the manifest block itself must be encrypted with the
// same key as asset payloads, not silently left in the clear.
func TestWriteReadRoundTripEncrypted(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "bundle.qpk")

	assets := []asset.Asset{
		{RelativePath: "audio/voice/line001.ogg", Type: asset.TypeAudio, SubType: "voice", Bytes: []byte("binary-ish audio payload")},
	}
	opts := baseManifestOptions()
	opts.Compression = manifest.Compression{Algo: "deflate", Level: 6}
	opts.Encryption = manifest.Encryption{Enabled: true, Algo: "xor"}

	producer, err := cipher.NewProducer(cipher.XOR, "s3cr3t-key", nil)
	require.NoError(t, err)

	w := NewWriter(nil)
	_, err = w.Write(context.Background(), out, BuildInput{
		Assets:           assets,
		ManifestOptions:  opts,
		CompressionAlgo:  codec.Deflate,
		CompressionLevel: 6,
		CipherAlgo:       cipher.XOR,
		Cipher:           producer,
		BundleName:       "demo-bundle",
	})
	require.NoError(t, err)

	// Without the key, opening must fail closed rather than silently
	// returning plaintext or garbage.
	_, err = Open(out, OpenOptions{})
	require.Error(t, err)

	h, err := Open(out, OpenOptions{CipherKey: "s3cr3t-key"})
	require.NoError(t, err)
	defer h.Close()

	got, err := h.Extract("audio/voice/line001.ogg", "default")
	require.NoError(t, err)
	assert.Equal(t, "binary-ish audio payload", string(got))
}

// Extract rejects a request for a path/locale combination that was never
// written rather than silently returning the wrong asset.
func TestExtractUnknownAssetFails(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "bundle.qpk")

	assets := []asset.Asset{
		{RelativePath: "data/misc/a.json", Type: asset.TypeData, SubType: "misc", Bytes: []byte("{}")},
	}
	opts := baseManifestOptions()
	opts.Compression = manifest.Compression{Algo: "none"}

	w := NewWriter(nil)
	_, err := w.Write(context.Background(), out, BuildInput{
		Assets:          assets,
		ManifestOptions: opts,
		CompressionAlgo: codec.None,
		BundleName:      "demo-bundle",
	})
	require.NoError(t, err)

	h, err := Open(out, OpenOptions{})
	require.NoError(t, err)
	defer h.Close()

	_, err = h.Extract("data/misc/does-not-exist.json", "default")
	require.Error(t, err)
}

// Open rejects anything that isn't a QPK bundle rather than panicking on
// a short or garbage file.
func TestOpenRejectsBadMagic(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "not-a-bundle.qpk")
	require.NoError(t, os.WriteFile(out, []byte(strings.Repeat("x", 128)), 0o644))

	_, err := Open(out, OpenOptions{})
	require.Error(t, err)
}

// §4.H requires Open to validate payload_offset+stored_size against the
// actual file size; a bundle truncated after the index table must fail
// closed rather than let Extract surface a lazy ReadAt error later.
func TestOpenRejectsTruncatedPayload(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "bundle.qpk")

	assets := []asset.Asset{
		{RelativePath: "data/misc/a.json", Type: asset.TypeData, SubType: "misc", Bytes: []byte(`{"v":1}` + strings.Repeat("x", 64))},
	}
	opts := baseManifestOptions()
	opts.Compression = manifest.Compression{Algo: "none"}

	w := NewWriter(nil)
	_, err := w.Write(context.Background(), out, BuildInput{
		Assets:          assets,
		ManifestOptions: opts,
		CompressionAlgo: codec.None,
		BundleName:      "demo-bundle",
	})
	require.NoError(t, err)

	info, err := os.Stat(out)
	require.NoError(t, err)
	// Keep the header and index table but cut the single 71-byte payload
	// block short, so the payload bounds check is what rejects the file.
	cut := int64(headerSize+indexEntrySize) + 8
	require.Less(t, cut, info.Size())
	require.NoError(t, os.Truncate(out, cut))

	_, err = Open(out, OpenOptions{})
	require.Error(t, err)
}
