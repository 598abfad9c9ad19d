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
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"sort"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/quacktool/quack/pkg/quack/asset"
	"github.com/quacktool/quack/pkg/quack/cipher"
	"github.com/quacktool/quack/pkg/quack/codec"
	"github.com/quacktool/quack/pkg/quack/hash"
	"github.com/quacktool/quack/pkg/quack/manifest"
	"github.com/quacktool/quack/pkg/quack/merkle"
	"github.com/quacktool/quack/pkg/quack/quackerr"
)

// BuildInput gathers everything the Writer needs to produce one bundle.
type BuildInput struct {
	Assets           []asset.Asset
	ManifestOptions  manifest.Options
	CompressionAlgo  codec.Algo
	CompressionLevel int
	CipherAlgo       cipher.Algo
	Cipher           cipher.Cipher // already resolved via cipher.NewProducer
	Processors       []asset.Processor
	BundleName       string

	// PatchMeta, when non-nil, marks this bundle as a patch (§4.L): it is
	// attached to the manifest verbatim after Build, turning an ordinary
	// QPK into a patch bundle without changing the wire format.
	PatchMeta *manifest.PatchMeta
}

// BuildResult is returned after a successful atomic commit.
type BuildResult struct {
	Manifest   *manifest.Manifest
	MerkleTree merkle.Tree
	BundleHash string // SHA-256 of the final bundle file
	Size       int64
}

// Writer serializes {header, index, payload blocks, manifest} atomically.
type Writer struct {
	log *logrus.Entry
}

// NewWriter returns a Writer. log may be nil, in which case an entry on
// logrus's standard logger is used.
func NewWriter(log *logrus.Entry) *Writer {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Writer{log: log}
}

type compressedAsset struct {
	entryIndex int // index into the processed assets slice, in input order
	stored     []byte
	storedHash string
	rawSize    int64
}

// Write builds the bundle at outputPath. It writes to "<outputPath>.tmp",
// fsyncs, then renames onto outputPath — the rename is the commit point
// (§4.G "Atomicity"). On any failure the .tmp file is removed and the
// previous final file, if any, is left untouched (§4.M "Failure
// semantics").
func (w *Writer) Write(ctx context.Context, outputPath string, in BuildInput) (*BuildResult, error) {
	if len(in.Assets) == 0 && in.PatchMeta == nil {
		return nil, quackerr.Validation("no assets")
	}
	if in.PatchMeta != nil {
		in.ManifestOptions.AllowEmpty = true
	}

	assets, err := w.processAndHash(ctx, in)
	if err != nil {
		return nil, err
	}

	m, err := manifest.Build(assets, in.ManifestOptions)
	if err != nil {
		return nil, err
	}
	m.Patch = in.PatchMeta

	comp, err := codec.New(in.CompressionAlgo)
	if err != nil {
		return nil, err
	}
	enc := in.Cipher
	if enc == nil {
		enc, err = cipher.NewProducer(cipher.None, "", nil)
		if err != nil {
			return nil, err
		}
	}

	blocks, err := w.compressAssets(ctx, assets, comp, in.CompressionLevel, enc, in.BundleName)
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

	if err := w.commit(ctx, outputPath, m, assets, blocks, enc); err != nil {
		return nil, err
	}

	bundleHash, size, err := hashFile(outputPath)
	if err != nil {
		return nil, quackerr.IO("failed to hash committed bundle", err)
	}

	return &BuildResult{Manifest: m, MerkleTree: tree, BundleHash: bundleHash, Size: size}, nil
}

// processAndHash runs asset processors (pure transforms over bytes) and
// fills in ContentHash for any asset that did not already carry one.
func (w *Writer) processAndHash(ctx context.Context, in BuildInput) ([]asset.Asset, error) {
	out := make([]asset.Asset, len(in.Assets))
	copy(out, in.Assets)

	for i := range out {
		data := out[i].Bytes
		for _, p := range in.Processors {
			processed, err := p.Process(ctx, out[i], data)
			if err != nil {
				w.log.WithError(err).WithField("path", out[i].RelativePath).Warn("asset processor failed")
				return nil, quackerr.Wrap(quackerr.KindCodec, "asset processor rejected "+out[i].RelativePath, err)
			}
			data = processed
		}
		out[i].Bytes = data
		out[i].Size = int64(len(data))
		if out[i].ContentHash == "" {
			out[i].ContentHash = hash.Bytes(data)
		}
	}
	return out, nil
}

// compressAssets runs compress-then-encrypt for each asset concurrently,
// bounded to GOMAXPROCS workers, then returns the blocks in input order
// for deterministic, single-writer serialization afterward.
func (w *Writer) compressAssets(ctx context.Context, assets []asset.Asset, comp codec.Codec, level int, enc cipher.Cipher, bundleName string) ([]compressedAsset, error) {
	results := make([]compressedAsset, len(assets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, runtime.GOMAXPROCS(0)))

	for i, a := range assets {
		i, a := i, a
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			compressed, err := comp.Encode(a.Bytes, level)
			if err != nil {
				return err
			}

			cctx := cipher.Context{AssetPath: a.RelativePath, AssetType: string(a.Type), BundleName: bundleName}
			encrypted, err := enc.Encrypt(compressed, cctx)
			if err != nil {
				w.log.WithError(err).WithField("path", a.RelativePath).Error("cipher plugin rejected asset")
				return err
			}

			results[i] = compressedAsset{
				entryIndex: i,
				stored:     encrypted,
				storedHash: hash.Bytes(encrypted),
				rawSize:    int64(len(a.Bytes)),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, quackerr.Wrap(quackerr.KindCodec, "failed to compress/encrypt asset payload", err)
	}
	return results, nil
}

// commit writes the tmp file and performs the atomic rename.
func (w *Writer) commit(ctx context.Context, outputPath string, m *manifest.Manifest, assets []asset.Asset, blocks []compressedAsset, enc cipher.Cipher) error {
	tmpPath := outputPath + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return quackerr.IO("failed to create temp bundle file", err)
	}
	abort := func(cause error) error {
		f.Close()
		os.Remove(tmpPath)
		return quackerr.Wrap(quackerr.KindIO, "write aborted", cause)
	}

	// Build index rows: one per (relative_path, locale), sorted by
	// path_hash for Reader binary search. Rows that share content (an
	// asset with multiple locales) share the same offset/stored_size.
	type row struct {
		entry   indexEntry
		assetIx int
	}
	var rows []row
	for i, a := range assets {
		locales := a.Locales
		if len(locales) == 0 {
			locales = []string{m.DefaultLocale}
		}
		for _, loc := range locales {
			rows = append(rows, row{
				entry: indexEntry{
					PathHash: pathHash(a.RelativePath, loc),
				},
				assetIx: i,
			})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		return lessBytes(rows[i].entry.PathHash[:], rows[j].entry.PathHash[:])
	})

	fileCount := uint32(len(rows))
	compAlgo, encEnabled, encAlgoTag := compressionTag(m), m.Encryption.Enabled, cipherAlgoTag(enc.Algo())

	indexTableSize := int64(fileCount) * int64(indexEntrySize)
	payloadOffset := int64(headerSize) + indexTableSize

	// Assign offsets to each unique asset block, in original asset order,
	// and propagate them into every row that references that asset.
	blockOffsets := make([]int64, len(assets))
	offset := payloadOffset
	for i, b := range blocks {
		blockOffsets[i] = offset
		offset += int64(len(b.stored))
		_ = i
	}
	manifestOffset := offset

	flags := uint32(0)
	if compAlgo != uint32(codec.None) {
		flags |= flagCompressed
	}
	if encEnabled {
		flags |= flagEncrypted
	}

	for i := range rows {
		ai := rows[i].assetIx
		rows[i].entry.Offset = uint64(blockOffsets[ai])
		rows[i].entry.StoredSize = uint64(len(blocks[ai].stored))
		rows[i].entry.RawSize = uint64(blocks[ai].rawSize)
		rows[i].entry.Flags = flags
	}

	// Populate AssetEntry.{Offset,StoredSize,StoredHash} in the manifest.
	for i, a := range assets {
		byPath := m.Assets[a.Type]
		if byPath == nil {
			continue
		}
		entry := byPath[a.RelativePath]
		entry.Offset = blockOffsets[i]
		entry.StoredSize = int64(len(blocks[i].stored))
		entry.StoredHash = blocks[i].storedHash
		byPath[a.RelativePath] = entry
	}

	manifestJSON, err := json.Marshal(m)
	if err != nil {
		return abort(fmt.Errorf("marshal manifest: %w", err))
	}
	manifestComp, err := codec.New(codec.Algo(compAlgo))
	if err != nil {
		return abort(err)
	}
	manifestCompressed, err := manifestComp.Encode(manifestJSON, m.Compression.Level)
	if err != nil {
		return abort(err)
	}
	manifestStored, err := enc.Encrypt(manifestCompressed, cipher.Context{BundleName: m.Name})
	if err != nil {
		return abort(err)
	}

	hdr := header{
		FormatVersion:      FormatVersion,
		CompressionAlgo:    compAlgo,
		EncryptionFlags:    encodeEncryptionFlags(encEnabled, encAlgoTag),
		FileCount:          fileCount,
		ManifestOffset:     uint64(manifestOffset),
		ManifestStoredSize: uint64(len(manifestStored)),
		ManifestRawSize:    uint64(len(manifestJSON)),
		PayloadOffset:      uint64(payloadOffset),
	}

	if err := writeHeader(f, hdr); err != nil {
		return abort(err)
	}
	for _, r := range rows {
		if err := writeIndexEntry(f, r.entry); err != nil {
			return abort(err)
		}
	}
	for _, b := range blocks {
		if _, err := f.Write(b.stored); err != nil {
			return abort(err)
		}
	}
	if _, err := f.Write(manifestStored); err != nil {
		return abort(err)
	}

	if err := f.Sync(); err != nil {
		return abort(err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return quackerr.IO("failed to close temp bundle file", err)
	}
	if err := os.Rename(tmpPath, outputPath); err != nil {
		os.Remove(tmpPath)
		return quackerr.IO("failed to rename temp bundle into place", err)
	}
	return nil
}

func compressionTag(m *manifest.Manifest) uint32 {
	switch m.Compression.Algo {
	case "deflate":
		return uint32(codec.Deflate)
	case "lzma":
		return uint32(codec.LZMA)
	default:
		return uint32(codec.None)
	}
}

func cipherAlgoTag(algo cipher.Algo) uint32 {
	return uint32(algo)
}

func writeHeader(f *os.File, h header) error {
	buf := make([]byte, headerSize)
	// Magic is stored verbatim; it is conventionally read back as a
	// big-endian uint32 (0x51504B00) but the bytes themselves are fixed.
	copy(buf[0:4], Magic[:])
	binary.LittleEndian.PutUint32(buf[4:8], h.FormatVersion)
	binary.LittleEndian.PutUint32(buf[8:12], h.CompressionAlgo)
	binary.LittleEndian.PutUint32(buf[12:16], h.EncryptionFlags)
	binary.LittleEndian.PutUint32(buf[16:20], h.FileCount)
	binary.LittleEndian.PutUint64(buf[20:28], h.ManifestOffset)
	binary.LittleEndian.PutUint64(buf[28:36], h.ManifestStoredSize)
	binary.LittleEndian.PutUint64(buf[36:44], h.ManifestRawSize)
	binary.LittleEndian.PutUint64(buf[44:52], h.PayloadOffset)
	// buf[52:68] reserved, left zeroed.
	_, err := f.Write(buf)
	return err
}

func writeIndexEntry(f *os.File, e indexEntry) error {
	buf := make([]byte, indexEntrySize)
	copy(buf[0:16], e.PathHash[:])
	binary.LittleEndian.PutUint64(buf[16:24], e.Offset)
	binary.LittleEndian.PutUint64(buf[24:32], e.StoredSize)
	binary.LittleEndian.PutUint64(buf[32:40], e.RawSize)
	binary.LittleEndian.PutUint32(buf[40:44], e.Flags)
	binary.LittleEndian.PutUint32(buf[44:48], e.Reserved)
	_, err := f.Write(buf)
	return err
}

func lessBytes(a, b []byte) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
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
