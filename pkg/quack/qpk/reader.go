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
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/quacktool/quack/pkg/quack/cipher"
	"github.com/quacktool/quack/pkg/quack/codec"
	"github.com/quacktool/quack/pkg/quack/hash"
	"github.com/quacktool/quack/pkg/quack/manifest"
	"github.com/quacktool/quack/pkg/quack/quackerr"
)

// KeyResolver is called once per Handle when the manifest declares
// encryption and no literal key was supplied, mirroring cipher.ResolveKey
// on the producer side.
type KeyResolver func() (string, error)

// OpenOptions configures how a Handle resolves decryption.
type OpenOptions struct {
	// CipherKey is used verbatim if non-empty.
	CipherKey string
	// ResolveKey is consulted if CipherKey is empty.
	ResolveKey KeyResolver
	// Plugin satisfies encryption.algo=plugin.
	Plugin cipher.Cipher
}

// Handle is an open bundle: header, sorted index, and parsed manifest
// cached in memory, payload blocks read lazily on Extract (§4.H).
type Handle struct {
	f        *os.File
	hdr      header
	rows     []indexEntry
	manifest *manifest.Manifest
	dec      cipher.Cipher
	comp     codec.Codec
}

// Open validates the magic/header, reads the index table and manifest
// block, and resolves the decryption cipher declared by the manifest.
func Open(path string, opts OpenOptions) (*Handle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, quackerr.IO("failed to open bundle", err)
	}

	h, err := openHandle(f, opts)
	if err != nil {
		f.Close()
		return nil, err
	}
	return h, nil
}

func openHandle(f *os.File, opts OpenOptions) (*Handle, error) {
	hdr, err := readHeader(f)
	if err != nil {
		return nil, err
	}

	rows := make([]indexEntry, hdr.FileCount)
	for i := range rows {
		e, err := readIndexEntry(f)
		if err != nil {
			return nil, quackerr.Wrap(quackerr.KindCodec, "failed to read index entry", err)
		}
		rows[i] = e
	}

	// §4.H requires payload_offset + sum(stored_size) <= file_size to be
	// validated at Open time, so a truncated or hand-edited bundle fails
	// closed here instead of surfacing a lazy, per-asset read error.
	info, err := f.Stat()
	if err != nil {
		return nil, quackerr.IO("failed to stat bundle file", err)
	}
	payloadEnd := hdr.PayloadOffset
	for _, r := range rows {
		payloadEnd += r.StoredSize
	}
	if payloadEnd > uint64(info.Size()) {
		return nil, quackerr.Integrity(fmt.Sprintf(
			"payload_offset+stored_size (%d) exceeds file size (%d)", payloadEnd, info.Size()))
	}

	if _, err := f.Seek(int64(hdr.ManifestOffset), io.SeekStart); err != nil {
		return nil, quackerr.IO("failed to seek to manifest block", err)
	}
	manifestStored := make([]byte, hdr.ManifestStoredSize)
	if _, err := io.ReadFull(f, manifestStored); err != nil {
		return nil, quackerr.Wrap(quackerr.KindCodec, "truncated manifest block", err)
	}

	comp, err := codec.New(codec.Algo(hdr.CompressionAlgo))
	if err != nil {
		return nil, err
	}

	encEnabled, encAlgoTag := decodeEncryptionFlags(hdr.EncryptionFlags)
	dec, err := resolveConsumerCipher(encEnabled, cipher.Algo(encAlgoTag), opts)
	if err != nil {
		return nil, err
	}

	manifestComp, err := dec.Decrypt(manifestStored, cipher.Context{})
	if err != nil {
		return nil, quackerr.Wrap(quackerr.KindIntegrity, "failed to decrypt manifest block", err)
	}
	manifestJSON, err := comp.Decode(manifestComp)
	if err != nil {
		return nil, quackerr.Wrap(quackerr.KindCodec, "failed to decompress manifest block", err)
	}

	var m manifest.Manifest
	if err := json.Unmarshal(manifestJSON, &m); err != nil {
		return nil, quackerr.Wrap(quackerr.KindValidation, "failed to parse manifest JSON", err)
	}
	if err := manifest.Validate(&m); err != nil {
		return nil, err
	}

	return &Handle{f: f, hdr: hdr, rows: rows, manifest: &m, dec: dec, comp: comp}, nil
}

func resolveConsumerCipher(enabled bool, algo cipher.Algo, opts OpenOptions) (cipher.Cipher, error) {
	if !enabled {
		return cipher.NewConsumer(cipher.None, "", nil)
	}
	key := opts.CipherKey
	if key == "" && opts.ResolveKey != nil {
		k, err := opts.ResolveKey()
		if err != nil {
			return nil, err
		}
		key = k
	}
	if key == "" {
		resolved, err := cipher.ResolveKey("", nil)
		if err != nil {
			return nil, err
		}
		key = resolved
	}
	return cipher.NewConsumer(algo, key, opts.Plugin)
}

// Close releases the underlying file descriptor.
func (h *Handle) Close() error {
	return h.f.Close()
}

// Manifest returns the parsed, validated Manifest frozen at build time.
func (h *Handle) Manifest() *manifest.Manifest {
	return h.manifest
}

// Extract returns the fully decoded bytes for (relativePath, locale),
// verifying the result's SHA-256 against the manifest's content_hash
// before returning it (§4.H "Integrity on read").
func (h *Handle) Extract(relativePath, locale string) ([]byte, error) {
	if locale == "" {
		locale = h.manifest.DefaultLocale
	}
	entry, ok := lookupAssetEntry(h.manifest, relativePath, locale)
	if !ok {
		return nil, quackerr.Validationf("asset not found: path=%q locale=%q", relativePath, locale)
	}

	row, ok := h.findRow(relativePath, locale)
	if !ok {
		return nil, quackerr.Validationf("index entry not found: path=%q locale=%q", relativePath, locale)
	}

	stored := make([]byte, row.StoredSize)
	if _, err := h.f.ReadAt(stored, int64(row.Offset)); err != nil {
		return nil, quackerr.IO("failed to read payload block", err)
	}

	compressed, err := h.dec.Decrypt(stored, cipher.Context{AssetPath: relativePath, AssetType: string(entry.Type), BundleName: h.manifest.Name})
	if err != nil {
		return nil, quackerr.Wrap(quackerr.KindIntegrity, "failed to decrypt asset payload", err)
	}
	raw, err := h.comp.Decode(compressed)
	if err != nil {
		return nil, quackerr.Wrap(quackerr.KindCodec, "failed to decompress asset payload", err)
	}

	if entry.ContentHash != "" && hash.Bytes(raw) != entry.ContentHash {
		return nil, quackerr.Integrity(fmt.Sprintf("content hash mismatch for %q (locale=%q): manifest says %s", relativePath, locale, entry.ContentHash))
	}

	return raw, nil
}

// ExtractStream behaves like Extract but returns a reader over the fully
// decoded bytes rather than a slice, for callers streaming large assets
// without holding two copies live at once beyond the decode step itself.
func (h *Handle) ExtractStream(relativePath, locale string) (io.Reader, error) {
	raw, err := h.Extract(relativePath, locale)
	if err != nil {
		return nil, err
	}
	return &byteReader{b: raw}, nil
}

type byteReader struct {
	b   []byte
	pos int
}

func (r *byteReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.b) {
		return 0, io.EOF
	}
	n := copy(p, r.b[r.pos:])
	r.pos += n
	return n, nil
}

// findRow binary-searches the sorted index table by path_hash(path,locale).
func (h *Handle) findRow(relativePath, locale string) (indexEntry, bool) {
	key := pathHash(relativePath, locale)
	i := sort.Search(len(h.rows), func(i int) bool {
		return !lessBytes(h.rows[i].PathHash[:], key[:])
	})
	if i < len(h.rows) && h.rows[i].PathHash == key {
		return h.rows[i], true
	}
	return indexEntry{}, false
}

func lookupAssetEntry(m *manifest.Manifest, relativePath, locale string) (manifest.AssetEntry, bool) {
	for _, byPath := range m.Assets {
		entry, ok := byPath[relativePath]
		if !ok {
			continue
		}
		for _, loc := range entry.Locales {
			if loc == locale {
				return entry, true
			}
		}
	}
	return manifest.AssetEntry{}, false
}

func readHeader(f *os.File) (header, error) {
	buf := make([]byte, headerSize)
	if _, err := io.ReadFull(f, buf); err != nil {
		return header{}, quackerr.Wrap(quackerr.KindCodec, "truncated bundle header", err)
	}
	if string(buf[0:4]) != string(Magic[:]) {
		return header{}, quackerr.Codec("qpk", "bad magic bytes, not a QPK bundle")
	}
	h := header{
		FormatVersion:      binary.LittleEndian.Uint32(buf[4:8]),
		CompressionAlgo:    binary.LittleEndian.Uint32(buf[8:12]),
		EncryptionFlags:    binary.LittleEndian.Uint32(buf[12:16]),
		FileCount:          binary.LittleEndian.Uint32(buf[16:20]),
		ManifestOffset:     binary.LittleEndian.Uint64(buf[20:28]),
		ManifestStoredSize: binary.LittleEndian.Uint64(buf[28:36]),
		ManifestRawSize:    binary.LittleEndian.Uint64(buf[36:44]),
		PayloadOffset:      binary.LittleEndian.Uint64(buf[44:52]),
	}
	if h.FormatVersion != FormatVersion {
		return header{}, quackerr.VersionMismatch(FormatVersion, int(h.FormatVersion))
	}
	return h, nil
}

func readIndexEntry(f *os.File) (indexEntry, error) {
	buf := make([]byte, indexEntrySize)
	if _, err := io.ReadFull(f, buf); err != nil {
		return indexEntry{}, err
	}
	var e indexEntry
	copy(e.PathHash[:], buf[0:16])
	e.Offset = binary.LittleEndian.Uint64(buf[16:24])
	e.StoredSize = binary.LittleEndian.Uint64(buf[24:32])
	e.RawSize = binary.LittleEndian.Uint64(buf[32:40])
	e.Flags = binary.LittleEndian.Uint32(buf[40:44])
	e.Reserved = binary.LittleEndian.Uint32(buf[44:48])
	return e, nil
}
