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

// Package hash provides the single stable digest used across the core: a
// lowercase-hex SHA-256, computed with the SIMD-accelerated implementation
// the rest of the example pack reaches for over crypto/sha256.
package hash

import (
	"encoding/hex"
	"io"

	sha256 "github.com/minio/sha256-simd"
	godigest "github.com/opencontainers/go-digest"
)

// Size is the digest length in bytes.
const Size = sha256.Size

// Bytes returns the lowercase-hex SHA-256 digest of b.
func Bytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Raw returns the raw 32-byte SHA-256 digest of b.
func Raw(b []byte) [Size]byte {
	return sha256.Sum256(b)
}

// Reader streams r through SHA-256, returning the lowercase-hex digest.
// It only fails on IO exhaustion from the reader.
func Reader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Digest wraps a hex digest as a typed OCI-style digest (sha256:<hex>) for
// callers that want to interoperate with content-addressing conventions
// from the wider ecosystem without retyping the algorithm prefix by hand.
func Digest(hexDigest string) godigest.Digest {
	return godigest.NewDigestFromEncoded(godigest.SHA256, hexDigest)
}

// CanonicalAssetRecord hashes the fixed-order, NUL-separated fields that
// identify an asset leaf: relative_path || 0x00 || locale || 0x00 ||
// content_hash. No length prefix is used because every field already has
// a terminator in this context (the separator itself, or end of input).
func CanonicalAssetRecord(relativePath, locale, contentHash string) string {
	buf := make([]byte, 0, len(relativePath)+len(locale)+len(contentHash)+2)
	buf = append(buf, relativePath...)
	buf = append(buf, 0x00)
	buf = append(buf, locale...)
	buf = append(buf, 0x00)
	buf = append(buf, contentHash...)
	return Bytes(buf)
}
