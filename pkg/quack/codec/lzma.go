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

package codec

import (
	"bytes"
	"io"

	"github.com/ulikunitz/xz/lzma"

	"github.com/quacktool/quack/pkg/quack/quackerr"
)

// defaultLZMAMemoryMiB is the default decoder memory ceiling (§4.B), also
// exposed as the QUACK_LZMA_MEMORY environment override.
const defaultLZMAMemoryMiB = 256

// presetDictCapMiB maps level 0-9 to an LZMA1 dictionary size, mirroring
// the standard xz/7z preset ladder (doubling from 256 KiB at level 0 up
// to 64 MiB at level 9).
var presetDictCapMiB = [10]int{
	0: 0, // 256 KiB, handled specially below
	1: 1,
	2: 2,
	3: 4,
	4: 4,
	5: 8,
	6: 8,
	7: 16,
	8: 32,
	9: 64,
}

func dictCapForLevel(level, memLimitMiB int) int {
	mib := presetDictCapMiB[level]
	capBytes := mib << 20
	if mib == 0 {
		capBytes = 256 << 10
	}
	if limit := memLimitMiB << 20; capBytes > limit {
		capBytes = limit
	}
	return capBytes
}

// lzmaCodec implements the LZMA1 "alone" stream format: a properties
// byte, a 4-byte little-endian dictionary size, an 8-byte uncompressed
// size, then the compressed stream itself — a self-contained block with
// no external framing required to decode it.
type lzmaCodec struct {
	memLimitMiB int
}

func (lzmaCodec) Type() Algo { return LZMA }

func (c lzmaCodec) Encode(src []byte, level int) ([]byte, error) {
	if level < 0 || level > 9 {
		return nil, quackerr.Codec(LZMA.String(), "level must be 0-9")
	}

	limit := c.memLimitMiB
	if limit <= 0 {
		limit = defaultLZMAMemoryMiB
	}

	cfg := lzma.WriterConfig{
		DictCap:      dictCapForLevel(level, limit),
		Size:         int64(len(src)),
		SizeInHeader: true,
	}

	var buf bytes.Buffer
	w, err := cfg.NewWriter(&buf)
	if err != nil {
		return nil, quackerr.Codec(LZMA.String(), err.Error())
	}
	if _, err := w.Write(src); err != nil {
		return nil, quackerr.Codec(LZMA.String(), err.Error())
	}
	if err := w.Close(); err != nil {
		return nil, quackerr.Codec(LZMA.String(), err.Error())
	}
	return buf.Bytes(), nil
}

func (c lzmaCodec) Decode(src []byte) ([]byte, error) {
	limit := c.memLimitMiB
	if limit <= 0 {
		limit = defaultLZMAMemoryMiB
	}

	cfg := lzma.ReaderConfig{
		DictCap: limit << 20,
	}
	r, err := cfg.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, quackerr.Codec(LZMA.String(), "malformed lzma block: "+err.Error())
	}

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, quackerr.Codec(LZMA.String(), "truncated lzma stream: "+err.Error())
	}
	return out, nil
}
