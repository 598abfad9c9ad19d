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

// Package codec implements the block compressor trait: none, deflate, and
// lzma, selected by algorithm tag the same way the wider packaging
// ecosystem resolves a codec type from a closed enum rather than runtime
// reflection.
package codec

import (
	"fmt"

	"github.com/quacktool/quack/pkg/quack/quackerr"
)

// Algo is the closed set of compression algorithms recognized by the wire
// format. Values match the on-disk compression_algo field of §4.G.
type Algo int

const (
	None Algo = iota
	Deflate
	LZMA
)

func (a Algo) String() string {
	switch a {
	case None:
		return "none"
	case Deflate:
		return "deflate"
	case LZMA:
		return "lzma"
	default:
		return fmt.Sprintf("algo(%d)", int(a))
	}
}

// ParseAlgo maps a config string to an Algo, rejecting anything outside
// the closed set eagerly (validation happens at the system boundary).
func ParseAlgo(s string) (Algo, error) {
	switch s {
	case "none", "":
		return None, nil
	case "deflate":
		return Deflate, nil
	case "lzma":
		return LZMA, nil
	default:
		return None, quackerr.Validationf("unsupported compression algo %q", s)
	}
}

// Codec encodes and decodes a single in-memory block. Implementations must
// satisfy decode(encode(x, level)) == x for any x and any valid level.
type Codec interface {
	// Type returns the algorithm this codec implements.
	Type() Algo

	// Encode compresses src at the given level (0-9; meaning is
	// algorithm-specific) and returns a self-contained byte block.
	Encode(src []byte, level int) ([]byte, error)

	// Decode reverses Encode. Truncated or malformed input yields a
	// quackerr CodecError rather than a panic.
	Decode(src []byte) ([]byte, error)
}

// New returns the Codec implementation for algo.
func New(algo Algo) (Codec, error) {
	switch algo {
	case None:
		return noneCodec{}, nil
	case Deflate:
		return deflateCodec{}, nil
	case LZMA:
		return lzmaCodec{memLimitMiB: defaultLZMAMemoryMiB}, nil
	default:
		return nil, quackerr.Validationf("unsupported compression algo %q", algo)
	}
}

// NewLZMAWithMemoryLimit returns an lzma Codec honoring a configured
// memory ceiling (QUACK_LZMA_MEMORY), instead of the 256 MiB default.
func NewLZMAWithMemoryLimit(memLimitMiB int) Codec {
	if memLimitMiB <= 0 {
		memLimitMiB = defaultLZMAMemoryMiB
	}
	return lzmaCodec{memLimitMiB: memLimitMiB}
}
