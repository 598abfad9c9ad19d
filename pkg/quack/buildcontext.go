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

// Package quack resolves the per-build context snapshot described in §9's
// "Global mutable state → per-build context" design note: the handful of
// environment-derived values a build reads exactly once, then threads
// through the rest of the producer path as an immutable value rather than
// re-reading os.Getenv at every call site.
package quack

import (
	"os"
	"strconv"

	"github.com/quacktool/quack/pkg/quack/buildlog"
	"github.com/quacktool/quack/pkg/quack/cipher"
	"github.com/quacktool/quack/pkg/quack/quackerr"
)

// LZMAMemoryEnv is the environment variable giving the LZMA encoder's
// memory ceiling in MiB (§6).
const LZMAMemoryEnv = "QUACK_LZMA_MEMORY"

// DefaultLZMAMemoryMiB is used when neither configuration nor the
// environment overrides it (§4.B "default 256 MiB").
const DefaultLZMAMemoryMiB = 256

// BuildContext is the immutable snapshot resolved once at the start of a
// build and passed by value to every component that would otherwise
// reach for global mutable state or a package-level environment read.
// LZMAMemoryMiB is resolved here but is not passed on: the QPK writer
// and reader build their lzma codec with codec.New, which uses the
// 256 MiB default.
type BuildContext struct {
	EncryptionKey string
	LZMAMemoryMiB int
	BuildID       string
}

// NewBuildContext resolves the encryption key (literal config value, then
// generator, then QUACK_ENCRYPTION_KEY, per cipher.ResolveKey's order),
// the LZMA memory ceiling (explicit override, then QUACK_LZMA_MEMORY,
// then the default), and the build_id (BUILD_NUMBER, then a fresh
// identifier), exactly once.
func NewBuildContext(encryptionKeyLiteral string, keyGenerator func() (string, error), lzmaMemoryMiBOverride int) (*BuildContext, error) {
	key, err := cipher.ResolveKey(encryptionKeyLiteral, keyGenerator)
	if err != nil {
		return nil, err
	}

	mem := lzmaMemoryMiBOverride
	if mem <= 0 {
		mem = DefaultLZMAMemoryMiB
		if raw := os.Getenv(LZMAMemoryEnv); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				return nil, quackerr.Validationf("%s=%q is not a positive integer", LZMAMemoryEnv, raw)
			}
			mem = parsed
		}
	}

	return &BuildContext{
		EncryptionKey: key,
		LZMAMemoryMiB: mem,
		BuildID:       buildlog.NewBuildID(),
	}, nil
}
