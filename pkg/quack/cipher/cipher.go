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

// Package cipher implements the symmetric transform trait: none, xor, and
// a pluggable escape hatch for caller-supplied schemes. Order within a
// block is fixed by the caller (qpk writer/reader): compress first, then
// encrypt; decrypt first, then decompress.
package cipher

import (
	"os"

	"github.com/quacktool/quack/pkg/quack/quackerr"
)

// EncryptionKeyEnv is the environment variable consulted for the xor key
// when none is supplied through configuration.
const EncryptionKeyEnv = "QUACK_ENCRYPTION_KEY"

// Algo is the closed set of cipher algorithms recognized by the wire
// format's encryption_flags byte.
type Algo int

const (
	None Algo = iota
	XOR
	Plugin
)

func (a Algo) String() string {
	switch a {
	case None:
		return "none"
	case XOR:
		return "xor"
	case Plugin:
		return "plugin"
	default:
		return "unknown"
	}
}

// ParseAlgo maps a config string to an Algo, rejecting anything outside
// the closed set eagerly.
func ParseAlgo(s string) (Algo, error) {
	switch s {
	case "none", "":
		return None, nil
	case "xor":
		return XOR, nil
	case "plugin":
		return Plugin, nil
	default:
		return None, quackerr.Validationf("unsupported encryption algo %q", s)
	}
}

// Context carries the read-only fields a keyed pluggable cipher may use
// to derive a per-asset key or tweak.
type Context struct {
	AssetPath  string
	AssetType  string
	BundleName string
}

// Cipher encrypts and decrypts a single in-memory block, already
// compressed by the caller.
type Cipher interface {
	Algo() Algo
	Encrypt(plain []byte, ctx Context) ([]byte, error)
	Decrypt(cipherText []byte, ctx Context) ([]byte, error)
}

// ResolveKey implements the producer-side key resolution order: literal
// config value, then a key generator, then the QUACK_ENCRYPTION_KEY
// environment variable. It is read once per build and passed by value
// (§5 "Shared resources"), never re-read mid-build.
func ResolveKey(literal string, generator func() (string, error)) (string, error) {
	if literal != "" {
		return literal, nil
	}
	if generator != nil {
		key, err := generator()
		if err != nil {
			return "", err
		}
		if key != "" {
			return key, nil
		}
	}
	return os.Getenv(EncryptionKeyEnv), nil
}

// NewProducer returns the Cipher to use when writing a bundle. An
// empty/absent key silently downgrades xor to none, per §4.C.
func NewProducer(algo Algo, key string, plugin Cipher) (Cipher, error) {
	switch algo {
	case None:
		return noneCipher{}, nil
	case XOR:
		if key == "" {
			return noneCipher{}, nil
		}
		return xorCipher{key: []byte(key)}, nil
	case Plugin:
		if plugin == nil {
			return nil, quackerr.Validation("encryption.algo=plugin requires a registered plugin cipher")
		}
		return plugin, nil
	default:
		return nil, quackerr.Validationf("unsupported cipher algo %q", algo)
	}
}

// NewConsumer returns the Cipher to use when reading a bundle whose
// manifest declares encryption. Unlike the producer side, a missing key
// is fatal: the manifest already committed to an algorithm.
func NewConsumer(algo Algo, key string, plugin Cipher) (Cipher, error) {
	switch algo {
	case None:
		return noneCipher{}, nil
	case XOR:
		if key == "" {
			return nil, quackerr.EncryptionKeyMissing("manifest declares xor encryption but no key was resolved")
		}
		return xorCipher{key: []byte(key)}, nil
	case Plugin:
		if plugin == nil {
			return nil, quackerr.EncryptionKeyMissing("manifest declares plugin encryption but no plugin cipher was registered")
		}
		return plugin, nil
	default:
		return nil, quackerr.Validationf("unsupported cipher algo %q", algo)
	}
}
