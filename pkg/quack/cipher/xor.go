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

package cipher

import "github.com/quacktool/quack/pkg/quack/quackerr"

// xorCipher is a repeating-key XOR obfuscation scheme. It is its own
// inverse, so Encrypt and Decrypt share one implementation.
type xorCipher struct {
	key []byte
}

func (xorCipher) Algo() Algo { return XOR }

func (c xorCipher) transform(data []byte) ([]byte, error) {
	if len(c.key) == 0 {
		return nil, quackerr.EncryptionKeyMissing("xor cipher configured with an empty key")
	}
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ c.key[i%len(c.key)]
	}
	return out, nil
}

func (c xorCipher) Encrypt(plain []byte, _ Context) ([]byte, error) {
	return c.transform(plain)
}

func (c xorCipher) Decrypt(cipherText []byte, _ Context) ([]byte, error) {
	return c.transform(cipherText)
}
