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

type noneCipher struct{}

func (noneCipher) Algo() Algo { return None }

func (noneCipher) Encrypt(plain []byte, _ Context) ([]byte, error) {
	out := make([]byte, len(plain))
	copy(out, plain)
	return out, nil
}

func (noneCipher) Decrypt(cipherText []byte, _ Context) ([]byte, error) {
	out := make([]byte, len(cipherText))
	copy(out, cipherText)
	return out, nil
}
