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

import "github.com/quacktool/quack/pkg/quack/hash"

// pathHash returns the first 16 bytes of SHA-256 over the UTF-8 of
// relative_path || 0x00 || locale, used as the index table's search key.
func pathHash(relativePath, locale string) [pathHashSize]byte {
	raw := hash.Raw([]byte(relativePath + "\x00" + locale))
	var out [pathHashSize]byte
	copy(out[:], raw[:pathHashSize])
	return out
}
