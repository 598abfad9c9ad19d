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

package config

import "github.com/quacktool/quack/pkg/quack/quackerr"

// Patch is the recognized option set for `patch create` (§6 CLI surface).
type Patch struct {
	BundleName  string
	FromVersion string
	ToVersion   string
	Output      string
	Compression Compression
	Encryption  Encryption
}

// NewPatch returns a Patch carrying the same compression/encryption
// defaults as a full bundle build.
func NewPatch() *Patch {
	return &Patch{
		Compression: NewCompression(FormatQPK),
		Encryption:  NewEncryption(),
	}
}

func (p *Patch) Validate() error {
	if p.BundleName == "" {
		return quackerr.Validation("patch bundle_name is required")
	}
	if p.FromVersion == "" || p.ToVersion == "" {
		return quackerr.Validation("patch requires both from_version and to_version")
	}
	if p.FromVersion == p.ToVersion {
		return quackerr.Validation("patch from_version and to_version must differ")
	}
	if p.Output == "" {
		return quackerr.Validation("patch output path is required")
	}
	if err := p.Compression.Validate(); err != nil {
		return err
	}
	return p.Encryption.Validate()
}
