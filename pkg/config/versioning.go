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

// Recognized values for versioning.strategy (§6).
const (
	VersioningAuto   = "auto"
	VersioningManual = "manual"
)

// Versioning is the recognized versioning.{bundle_version,build_number,
// strategy} option group (§6).
type Versioning struct {
	BundleVersion string
	BuildNumber   string
	Strategy      string
}

// NewVersioning returns the manual-strategy default: the caller must
// supply BundleVersion explicitly unless Strategy is switched to auto.
func NewVersioning() Versioning {
	return Versioning{Strategy: VersioningManual}
}

func (v Versioning) Validate() error {
	switch v.Strategy {
	case VersioningAuto, VersioningManual, "":
	default:
		return quackerr.Validationf("unsupported versioning.strategy %q", v.Strategy)
	}
	if v.Strategy == VersioningManual && v.BundleVersion == "" {
		return quackerr.Validation("versioning.bundle_version is required when versioning.strategy=manual")
	}
	return nil
}
