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

// Recognized values for the format option (§6).
const (
	FormatQPK  = "qpk"
	FormatZip  = "zip"
	FormatAuto = "auto"
)

// ResolveFormat turns "auto" into a concrete format: qpk in production,
// zip otherwise (§6). production is the caller's own notion of
// environment. Bundle.Validate passes false and the CLI has no flag or
// environment variable that sets it, so there "auto" (or an empty
// format) resolves to zip.
func ResolveFormat(format string, production bool) (string, error) {
	switch format {
	case FormatQPK, FormatZip:
		return format, nil
	case FormatAuto, "":
		if production {
			return FormatQPK, nil
		}
		return FormatZip, nil
	default:
		return "", quackerr.Validationf("unsupported format %q", format)
	}
}
