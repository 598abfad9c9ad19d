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

// Package version holds the build-time identifiers stamped into the
// binary via -ldflags; each defaults to a development placeholder when
// the build does not set it.
package version

import (
	"fmt"
	"runtime"
)

var (
	GitVersion = "dev"
	GitCommit  = "unknown"
	Platform   = fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
	BuildTime  = "unknown"

	// ContainerFormat is the wire format version this binary writes and
	// reads (§3), unrelated to GitVersion.
	ContainerFormat = 1
)
