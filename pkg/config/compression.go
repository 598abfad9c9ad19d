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

import (
	"fmt"

	"github.com/quacktool/quack/pkg/quack/codec"
)

// Compression is the recognized compression.{algo,level} option group
// (§6). Level meaning is algorithm-specific; both codecs accept 0-9.
type Compression struct {
	Algo  string
	Level int
}

// NewCompression returns the default for format: qpk defaults to
// lzma@6, zip to deflate@6 (§6).
func NewCompression(format string) Compression {
	if format == FormatZip {
		return Compression{Algo: "deflate", Level: 6}
	}
	return Compression{Algo: "lzma", Level: 6}
}

func (c Compression) Validate() error {
	if _, err := codec.ParseAlgo(c.Algo); err != nil {
		return err
	}
	if c.Level < 0 || c.Level > 9 {
		return fmt.Errorf("compression.level must be between 0 and 9, got %d", c.Level)
	}
	return nil
}
