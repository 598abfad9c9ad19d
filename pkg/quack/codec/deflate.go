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

package codec

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/flate"

	"github.com/quacktool/quack/pkg/quack/quackerr"
)

// deflateCodec emits headerless raw RFC-1951 streams; sizing (raw/stored)
// is carried externally in the manifest, not in the block itself.
type deflateCodec struct{}

func (deflateCodec) Type() Algo { return Deflate }

func (deflateCodec) Encode(src []byte, level int) ([]byte, error) {
	if level < 0 || level > 9 {
		return nil, quackerr.Codec(Deflate.String(), "level must be 0-9")
	}
	// klauspost/compress/flate reserves -1 for "default"; 0 still means
	// "no compression" as the spec requires, so map levels through as-is.
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, level)
	if err != nil {
		return nil, quackerr.Codec(Deflate.String(), err.Error())
	}
	if _, err := w.Write(src); err != nil {
		return nil, quackerr.Codec(Deflate.String(), err.Error())
	}
	if err := w.Close(); err != nil {
		return nil, quackerr.Codec(Deflate.String(), err.Error())
	}
	return buf.Bytes(), nil
}

func (deflateCodec) Decode(src []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(src))
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, quackerr.Codec(Deflate.String(), "truncated or malformed deflate stream: "+err.Error())
	}
	return out, nil
}
