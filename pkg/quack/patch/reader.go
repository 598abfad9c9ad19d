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

package patch

import (
	"github.com/quacktool/quack/pkg/quack/manifest"
	"github.com/quacktool/quack/pkg/quack/qpk"
	"github.com/quacktool/quack/pkg/quack/quackerr"
)

// Handle wraps an open patch bundle, exposing its Patch extension
// alongside the ordinary qpk.Handle operations for Add/Modify payloads.
type Handle struct {
	*qpk.Handle
}

// Open opens path as a patch bundle, rejecting it if its manifest does
// not carry a Patch extension.
func Open(path string, opts qpk.OpenOptions) (*Handle, error) {
	h, err := qpk.Open(path, opts)
	if err != nil {
		return nil, err
	}
	if h.Manifest().Patch == nil {
		h.Close()
		return nil, quackerr.Validation("bundle is not a patch: manifest has no patch extension")
	}
	return &Handle{Handle: h}, nil
}

// Patch returns the patch extension of the open bundle's manifest.
func (h *Handle) Patch() *manifest.PatchMeta {
	return h.Manifest().Patch
}

// ExtractOp returns the decoded payload for an Add or Modify operation.
// Calling it for a Delete operation is a validation error since Delete
// carries no payload block (§4.L).
func (h *Handle) ExtractOp(op manifest.Op) ([]byte, error) {
	if op.Kind == manifest.OpDelete {
		return nil, quackerr.Validation("delete operations carry no payload")
	}
	return h.Extract(op.RelativePath, op.Locale)
}
