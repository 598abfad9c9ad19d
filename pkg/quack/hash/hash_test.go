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

package hash

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytesIsStableAndLowercase(t *testing.T) {
	got := Bytes([]byte("hello"))
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", got)
	assert.Equal(t, got, got) // deterministic across calls
}

func TestReaderMatchesBytes(t *testing.T) {
	data := []byte("the quick brown fox")
	want := Bytes(data)

	got, err := Reader(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCanonicalAssetRecordDeterministic(t *testing.T) {
	a := CanonicalAssetRecord("scripts/scene.js", "default", "abc123")
	b := CanonicalAssetRecord("scripts/scene.js", "default", "abc123")
	assert.Equal(t, a, b)

	c := CanonicalAssetRecord("scripts/scene.js", "en-us", "abc123")
	assert.NotEqual(t, a, c, "differing locale must change the digest")
}

func TestDigestRoundTrip(t *testing.T) {
	hex := Bytes([]byte("payload"))
	d := Digest(hex)
	assert.Equal(t, "sha256:"+hex, d.String())
	require.NoError(t, d.Validate())
}
