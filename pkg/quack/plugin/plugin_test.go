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

package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCodec struct{}

func TestRegistryLookup(t *testing.T) {
	r, err := NewRegistry([]Registration{
		{Capability: CapabilityCodec, Algo: "rle", Impl: fakeCodec{}},
		{Capability: CapabilityCipher, Algo: "aes-gcm", Impl: "fake-cipher"},
	})
	require.NoError(t, err)

	impl, ok := r.Lookup(CapabilityCodec, "rle")
	require.True(t, ok)
	assert.IsType(t, fakeCodec{}, impl)

	_, ok = r.Lookup(CapabilityCodec, "unknown")
	assert.False(t, ok)
}

func TestRegistryRejectsDuplicate(t *testing.T) {
	_, err := NewRegistry([]Registration{
		{Capability: CapabilityCodec, Algo: "rle", Impl: fakeCodec{}},
		{Capability: CapabilityCodec, Algo: "rle", Impl: fakeCodec{}},
	})
	require.Error(t, err)
}

func TestRegistryListFiltersByCapability(t *testing.T) {
	r, err := NewRegistry([]Registration{
		{Capability: CapabilityCodec, Algo: "rle", Impl: fakeCodec{}},
		{Capability: CapabilityCipher, Algo: "aes-gcm", Impl: "fake-cipher"},
	})
	require.NoError(t, err)

	codecs := r.List(CapabilityCodec)
	assert.Len(t, codecs, 1)
	assert.Equal(t, "rle", codecs[0].Algo)
}

func TestNilRegistryLookupIsSafe(t *testing.T) {
	var r *Registry
	_, ok := r.Lookup(CapabilityCodec, "rle")
	assert.False(t, ok)
	assert.Nil(t, r.List(""))
}
