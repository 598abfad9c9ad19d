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

package cipher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXORRoundTrip(t *testing.T) {
	c, err := NewProducer(XOR, "s3cr3t", nil)
	require.NoError(t, err)

	plain := []byte("the rain in spain falls mainly on the plain")
	enc, err := c.Encrypt(plain, Context{AssetPath: "scripts/a.js"})
	require.NoError(t, err)
	assert.NotEqual(t, plain, enc)

	dec, err := c.Decrypt(enc, Context{AssetPath: "scripts/a.js"})
	require.NoError(t, err)
	assert.Equal(t, plain, dec)
}

func TestXOREmptyKeyDowngradesOnProducer(t *testing.T) {
	c, err := NewProducer(XOR, "", nil)
	require.NoError(t, err)
	assert.Equal(t, None, c.Algo(), "empty key must silently downgrade to none on the producer side")
}

func TestXOREmptyKeyFailsOnConsumer(t *testing.T) {
	_, err := NewConsumer(XOR, "", nil)
	require.Error(t, err)
}

func TestResolveKeyOrder(t *testing.T) {
	t.Setenv(EncryptionKeyEnv, "from-env")

	key, err := ResolveKey("literal-key", func() (string, error) { return "from-generator", nil })
	require.NoError(t, err)
	assert.Equal(t, "literal-key", key)

	key, err = ResolveKey("", func() (string, error) { return "from-generator", nil })
	require.NoError(t, err)
	assert.Equal(t, "from-generator", key)

	key, err = ResolveKey("", nil)
	require.NoError(t, err)
	assert.Equal(t, "from-env", key)
}

func TestPluginRequiresRegisteredCipher(t *testing.T) {
	_, err := NewProducer(Plugin, "", nil)
	require.Error(t, err)
}
