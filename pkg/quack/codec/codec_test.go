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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTripAllAlgos(t *testing.T) {
	payloads := map[string][]byte{
		"empty":      {},
		"short":      []byte("hi"),
		"repetitive": bytes.Repeat([]byte("ab"), 5000),
		"binary":     {0x00, 0xff, 0x10, 0x00, 0x00, 0x7f},
	}

	for _, algo := range []Algo{None, Deflate, LZMA} {
		algo := algo
		for name, data := range payloads {
			t.Run(algo.String()+"/"+name, func(t *testing.T) {
				c, err := New(algo)
				require.NoError(t, err)

				encoded, err := c.Encode(data, 6)
				require.NoError(t, err)

				decoded, err := c.Decode(encoded)
				require.NoError(t, err)
				assert.True(t, bytes.Equal(data, decoded))
			})
		}
	}
}

func TestLZMACompressesRepetitiveInput(t *testing.T) {
	data := bytes.Repeat([]byte("ab"), 5000) // 10,000 bytes, matches S3 scenario
	c, err := New(LZMA)
	require.NoError(t, err)

	encoded, err := c.Encode(data, 6)
	require.NoError(t, err)
	assert.Less(t, len(encoded), 200, "highly repetitive input should compress well under LZMA")

	decoded, err := c.Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
}

func TestDecodeRejectsTruncatedBlock(t *testing.T) {
	c, err := New(Deflate)
	require.NoError(t, err)

	encoded, err := c.Encode([]byte(strings.Repeat("hello world ", 50)), 6)
	require.NoError(t, err)

	_, err = c.Decode(encoded[:len(encoded)-3])
	require.Error(t, err)
}

func TestParseAlgoRejectsUnknown(t *testing.T) {
	_, err := ParseAlgo("bzip2")
	require.Error(t, err)
}

func TestEncodeRejectsInvalidLevel(t *testing.T) {
	c, err := New(Deflate)
	require.NoError(t, err)

	_, err = c.Encode([]byte("x"), 42)
	require.Error(t, err)
}
