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
	"github.com/quacktool/quack/pkg/quack/cipher"
	"github.com/quacktool/quack/pkg/quack/quackerr"
)

// Encryption is the recognized encryption.{enabled,algo,key,key_generator,
// plugin} option group (§6). KeyGeneratorCmd holds the configured key
// generator command; the CLI does not run it, and the bundle verb passes
// no generator to cipher.ResolveKey, so the key comes from Key or
// QUACK_ENCRYPTION_KEY.
type Encryption struct {
	Enabled         bool
	Algo            string
	Key             string
	KeyGeneratorCmd string
	Plugin          string
}

// NewEncryption returns disabled encryption, the recognized default.
func NewEncryption() Encryption {
	return Encryption{Enabled: false, Algo: "none"}
}

func (e Encryption) Validate() error {
	if !e.Enabled {
		return nil
	}
	if _, err := cipher.ParseAlgo(e.Algo); err != nil {
		return err
	}
	if e.Algo == "plugin" && e.Plugin == "" {
		return quackerr.Validation("encryption.plugin is required when encryption.algo=plugin")
	}
	return nil
}
