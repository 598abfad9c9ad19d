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

// Package plugin replaces the dynamic capability lookup described in §9's
// design note ("Plugin registry -> trait objects") with an ordered
// registry of Registration values built once per build (the bundle verb
// builds it when a bundle selects a plugin cipher), rather than a type
// switch re-evaluated on every call.
package plugin

import (
	"fmt"

	"github.com/quacktool/quack/pkg/quack/quackerr"
)

// Capability is the closed set of extension points a plugin may fill.
type Capability string

const (
	CapabilityCodec     Capability = "codec"
	CapabilityCipher    Capability = "cipher"
	CapabilityProcessor Capability = "processor"
)

// Registration binds one (capability, algorithm tag) pair to the
// concrete implementation value the caller registered. Impl is typed
// `any` here; callers type-assert to codec.Codec / cipher.Cipher /
// asset.Processor at the point of use, exactly once per build.
type Registration struct {
	Capability Capability
	Algo       string
	Impl       any
}

// Registry is an ordered, immutable-after-build set of registrations,
// looked up by (capability, algo) in O(1) via an internal map — built
// once per build, per §9 "registration record built at configuration
// time", never mutated mid-build.
type Registry struct {
	order []Registration
	byKey map[string]Registration
}

func key(cap Capability, algo string) string {
	return fmt.Sprintf("%s:%s", cap, algo)
}

// NewRegistry builds a Registry from an ordered list of registrations.
// Registering the same (capability, algo) pair twice is a configuration
// error: the ambiguity must be resolved by the caller, not by
// last-write-wins.
func NewRegistry(regs []Registration) (*Registry, error) {
	r := &Registry{byKey: make(map[string]Registration, len(regs))}
	for _, reg := range regs {
		k := key(reg.Capability, reg.Algo)
		if _, dup := r.byKey[k]; dup {
			return nil, quackerr.Validationf("duplicate plugin registration for capability=%s algo=%s", reg.Capability, reg.Algo)
		}
		r.byKey[k] = reg
		r.order = append(r.order, reg)
	}
	return r, nil
}

// Lookup returns the registered implementation for (capability, algo).
func (r *Registry) Lookup(cap Capability, algo string) (any, bool) {
	if r == nil {
		return nil, false
	}
	reg, ok := r.byKey[key(cap, algo)]
	if !ok {
		return nil, false
	}
	return reg.Impl, true
}

// List returns registrations in registration order, restricted to cap if
// cap is non-empty.
func (r *Registry) List(cap Capability) []Registration {
	if r == nil {
		return nil
	}
	if cap == "" {
		out := make([]Registration, len(r.order))
		copy(out, r.order)
		return out
	}
	var out []Registration
	for _, reg := range r.order {
		if reg.Capability == cap {
			out = append(out, reg)
		}
	}
	return out
}
