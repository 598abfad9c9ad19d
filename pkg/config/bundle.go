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

// Package config holds the typed, validated configuration structs that
// realize the recognized option table of §6. Each struct pairs a
// constructor carrying the recognized defaults with a Validate method,
// the same shape as the teacher's per-verb build configuration; binding
// these fields from flags or a viper-backed file is the CLI layer's job,
// not the core's.
package config

import (
	"path/filepath"
	"strings"

	"github.com/quacktool/quack/pkg/quack/manifest"
	"github.com/quacktool/quack/pkg/quack/quackerr"
)

// Bundle is the recognized option set for a single-bundle build (§6).
type Bundle struct {
	Source      string
	Output      string
	Format      string
	Compression Compression
	Encryption  Encryption
	Versioning  Versioning
	Ignore      []string
	Plugins     []string

	// DefaultLocale overrides the asset package's "default" when the
	// source tree ships only localized variants.
	DefaultLocale string
}

// NewBundle returns a Bundle carrying the recognized defaults: qpk
// format, lzma@6 compression, encryption disabled, manual versioning.
func NewBundle() *Bundle {
	return &Bundle{
		Format:      FormatQPK,
		Compression: NewCompression(FormatQPK),
		Encryption:  NewEncryption(),
		Versioning:  NewVersioning(),
	}
}

// Validate rejects a malformed Bundle eagerly, before the discoverer or
// Writer ever run (§7 "Validation is reported eagerly").
func (b *Bundle) Validate() error {
	if b.Source == "" {
		return quackerr.Validation("source directory is required")
	}
	if b.Output == "" {
		return quackerr.Validation("output path is required")
	}

	format, err := ResolveFormat(b.Format, false)
	if err != nil {
		return err
	}
	b.Format = format
	if format == FormatQPK && filepath.Ext(b.Output) != ".qpk" {
		b.Output += ".qpk"
	}
	if format == FormatZip && b.Encryption.Enabled {
		return quackerr.Validation("zip format does not support encryption; use format=qpk")
	}

	if err := b.Compression.Validate(); err != nil {
		return err
	}
	if err := b.Encryption.Validate(); err != nil {
		return err
	}
	if err := b.Versioning.Validate(); err != nil {
		return err
	}
	if err := manifest.ValidateIgnoreGlobs(b.Ignore); err != nil {
		return err
	}
	for _, p := range b.Plugins {
		if strings.TrimSpace(p) == "" {
			return quackerr.Validation("plugins entries must not be blank")
		}
	}
	return nil
}
