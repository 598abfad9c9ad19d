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

// Package asset defines the canonical in-memory Asset record and the
// discoverer/extractor interfaces the core consumes but never implements
// itself: the core never walks a filesystem, it receives a finite,
// deterministic sequence of Asset values (§4.D, §6).
package asset

import (
	"context"
	"regexp"
	"time"
)

// Type is the closed set of top-level asset categories.
type Type string

const (
	TypeImages     Type = "images"
	TypeCharacters Type = "characters"
	TypeAudio      Type = "audio"
	TypeVideo      Type = "video"
	TypeScripts    Type = "scripts"
	TypeData       Type = "data"
)

// ValidTypes enumerates the closed set of asset types and their
// sub-types. The filesystem discoverer skips files outside it;
// manifest.Build does not check types against it.
var ValidTypes = map[Type][]string{
	TypeImages:     {"backgrounds", "cg", "ui"},
	TypeCharacters: {"sprites", "portraits"},
	TypeAudio:      {"bgm", "se", "voice"},
	TypeVideo:      {"cutscenes", "backgrounds"},
	TypeScripts:    {"scenario", "system"},
	TypeData:       {"config", "save", "misc"},
}

// LocaleRegexp is the restricted tag language from §3: "default" or an
// ISO-639-1 code, optionally with a region subtag.
var LocaleRegexp = regexp.MustCompile(`^(default|[a-z]{2}(-[a-z]{2})?)$`)

// DefaultLocale is assigned by the Manifest Builder when an asset omits
// locales and no override is configured.
const DefaultLocale = "default"

// MediaTag is a discriminated, advisory-only metadata record. Exactly one
// of Image, Audio, or Video is set; it is never used for codec decisions.
type MediaTag struct {
	Image *ImageTag
	Audio *AudioTag
	Video *VideoTag
}

type ImageTag struct {
	Width    int
	Height   int
	Animated bool
	Alpha    bool
	Depth    *int
}

type AudioTag struct {
	DurationMS int
	Format     string
	Rate       *int
	Channels   *int
	BitrateKbps *int
}

type VideoTag struct {
	Width      int
	Height     int
	DurationMS int
	Format     string
	FPS        *float64
	BitrateKbps *int
	Codec      *string
}

// Asset is the canonical representation of one discovered asset, before
// it has been written into a bundle.
type Asset struct {
	RelativePath string
	Type         Type
	SubType      string
	Locales      []string
	Size         int64
	ContentHash  string // lowercase-hex SHA-256 of Bytes, set by the caller.
	MTime        time.Time
	Version      string // semver MAJOR.MINOR.PATCH[-pre]
	MediaTag     *MediaTag

	// Bytes holds the raw content. It is consumed by the Writer and must
	// not be retained by downstream components past serialization.
	Bytes []byte
}

// Discoverer provides a deterministic sequence of assets for a given
// source directory snapshot. The core only consumes this interface; it
// never implements filesystem walking itself.
type Discoverer interface {
	Discover(ctx context.Context, sourceDir string, ignoreGlobs []string) ([]Asset, error)
}

// MediaExtractor extracts advisory MediaTag metadata for a single asset
// path. A nil tag and nil error both mean "unsupported, continue without
// metadata" — extraction errors are never fatal to the build.
type MediaExtractor interface {
	Extract(ctx context.Context, path string) (*MediaTag, error)
}

// Processor transforms an asset's bytes before compression (§6). It must
// be pure with respect to the bytes it returns.
type Processor interface {
	Process(ctx context.Context, a Asset, data []byte) ([]byte, error)
}
