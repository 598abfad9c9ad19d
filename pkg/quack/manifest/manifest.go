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

// Package manifest builds and validates the per-bundle Manifest record
// that the QPK Writer freezes at entry and the QPK Reader parses back
// verbatim (§4.E).
package manifest

import (
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/quacktool/quack/pkg/quack/asset"
	"github.com/quacktool/quack/pkg/quack/quackerr"
)

var semverRegexp = regexp.MustCompile(`^\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?$`)

// Compression records the codec selection for the whole bundle.
type Compression struct {
	Algo  string
	Level int
}

// Encryption records the cipher selection for the whole bundle.
type Encryption struct {
	Enabled bool
	Algo    string
}

// Totals summarizes the bundle's asset population. Files counts distinct
// (type, relative_path) entries, not raw per-locale inputs: an asset
// reused across several locales with identical content is one file.
type Totals struct {
	Files int
	Size  int64
}

// Perf carries advisory, non-binding load-time estimates (§4.E).
type Perf struct {
	EstLoadMS         float64
	EstDecompressMS   float64
	EstMemoryBytes    int64
}

// WorkspaceMeta is present only when the bundle is produced as part of a
// multi-bundle workspace (§3, §6 workspace.*).
type WorkspaceMeta struct {
	BundleName  string
	Display     string
	Priority    int
	Deps        []string
	LoadTrigger string
}

// AssetEntry is an Asset minus its raw bytes, plus the storage metadata
// the Writer populates once the blob has been serialized.
type AssetEntry struct {
	RelativePath string
	Type         asset.Type
	SubType      string
	Locales      []string
	Size         int64
	ContentHash  string
	MTime        time.Time
	Version      string
	MediaTag     *asset.MediaTag

	// Populated by the Writer.
	Offset     int64
	StoredSize int64
	StoredHash string
}

// OpKind is the closed set of per-asset operations a patch manifest may
// carry (§4.L).
type OpKind string

const (
	OpAdd    OpKind = "add"
	OpModify OpKind = "modify"
	OpDelete OpKind = "delete"
)

// Op is one entry in a patch manifest's operations list. Add and Modify
// carry a corresponding payload block in the patch bundle; Delete does
// not.
type Op struct {
	Kind         OpKind
	RelativePath string
	Locale       string
}

// PatchMeta is the manifest extension §4.L adds on top of the ordinary
// bundle manifest: the patch's own pre/post Merkle-root preconditions and
// its operation list. Present only when the Manifest describes a patch
// bundle rather than a full bundle.
type PatchMeta struct {
	FromVersion    string
	ToVersion      string
	FromMerkleRoot string
	ToMerkleRoot   string
	Operations     []Op
}

// Manifest is the per-bundle metadata record described in §3.
type Manifest struct {
	Name           string
	BundleVersion  string
	BuildID        string
	CreatedAt      time.Time
	FormatTag      string
	Compression    Compression
	Encryption     Encryption
	Locales        []string
	DefaultLocale  string
	MerkleRoot     string
	Totals         Totals
	Assets         map[asset.Type]map[string]AssetEntry // type -> relative_path -> entry
	Perf           *Perf
	Workspace      *WorkspaceMeta
	Patch          *PatchMeta
}

// Options configures Build.
type Options struct {
	Name          string
	BundleVersion string
	BuildID       string
	CreatedAt     time.Time
	FormatTag     string
	Compression   Compression
	Encryption    Encryption
	DefaultLocale string
	EstimatePerf  bool
	Workspace     *WorkspaceMeta

	// Ignore carries the glob patterns the discoverer was given. The
	// Builder does not re-run discovery against them — the discoverer
	// already applied them — but it validates their syntax eagerly so a
	// typo'd pattern fails the build instead of silently matching
	// nothing (§7 "Validation is reported eagerly").
	Ignore []string

	// AllowEmpty permits a zero-asset build, used only for a no-op patch
	// bundle (§4.K "Empty diff yields a patch with change_count = 0,
	// which the Writer still serializes").
	AllowEmpty bool
}

// ValidateIgnoreGlobs rejects any pattern doublestar cannot parse,
// surfacing the typo at configuration time rather than as a discoverer
// that silently matches nothing.
func ValidateIgnoreGlobs(patterns []string) error {
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return quackerr.Validationf("ignore pattern %q is not a valid glob", pattern)
		}
	}
	return nil
}

// Build is the pure function (assets[], options) -> Manifest described in
// §4.E. It rejects the build eagerly on any locale, collision, or semver
// violation, leaving no side effects (§7 "Validation is reported
// eagerly").
func Build(assets []asset.Asset, opts Options) (*Manifest, error) {
	if len(assets) == 0 && !opts.AllowEmpty {
		return nil, quackerr.Validation("no assets")
	}

	if err := ValidateIgnoreGlobs(opts.Ignore); err != nil {
		return nil, err
	}

	defaultLocale := opts.DefaultLocale
	if defaultLocale == "" {
		defaultLocale = asset.DefaultLocale
	}

	if !semverRegexp.MatchString(opts.BundleVersion) {
		return nil, quackerr.Validationf("bundle_version %q is not valid semver", opts.BundleVersion)
	}

	// group collects every raw asset discovered under the same
	// relative_path (one per locale, typically) so they can be merged
	// into the single AssetEntry the map below has room for.
	type group struct {
		first   asset.Asset
		locales map[string]struct{}
	}

	seen := make(map[string]struct{}, len(assets))
	localeSet := make(map[string]struct{})
	groups := make(map[string]*group)
	var order []string
	var totalSize int64

	for _, a := range assets {
		locales := a.Locales
		if len(locales) == 0 {
			locales = []string{defaultLocale}
		}
		for _, loc := range locales {
			if !asset.LocaleRegexp.MatchString(loc) {
				return nil, quackerr.Validationf("asset %q has invalid locale %q", a.RelativePath, loc)
			}
			key := a.RelativePath + "\x00" + loc
			if _, dup := seen[key]; dup {
				return nil, quackerr.Validationf("duplicate asset key (path=%q, locale=%q)", a.RelativePath, loc)
			}
			seen[key] = struct{}{}
			localeSet[loc] = struct{}{}
		}

		if opts.BuildID != "" && a.Version != "" && !semverRegexp.MatchString(a.Version) {
			return nil, quackerr.Validationf("asset %q has invalid version %q", a.RelativePath, a.Version)
		}

		g, ok := groups[a.RelativePath]
		if !ok {
			g = &group{first: a, locales: make(map[string]struct{}, len(locales))}
			groups[a.RelativePath] = g
			order = append(order, a.RelativePath)
		} else {
			if g.first.Type != a.Type {
				return nil, quackerr.Validationf("asset %q declared under conflicting types %q and %q", a.RelativePath, g.first.Type, a.Type)
			}
			if g.first.ContentHash != a.ContentHash {
				return nil, quackerr.Validationf(
					"asset %q has conflicting content_hash across locales (%s vs %s); assets sharing a relative_path must share content — give differently-translated content a distinct relative_path",
					a.RelativePath, g.first.ContentHash, a.ContentHash)
			}
		}
		for _, loc := range locales {
			g.locales[loc] = struct{}{}
		}
	}

	byType := make(map[asset.Type]map[string]AssetEntry)
	for _, path := range order {
		g := groups[path]
		entryLocales := make([]string, 0, len(g.locales))
		for l := range g.locales {
			entryLocales = append(entryLocales, l)
		}
		sort.Strings(entryLocales)

		if byType[g.first.Type] == nil {
			byType[g.first.Type] = make(map[string]AssetEntry)
		}
		byType[g.first.Type][path] = AssetEntry{
			RelativePath: path,
			Type:         g.first.Type,
			SubType:      g.first.SubType,
			Locales:      entryLocales,
			Size:         g.first.Size,
			ContentHash:  g.first.ContentHash,
			MTime:        g.first.MTime,
			Version:      g.first.Version,
			MediaTag:     g.first.MediaTag,
		}
		totalSize += g.first.Size
	}

	locales := make([]string, 0, len(localeSet))
	for l := range localeSet {
		locales = append(locales, l)
	}
	sort.Strings(locales)

	m := &Manifest{
		Name:          opts.Name,
		BundleVersion: opts.BundleVersion,
		BuildID:       opts.BuildID,
		CreatedAt:     opts.CreatedAt,
		FormatTag:     opts.FormatTag,
		Compression:   opts.Compression,
		Encryption:    opts.Encryption,
		Locales:       locales,
		DefaultLocale: defaultLocale,
		Totals:        Totals{Files: len(order), Size: totalSize},
		Assets:        byType,
		Workspace:     opts.Workspace,
	}

	if opts.EstimatePerf {
		m.Perf = estimatePerf(totalSize, opts.Compression.Algo)
	}

	return m, nil
}

// estimatePerf reproduces the formulae of §4.E mechanically. These are
// hints calibrated to a particular runtime, never decision inputs.
func estimatePerf(totalSize int64, algo string) *Perf {
	const mib = 16 * 1024 * 1024
	sizeMB := float64(totalSize) / 1_000_000

	var decompressFactor float64
	switch algo {
	case "lzma":
		decompressFactor = 30
	case "deflate":
		decompressFactor = 10
	default:
		decompressFactor = 0
	}

	memBytes := totalSize
	if memBytes < mib {
		memBytes = mib
	}

	return &Perf{
		EstLoadMS:       sizeMB * 10,
		EstDecompressMS: sizeMB * decompressFactor,
		EstMemoryBytes:  memBytes,
	}
}

// Validate re-checks a Manifest parsed back from a bundle (the Reader
// path), confirming it still satisfies the invariants the Builder
// enforced at write time.
func Validate(m *Manifest) error {
	if m.Totals.Files == 0 && m.Patch == nil {
		return quackerr.Validation("no assets")
	}
	if !semverRegexp.MatchString(m.BundleVersion) {
		return quackerr.Validationf("bundle_version %q is not valid semver", m.BundleVersion)
	}
	count := 0
	for _, byPath := range m.Assets {
		for _, entry := range byPath {
			for _, loc := range entry.Locales {
				if !asset.LocaleRegexp.MatchString(loc) {
					return quackerr.Validationf("asset %q has invalid locale %q", entry.RelativePath, loc)
				}
			}
			count++
		}
	}
	if count != m.Totals.Files {
		return quackerr.Validation(fmt.Sprintf("totals.files=%d does not match %d asset entries", m.Totals.Files, count))
	}
	return nil
}
