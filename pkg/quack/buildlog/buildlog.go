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

// Package buildlog implements the append-only, content-addressed record of
// every build a bundle has ever produced (§4.I). Records are never
// modified or deleted by the core; they are the Diff Engine's raw
// material and the audit trail a workspace reasons about.
package buildlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/quacktool/quack/pkg/quack/quackerr"
)

// BuildNumberEnv is the environment variable that, when set, becomes the
// build_id of every log this process appends (§6 "injected into the
// manifest's build_id when set").
const BuildNumberEnv = "BUILD_NUMBER"

// NewBuildID resolves one build's identifier: the BUILD_NUMBER
// environment variable if the caller's CI sets one, otherwise a fresh
// random identifier unique enough to never collide within a bundle's
// history.
func NewBuildID() string {
	if n := os.Getenv(BuildNumberEnv); n != "" {
		return n
	}
	return uuid.New().String()
}

// AssetRecord is one entry in a build log's asset table.
type AssetRecord struct {
	Hash    string    `json:"hash"`
	Size    int64     `json:"size"`
	Version string    `json:"version,omitempty"`
	MTime   time.Time `json:"mtime"`
	Locales []string  `json:"locales,omitempty"`
}

// Stats carries the build's own timing and ratio observations.
type Stats struct {
	ProcMS         float64  `json:"proc_ms"`
	CompressRatio  float64  `json:"compress_ratio"`
	Locales        []string `json:"locales"`
}

// Totals mirrors manifest.Totals so a build log is self-describing without
// importing the manifest package.
type Totals struct {
	Files int   `json:"files"`
	Size  int64 `json:"size"`
}

// Log is the content-addressed auxiliary record produced once per bundle
// build, kept alongside the bundle but never embedded in it.
type Log struct {
	BundleName    string                 `json:"bundle_name"`
	BundleVersion string                 `json:"bundle_version"`
	BuildID       string                 `json:"build_id"`
	CreatedAt     time.Time              `json:"created_at"`
	BundlePath    string                 `json:"bundle_path"`
	BundleHash    string                 `json:"bundle_hash"`
	Totals        Totals                 `json:"totals"`
	Assets        map[string]AssetRecord `json:"assets"` // relative_path -> record
	MerkleLevels  [][]string             `json:"merkle_levels"`
	MerkleRoot    string                 `json:"merkle_root"`
	BuildStats    Stats                  `json:"build_stats"`
}

// index is the small secondary lookup file giving O(1) build_id/version
// resolution without scanning the builds directory.
type index struct {
	ByVersion map[string]string `json:"by_version"`  // bundle_version -> filename
	ByBuildID map[string]string `json:"by_build_id"` // build_id -> filename
}

// Store manages the on-disk <out>/.quack/builds/<bundle_name>/ directory
// for one output root.
type Store struct {
	root string // <out>/.quack/builds
}

// NewStore returns a Store rooted at <outputRoot>/.quack/builds.
func NewStore(outputRoot string) *Store {
	return &Store{root: filepath.Join(outputRoot, ".quack", "builds")}
}

func (s *Store) bundleDir(bundleName string) string {
	return filepath.Join(s.root, bundleName)
}

func (s *Store) indexPath(bundleName string) string {
	return filepath.Join(s.bundleDir(bundleName), "index.json")
}

func logFileName(bundleVersion, buildID string) string {
	return fmt.Sprintf("%s-%s.json", bundleVersion, buildID)
}

// Append writes log as a new, immutable file and updates the bundle's
// secondary index. It never overwrites an existing build-id/version file.
func (s *Store) Append(log *Log) error {
	dir := s.bundleDir(log.BundleName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return quackerr.IO("failed to create build log directory", err)
	}

	fileName := logFileName(log.BundleVersion, log.BuildID)
	path := filepath.Join(dir, fileName)
	if _, err := os.Stat(path); err == nil {
		return quackerr.Validationf("build log already exists for version=%s build_id=%s", log.BundleVersion, log.BuildID)
	}

	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return quackerr.Wrap(quackerr.KindValidation, "failed to marshal build log", err)
	}
	if err := writeAtomic(path, data); err != nil {
		return err
	}

	idx, err := s.loadIndex(log.BundleName)
	if err != nil {
		return err
	}
	idx.ByVersion[log.BundleVersion] = fileName
	idx.ByBuildID[log.BuildID] = fileName
	return s.storeIndex(log.BundleName, idx)
}

// GetByVersion returns the most recently appended log for bundleVersion.
func (s *Store) GetByVersion(bundleName, bundleVersion string) (*Log, error) {
	idx, err := s.loadIndex(bundleName)
	if err != nil {
		return nil, err
	}
	fileName, ok := idx.ByVersion[bundleVersion]
	if !ok {
		return nil, quackerr.Validationf("no build log for bundle=%s version=%s", bundleName, bundleVersion)
	}
	return s.readLog(bundleName, fileName)
}

// GetByBuildID returns the log for a specific build_id.
func (s *Store) GetByBuildID(bundleName, buildID string) (*Log, error) {
	idx, err := s.loadIndex(bundleName)
	if err != nil {
		return nil, err
	}
	fileName, ok := idx.ByBuildID[buildID]
	if !ok {
		return nil, quackerr.Validationf("no build log for bundle=%s build_id=%s", bundleName, buildID)
	}
	return s.readLog(bundleName, fileName)
}

// List returns every build log for bundleName, sorted by file name
// (which sorts by bundle_version then build_id since both are
// lexically monotonic in the scenarios this store targets).
func (s *Store) List(bundleName string) ([]*Log, error) {
	dir := s.bundleDir(bundleName)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, quackerr.IO("failed to list build logs", err)
	}

	var logs []*Log
	for _, e := range entries {
		if e.IsDir() || e.Name() == "index.json" || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		l, err := s.readLog(bundleName, e.Name())
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, nil
}

func (s *Store) readLog(bundleName, fileName string) (*Log, error) {
	path := filepath.Join(s.bundleDir(bundleName), fileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, quackerr.IO("failed to read build log", err)
	}
	var l Log
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, quackerr.Wrap(quackerr.KindValidation, "failed to parse build log", err)
	}
	return &l, nil
}

func (s *Store) loadIndex(bundleName string) (*index, error) {
	path := s.indexPath(bundleName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &index{ByVersion: map[string]string{}, ByBuildID: map[string]string{}}, nil
	}
	if err != nil {
		return nil, quackerr.IO("failed to read build log index", err)
	}
	var idx index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, quackerr.Wrap(quackerr.KindValidation, "failed to parse build log index", err)
	}
	if idx.ByVersion == nil {
		idx.ByVersion = map[string]string{}
	}
	if idx.ByBuildID == nil {
		idx.ByBuildID = map[string]string{}
	}
	return &idx, nil
}

func (s *Store) storeIndex(bundleName string, idx *index) error {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return quackerr.Wrap(quackerr.KindValidation, "failed to marshal build log index", err)
	}
	return writeAtomic(s.indexPath(bundleName), data)
}

// writeAtomic writes data to a "<path>.tmp" file, fsyncs, then renames it
// onto path — the same commit pattern the QPK Writer uses (§4.G, §4.M).
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return quackerr.IO("failed to create temp file", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return quackerr.IO("failed to write temp file", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return quackerr.IO("failed to fsync temp file", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return quackerr.IO("failed to close temp file", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return quackerr.IO("failed to rename temp file into place", err)
	}
	return nil
}
