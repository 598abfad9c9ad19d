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

// Package workspace maintains the single top-level index over a
// workspace's named bundles, their current versions, and their
// "latest" pointers (§4.J). All mutation is load-modify-store under an
// advisory exclusive lock on a sibling ".lock" file; in its absence the
// updater falls back to a version-cursor check so that two uncoordinated
// writers fail loudly (ConcurrentUpdate) rather than corrupt the index.
package workspace

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/quacktool/quack/pkg/quack/quackerr"
)

// LockRetryDelay is the poll interval used while waiting for the
// advisory lock to become available.
const LockRetryDelay = 100 * time.Millisecond

// BundleState is the per-bundle entry the workspace index tracks.
type BundleState struct {
	CurrentVersion string    `json:"current_version"`
	LatestBuildID  string    `json:"latest_build_id"`
	LatestHash     string    `json:"latest_hash"`
	LatestPath     string    `json:"latest_path"`
	UpdatedAt      time.Time `json:"updated_at"`
	// Cursor increments on every successful mutation of this bundle's
	// entry; ConcurrentUpdate detection compares it against the cursor
	// the caller last observed.
	Cursor int `json:"cursor"`
}

// Index is the persisted `<out>/.quack/workspace.json` document.
type Index struct {
	Name    string                 `json:"name"`
	Version string                 `json:"version"`
	Bundles map[string]BundleState `json:"bundles"`
}

// Store manages one workspace.json file plus its sibling .lock file.
type Store struct {
	path string
	lock *flock.Flock
}

// NewStore returns a Store rooted at <outputRoot>/.quack.
func NewStore(outputRoot string) (*Store, error) {
	dir := filepath.Join(outputRoot, ".quack")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, quackerr.IO("failed to create workspace directory", err)
	}
	path := filepath.Join(dir, "workspace.json")
	return &Store{
		path: path,
		lock: flock.New(path + ".lock"),
	}, nil
}

// Load reads the current index without acquiring the lock. Callers that
// intend to mutate should prefer Update.
func (s *Store) Load() (*Index, error) {
	return s.readIndex()
}

func (s *Store) readIndex() (*Index, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &Index{Bundles: map[string]BundleState{}}, nil
	}
	if err != nil {
		return nil, quackerr.IO("failed to read workspace index", err)
	}
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, quackerr.Wrap(quackerr.KindValidation, "failed to parse workspace index", err)
	}
	if idx.Bundles == nil {
		idx.Bundles = map[string]BundleState{}
	}
	return &idx, nil
}

// Mutator receives the current index and returns the mutated index to
// persist. Returning an error aborts the update, leaving the file
// untouched.
type Mutator func(idx *Index) (*Index, error)

// Update performs a locked load-modify-store cycle: it acquires the
// advisory lock, loads the current index, applies fn, increments the
// touched bundle's cursor, and writes the result back atomically. If the
// lock cannot be acquired within ctx the update is refused outright
// rather than silently skipping the lock.
func (s *Store) Update(ctx context.Context, bundleName string, fn Mutator) (*Index, error) {
	locked, err := s.lock.TryLockContext(ctx, LockRetryDelay)
	if err != nil {
		return nil, quackerr.Wrap(quackerr.KindIO, "failed to acquire workspace lock", err)
	}
	if !locked {
		return nil, quackerr.ConcurrentUpdate("workspace index is locked by another writer")
	}
	defer s.lock.Unlock()

	before, err := s.readIndex()
	if err != nil {
		return nil, err
	}
	beforeCursor := before.Bundles[bundleName].Cursor

	return s.commit(before, bundleName, beforeCursor, fn)
}

// UpdateWithCursor is the no-lock fallback path described in §4.J: a
// caller that already holds the index in memory (e.g. because it is
// coordinating externally) supplies the cursor it last observed, and the
// update is rejected with ConcurrentUpdate if the on-disk cursor has
// since moved — without ever touching the advisory lock.
func (s *Store) UpdateWithCursor(bundleName string, expectedCursor int, fn Mutator) (*Index, error) {
	before, err := s.readIndex()
	if err != nil {
		return nil, err
	}
	if before.Bundles[bundleName].Cursor != expectedCursor {
		return nil, quackerr.ConcurrentUpdate("workspace index bundle cursor has advanced since last load")
	}
	return s.commit(before, bundleName, expectedCursor, fn)
}

func (s *Store) commit(before *Index, bundleName string, beforeCursor int, fn Mutator) (*Index, error) {
	after, err := fn(before)
	if err != nil {
		return nil, err
	}

	state := after.Bundles[bundleName]
	state.Cursor = beforeCursor + 1
	state.UpdatedAt = state.UpdatedAt.UTC()
	after.Bundles[bundleName] = state

	data, err := json.MarshalIndent(after, "", "  ")
	if err != nil {
		return nil, quackerr.Wrap(quackerr.KindValidation, "failed to marshal workspace index", err)
	}
	if err := writeAtomic(s.path, data); err != nil {
		return nil, err
	}
	return after, nil
}

// RecordBuild is the common mutation performed after a successful bundle
// build (§4 "Ordering": build log and workspace index updates happen
// strictly after the rename).
func RecordBuild(bundleName, version, buildID, hash, path string, now time.Time) Mutator {
	return func(idx *Index) (*Index, error) {
		idx.Bundles[bundleName] = BundleState{
			CurrentVersion: version,
			LatestBuildID:  buildID,
			LatestHash:     hash,
			LatestPath:     path,
			UpdatedAt:      now,
		}
		return idx, nil
	}
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return quackerr.IO("failed to create temp workspace file", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return quackerr.IO("failed to write temp workspace file", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return quackerr.IO("failed to fsync temp workspace file", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return quackerr.IO("failed to close temp workspace file", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return quackerr.IO("failed to rename temp workspace file into place", err)
	}
	return nil
}
