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

package workspace

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateRecordsNewBundle(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	idx, err := store.Update(context.Background(), "demo", RecordBuild("demo", "1.0.0", "build-1", "hash1", "out/demo.qpk", time.Unix(0, 0)))
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", idx.Bundles["demo"].CurrentVersion)
	assert.Equal(t, 1, idx.Bundles["demo"].Cursor)
}

func TestUpdateIncrementsCursorAcrossCalls(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	_, err = store.Update(context.Background(), "demo", RecordBuild("demo", "1.0.0", "build-1", "hash1", "out/demo.qpk", time.Unix(0, 0)))
	require.NoError(t, err)
	idx, err := store.Update(context.Background(), "demo", RecordBuild("demo", "1.1.0", "build-2", "hash2", "out/demo.qpk", time.Unix(0, 0)))
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Bundles["demo"].Cursor)
	assert.Equal(t, "1.1.0", idx.Bundles["demo"].CurrentVersion)
}

func TestUpdateWithCursorRejectsStaleCursor(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	_, err = store.Update(context.Background(), "demo", RecordBuild("demo", "1.0.0", "build-1", "hash1", "out/demo.qpk", time.Unix(0, 0)))
	require.NoError(t, err)

	_, err = store.UpdateWithCursor("demo", 0, RecordBuild("demo", "1.1.0", "build-2", "hash2", "out/demo.qpk", time.Unix(0, 0)))
	require.Error(t, err)
}

func TestUpdateWithCursorAcceptsMatchingCursor(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	idx, err := store.Update(context.Background(), "demo", RecordBuild("demo", "1.0.0", "build-1", "hash1", "out/demo.qpk", time.Unix(0, 0)))
	require.NoError(t, err)
	cursor := idx.Bundles["demo"].Cursor

	_, err = store.UpdateWithCursor("demo", cursor, RecordBuild("demo", "1.1.0", "build-2", "hash2", "out/demo.qpk", time.Unix(0, 0)))
	require.NoError(t, err)
}

func TestLoadOnMissingFileReturnsEmptyIndex(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	idx, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, idx.Bundles)
}
