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

// Package diff computes the minimal {add, modify, delete} set between two
// build logs by relative_path hash identity (§4.K). It never opens a
// bundle file; its only inputs are two buildlog.Log values.
package diff

import (
	"slices"
	"sort"

	"github.com/quacktool/quack/pkg/quack/buildlog"
)

// Modification describes one changed path.
type Modification struct {
	RelativePath string
	OldHash      string
	NewHash      string
}

// Diff is the ordered, deterministic result of comparing oldLog to
// newLog.
type Diff struct {
	Added    []string
	Modified []Modification
	Deleted  []string
}

// ChangeCount is added+modified+deleted, used by the Patch Writer to
// decide whether a patch is a no-op (still serialized, per §4.K).
func (d Diff) ChangeCount() int {
	return len(d.Added) + len(d.Modified) + len(d.Deleted)
}

// Compute builds the Diff between oldLog and newLog, keyed by
// relative_path. Output is ordered by relative_path ASCII for
// determinism (§4.K).
//
// A path whose content hash or recorded locale set changed is reported
// as a Modified entry on the same relative_path (so a path that moves
// between locales with unchanged content still appears, with OldHash ==
// NewHash); the Patch Writer expands a Modified entry into the
// per-(path,locale) Add/Delete operations for locales that left or
// arrived. Locale sets are compared in recorded order, which
// manifest.Build keeps sorted.
func Compute(oldLog, newLog *buildlog.Log) Diff {
	var d Diff

	for path := range newLog.Assets {
		if _, ok := oldLog.Assets[path]; !ok {
			d.Added = append(d.Added, path)
		}
	}
	for path := range oldLog.Assets {
		if _, ok := newLog.Assets[path]; !ok {
			d.Deleted = append(d.Deleted, path)
		}
	}
	for path, oldRec := range oldLog.Assets {
		newRec, ok := newLog.Assets[path]
		if !ok {
			continue
		}
		if oldRec.Hash != newRec.Hash || !slices.Equal(oldRec.Locales, newRec.Locales) {
			d.Modified = append(d.Modified, Modification{
				RelativePath: path,
				OldHash:      oldRec.Hash,
				NewHash:      newRec.Hash,
			})
		}
	}

	sort.Strings(d.Added)
	sort.Strings(d.Deleted)
	sort.Slice(d.Modified, func(i, j int) bool {
		return d.Modified[i].RelativePath < d.Modified[j].RelativePath
	})

	return d
}
