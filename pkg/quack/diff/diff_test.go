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

package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quacktool/quack/pkg/quack/buildlog"
)

func TestComputeAddModifyDelete(t *testing.T) {
	oldLog := &buildlog.Log{
		Assets: map[string]buildlog.AssetRecord{
			"a.json": {Hash: "h1"},
			"b.json": {Hash: "h2"},
			"c.json": {Hash: "h3"},
		},
	}
	newLog := &buildlog.Log{
		Assets: map[string]buildlog.AssetRecord{
			"a.json": {Hash: "h1"},       // unchanged
			"b.json": {Hash: "h2-new"},   // modified
			"d.json": {Hash: "h4"},       // added
		},
	}

	d := Compute(oldLog, newLog)
	assert.Equal(t, []string{"d.json"}, d.Added)
	assert.Equal(t, []string{"c.json"}, d.Deleted)
	assert.Equal(t, []Modification{{RelativePath: "b.json", OldHash: "h2", NewHash: "h2-new"}}, d.Modified)
	assert.Equal(t, 3, d.ChangeCount())
}

func TestComputeEmptyDiffHasZeroChangeCount(t *testing.T) {
	log := &buildlog.Log{Assets: map[string]buildlog.AssetRecord{"a.json": {Hash: "h1"}}}
	d := Compute(log, log)
	assert.Equal(t, 0, d.ChangeCount())
	assert.Empty(t, d.Added)
	assert.Empty(t, d.Modified)
	assert.Empty(t, d.Deleted)
}

func TestComputeOrdersOutputByPath(t *testing.T) {
	oldLog := &buildlog.Log{Assets: map[string]buildlog.AssetRecord{}}
	newLog := &buildlog.Log{
		Assets: map[string]buildlog.AssetRecord{
			"z.json": {Hash: "h1"},
			"a.json": {Hash: "h2"},
			"m.json": {Hash: "h3"},
		},
	}
	d := Compute(oldLog, newLog)
	assert.Equal(t, []string{"a.json", "m.json", "z.json"}, d.Added)
}
