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

package merkle

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleLeaves() []Leaf {
	return []Leaf{
		{RelativePath: "scripts/scene.js", Locale: "default", ContentHash: "h1"},
		{RelativePath: "scripts/scene.js", Locale: "en-us", ContentHash: "h2"},
		{RelativePath: "images/bg/a.png", Locale: "default", ContentHash: "h3"},
	}
}

func TestBuildDeterministicAcrossOrdering(t *testing.T) {
	leaves := sampleLeaves()
	want := Build(leaves).Root

	shuffled := make([]Leaf, len(leaves))
	copy(shuffled, leaves)
	r := rand.New(rand.NewSource(1))
	r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	got := Build(shuffled).Root
	assert.Equal(t, want, got)
}

func TestBuildOddCountPromotesLastElement(t *testing.T) {
	leaves := []Leaf{
		{RelativePath: "a", Locale: "default", ContentHash: "h1"},
		{RelativePath: "b", Locale: "default", ContentHash: "h2"},
		{RelativePath: "c", Locale: "default", ContentHash: "h3"},
	}
	tree := Build(leaves)
	// level0 has 3 leaves, level1 should have 2 entries: hash(l0,l1) and
	// the promoted l2, level2 (root) has 1.
	assert.Len(t, tree.Levels[0], 3)
	assert.Len(t, tree.Levels[1], 2)
	assert.Equal(t, tree.Levels[0][2], tree.Levels[1][1], "unpaired leaf must be promoted unchanged")
	assert.Len(t, tree.Levels[2], 1)
	assert.Equal(t, tree.Root, tree.Levels[2][0])
}

func TestBuildEmptyIsStable(t *testing.T) {
	a := Build(nil)
	b := Build([]Leaf{})
	assert.Equal(t, a.Root, b.Root)
}

func TestDifferentContentChangesRoot(t *testing.T) {
	leaves := sampleLeaves()
	r1 := Build(leaves).Root

	leaves[0].ContentHash = "different"
	r2 := Build(leaves).Root

	assert.NotEqual(t, r1, r2)
}
