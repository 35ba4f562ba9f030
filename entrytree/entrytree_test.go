// Copyright 2024 Google Inc. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package entrytree

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gintrgm/gintrgm/trigram"
)

func assertEqualLeafDepths(t *testing.T, tr *ETree) {
	t.Helper()
	depths := tr.LeafDepths()
	require.NotEmpty(t, depths)
	for _, d := range depths[1:] {
		assert.Equal(t, depths[0], d)
	}
}

func TestBulkLoad_SearchAll(t *testing.T) {
	var pairs []Pair
	for i := 0; i < 500; i++ {
		pairs = append(pairs, Pair{Key: trigram.Pk(i), Val: i})
	}
	tr := BulkLoad(pairs)
	assertEqualLeafDepths(t, tr)

	for i := 0; i < 500; i++ {
		v, ok := tr.Search(trigram.Pk(i))
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	_, ok := tr.Search(trigram.Pk(500))
	assert.False(t, ok)
	assert.Equal(t, 500, tr.Size())
}

func TestBulkLoad_AllIsAscending(t *testing.T) {
	var pairs []Pair
	for _, k := range []int{5, 1, 9, 3, 7} {
		pairs = append(pairs, Pair{Key: trigram.Pk(k), Val: k})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Key < pairs[j].Key })
	tr := BulkLoad(pairs)

	var keys []trigram.Pk
	tr.All(func(k trigram.Pk, v any) bool {
		keys = append(keys, k)
		return true
	})
	assert.Equal(t, []trigram.Pk{1, 3, 5, 7, 9}, keys)
}

func TestInsert_GrowsFromEmpty(t *testing.T) {
	tr := New()
	rng := rand.New(rand.NewSource(42))
	perm := rng.Perm(3000)
	for _, k := range perm {
		tr.Insert(trigram.Pk(k), k*2)
	}
	assert.Equal(t, 3000, tr.Size())
	assertEqualLeafDepths(t, tr)

	for _, k := range []int{0, 1, 2999, 1500} {
		v, ok := tr.Search(trigram.Pk(k))
		require.True(t, ok)
		assert.Equal(t, k*2, v)
	}
	_, ok := tr.Search(trigram.Pk(3000))
	assert.False(t, ok)
}

func TestInsert_DuplicateOverwrites(t *testing.T) {
	tr := New()
	tr.Insert(7, "first")
	tr.Insert(7, "second")
	assert.Equal(t, 1, tr.Size())
	v, ok := tr.Search(7)
	require.True(t, ok)
	assert.Equal(t, "second", v)
}

func TestBulkLoad_PanicsOnUnsorted(t *testing.T) {
	pairs := []Pair{{Key: 2, Val: nil}, {Key: 1, Val: nil}}
	assert.Panics(t, func() { BulkLoad(pairs) })
}
