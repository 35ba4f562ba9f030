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

package art

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gintrgm/gintrgm/trigram"
)

func tri(s string) trigram.Tri {
	var t trigram.Tri
	copy(t[:], s)
	return t
}

func TestPathCompression_CatCarCab(t *testing.T) {
	tr := New()
	tr.Insert(tri("cat"), 1)
	tr.Insert(tri("car"), 2)
	tr.Insert(tri("cab"), 3)

	n4, ok := tr.root.(*node4)
	require.True(t, ok, "root should be a node4 after three siblings under a shared prefix")
	assert.Equal(t, []byte("ca"), n4.prefix)
	assert.Equal(t, 3, n4.n)
	assert.Equal(t, []byte{'b', 'r', 't'}, n4.keys[:n4.n])

	for s, want := range map[string]any{"cat": 1, "car": 2, "cab": 3} {
		v, ok := tr.Search(tri(s))
		require.True(t, ok)
		assert.Equal(t, want, v)
	}

	_, ok = tr.Search(tri("cas"))
	assert.False(t, ok)
}

func TestInsertSearch_ManyRandomTrigrams(t *testing.T) {
	tr := New()
	rng := rand.New(rand.NewSource(7))
	want := make(map[trigram.Tri]int)
	for len(want) < 2000 {
		var b [3]byte
		rng.Read(b[:])
		k := trigram.Tri(b)
		if _, exists := want[k]; !exists {
			want[k] = len(want)
			tr.Insert(k, len(want)-1)
		}
	}
	for k, v := range want {
		got, ok := tr.Search(k)
		require.True(t, ok)
		assert.Equal(t, v, got)
	}

	var missing trigram.Tri
	for {
		var b [3]byte
		rng.Read(b[:])
		missing = trigram.Tri(b)
		if _, exists := want[missing]; !exists {
			break
		}
	}
	_, ok := tr.Search(missing)
	assert.False(t, ok)
}

func TestGrowthNode4ToNode256(t *testing.T) {
	tr := New()
	for i := 0; i < 200; i++ {
		tr.Insert(trigram.Tri{'x', 'y', byte(i)}, i)
	}
	for i := 0; i < 200; i++ {
		v, ok := tr.Search(trigram.Tri{'x', 'y', byte(i)})
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
}

func TestInsert_DuplicateOverwrites(t *testing.T) {
	tr := New()
	tr.Insert(tri("abc"), "first")
	tr.Insert(tri("abc"), "second")
	v, ok := tr.Search(tri("abc"))
	require.True(t, ok)
	assert.Equal(t, "second", v)
}

func TestAll_AscendingOrder(t *testing.T) {
	tr := New()
	inputs := []string{"zzz", "aaa", "mmm", "aab", "aaa"}
	for _, s := range inputs {
		tr.Insert(tri(s), s)
	}
	var got []string
	tr.All(func(k trigram.Tri, v any) bool {
		got = append(got, string(k[:]))
		return true
	})
	assert.Equal(t, []string{"aaa", "aab", "mmm", "zzz"}, got)
}

func TestBulkLoad_SearchAll(t *testing.T) {
	keys := []string{"aaa", "aab", "abc", "bbb", "cab", "car", "cat", "zzz"}
	pairs := make([]Pair, len(keys))
	for i, k := range keys {
		pairs[i] = Pair{Key: tri(k), Val: i}
	}
	tr := BulkLoad(pairs)

	for i, k := range keys {
		v, ok := tr.Search(tri(k))
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	_, ok := tr.Search(tri("zzy"))
	assert.False(t, ok)

	var got []string
	tr.All(func(k trigram.Tri, v any) bool {
		got = append(got, string(k[:]))
		return true
	})
	assert.Equal(t, keys, got)
}

// TestBulkLoad_PrefixFree checks that bulk-loaded inner nodes carry no
// compressed path prefix, using keys that diverge at the first byte so the
// root partitions straight into three leaves.
func TestBulkLoad_PrefixFree(t *testing.T) {
	pairs := []Pair{{Key: tri("aab"), Val: 1}, {Key: tri("bbb"), Val: 2}, {Key: tri("ccc"), Val: 3}}
	tr := BulkLoad(pairs)

	n4, ok := tr.root.(*node4)
	require.True(t, ok)
	assert.Empty(t, n4.prefix, "bulk-loaded inner nodes carry no compressed prefix")
	assert.Equal(t, []byte{'a', 'b', 'c'}, n4.keys[:n4.n])
}

// TestBulkLoad_SharedPrefixChain checks that keys sharing their first two
// bytes ("cab"/"car"/"cat") still build correctly when bulk-load's
// byte-at-a-time partitioning descends through single-child nodes before
// reaching the byte that finally distinguishes them.
func TestBulkLoad_SharedPrefixChain(t *testing.T) {
	pairs := []Pair{{Key: tri("cab"), Val: 1}, {Key: tri("car"), Val: 2}, {Key: tri("cat"), Val: 3}}
	tr := BulkLoad(pairs)

	for k, want := range map[string]any{"cab": 1, "car": 2, "cat": 3} {
		v, ok := tr.Search(tri(k))
		require.True(t, ok)
		assert.Equal(t, want, v)
	}
	_, ok := tr.Search(tri("cas"))
	assert.False(t, ok)
}

func TestBulkLoad_PanicsOnUnsorted(t *testing.T) {
	pairs := []Pair{{Key: tri("bbb"), Val: nil}, {Key: tri("aaa"), Val: nil}}
	assert.Panics(t, func() { BulkLoad(pairs) })
}

func TestAll_ShortCircuits(t *testing.T) {
	tr := New()
	for _, s := range []string{"aaa", "bbb", "ccc"} {
		tr.Insert(tri(s), s)
	}
	var got []string
	tr.All(func(k trigram.Tri, v any) bool {
		got = append(got, string(k[:]))
		return len(got) < 1
	})
	assert.Len(t, got, 1)
}
