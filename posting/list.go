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

// Package posting implements the two representations an entry tuple's
// posting list can take: an inline sorted list (List) for small counts, and
// a bulk-loadable B+ tree (Tree) once the list would exceed the configured
// byte budget.
package posting

import (
	"sort"

	"github.com/RoaringBitmap/roaring"

	"github.com/gintrgm/gintrgm/trigram"
)

// List is a sorted, strictly increasing, duplicate-free run of row
// identifiers, built once and read many times.
type List struct {
	rids []trigram.Rid
}

// NewList builds a List from rids, which need not be sorted or unique:
// it sorts and deduplicates a copy, leaving rids unchanged. Most callers instead pass
// already-sorted input via NewSortedList.
func NewList(rids []trigram.Rid) *List {
	l := &List{rids: append([]trigram.Rid(nil), rids...)}
	l.sortDedup()
	return l
}

// NewSortedList wraps an already strictly-increasing slice without copying
// or re-sorting it. Callers must uphold the invariant themselves.
func NewSortedList(sorted []trigram.Rid) *List {
	return &List{rids: sorted}
}

func (l *List) sortDedup() {
	sort.Slice(l.rids, func(i, j int) bool { return l.rids[i] < l.rids[j] })
	out := l.rids[:0]
	var last trigram.Rid
	first := true
	for _, r := range l.rids {
		if first || r != last {
			out = append(out, r)
			last = r
			first = false
		}
	}
	l.rids = out
}

// Len returns the number of row identifiers in the list.
func (l *List) Len() int { return len(l.rids) }

// At returns the i-th row identifier in ascending order.
func (l *List) At(i int) trigram.Rid { return l.rids[i] }

// All returns the full ascending slice of row identifiers. Callers must not
// mutate the returned slice.
func (l *List) All() []trigram.Rid { return l.rids }

// SizeBytes is the logical size of the list's backing storage.
func (l *List) SizeBytes() int { return len(l.rids) * 4 }

// Roaring converts the list to a roaring bitmap, used by the query engine
// when intersecting more than two posting lists (see Intersect).
func (l *List) Roaring() *roaring.Bitmap {
	bm := roaring.New()
	for _, r := range l.rids {
		bm.Add(uint32(r))
	}
	return bm
}

// Intersect returns a new sorted List containing exactly the row
// identifiers present in every input list. It runs in O(total input size):
// pairwise two-pointer merges for two lists, and a roaring-bitmap AND for
// more than two. It short-circuits to empty as soon as any list is empty.
func Intersect(lists ...*List) *List {
	for _, l := range lists {
		if l.Len() == 0 {
			return NewSortedList(nil)
		}
	}
	switch len(lists) {
	case 0:
		return NewSortedList(nil)
	case 1:
		return NewSortedList(append([]trigram.Rid(nil), lists[0].rids...))
	case 2:
		return NewSortedList(intersect2(lists[0].rids, lists[1].rids))
	default:
		return intersectMany(lists)
	}
}

func intersect2(a, b []trigram.Rid) []trigram.Rid {
	out := make([]trigram.Rid, 0, min(len(a), len(b)))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	return out
}

func intersectMany(lists []*List) *List {
	bm := lists[0].Roaring()
	for _, l := range lists[1:] {
		bm.And(l.Roaring())
		if bm.IsEmpty() {
			return NewSortedList(nil)
		}
	}
	out := make([]trigram.Rid, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		out = append(out, trigram.Rid(it.Next()))
	}
	return NewSortedList(out)
}
