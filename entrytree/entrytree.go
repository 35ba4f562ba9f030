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

// Package entrytree implements the entry tree: a bulk-loadable and
// incrementally-updatable B+-tree keyed on packed 24-bit trigram integers,
// mapping each key to its entry tuple.
//
// The tree shape (innerNode/leaf node-kind split, descend-and-split-on-the
// -way-down insertion) is adapted from the B+-tree indexer described in
// Ceylan & Mihalcea, "An Efficient Indexer for Large N-Gram Corpora" (ACL-HLT
// 2011) -- unlike that on-disk design, leaves here hold the (key, value)
// pairs directly in memory rather than a bucket-index/file-offset pair,
// since this tree is built once and never paged.
package entrytree

import (
	"sort"

	"github.com/gintrgm/gintrgm/trigram"
)

// entryTreeMax is the per-node capacity; minimum occupancy after a split
// is (entryTreeMax+1)/2.
const entryTreeMax = 20

// ETree is a B+-tree dictionary over packed trigram keys.
type ETree struct {
	root node
}

// New returns an empty ETree ready for incremental Insert calls.
func New() *ETree {
	return &ETree{root: &leaf{}}
}

// BulkLoad builds an ETree from pairs sorted by strictly increasing Pk.
// Shape mirrors posting.BulkLoad: partition into capacity-sized leaves,
// then group B+1 children into parents until a single root remains.
func BulkLoad(pairs []Pair) *ETree {
	if len(pairs) == 0 {
		return New()
	}
	assertSorted(pairs)

	var leaves []node
	for i := 0; i < len(pairs); i += entryTreeMax {
		end := i + entryTreeMax
		if end > len(pairs) {
			end = len(pairs)
		}
		leaves = append(leaves, &leaf{pairs: append([]Pair(nil), pairs[i:end]...)})
	}
	if n := len(leaves); n > 1 {
		entryTreeMin := (entryTreeMax + 1) / 2
		last := leaves[n-1].(*leaf)
		if len(last.pairs) < entryTreeMin {
			prev := leaves[n-2].(*leaf)
			prev.pairs = append(prev.pairs, last.pairs...)
			leaves = leaves[:n-1]
		}
	}

	level := leaves
	for len(level) > 1 {
		var parents []node
		for i := 0; i < len(level); i += entryTreeMax + 1 {
			end := i + entryTreeMax + 1
			if end > len(level) {
				end = len(level)
			}
			chunk := level[i:end]
			keys := make([]trigram.Pk, 0, len(chunk)-1)
			for _, c := range chunk[1:] {
				keys = append(keys, firstKey(c))
			}
			parents = append(parents, &innerNode{keys: keys, children: append([]node(nil), chunk...)})
		}
		level = parents
	}
	return &ETree{root: level[0]}
}

// Pair is a (key, value) tuple fed to BulkLoad in ascending key order.
type Pair struct {
	Key trigram.Pk
	Val any
}

func assertSorted(pairs []Pair) {
	for i := 1; i < len(pairs); i++ {
		if pairs[i-1].Key >= pairs[i].Key {
			panic("entrytree: BulkLoad requires strictly increasing keys")
		}
	}
}

func firstKey(n node) trigram.Pk {
	switch v := n.(type) {
	case *leaf:
		return v.pairs[0].Key
	case *innerNode:
		return firstKey(v.children[0])
	default:
		panic("entrytree: unknown node kind")
	}
}

// node is the tagged-union interface shared by leaf and innerNode.
type node interface {
	search(key trigram.Pk) (any, bool)
	insert(key trigram.Pk, val any) (split bool, left, right node, sep trigram.Pk)
	visit(func(n node))
}

type leaf struct {
	pairs []Pair
}

type innerNode struct {
	// keys[i] is the first key reachable through children[i+1].
	keys     []trigram.Pk
	children []node
}

func (l *leaf) search(key trigram.Pk) (any, bool) {
	i := sort.Search(len(l.pairs), func(i int) bool { return l.pairs[i].Key >= key })
	if i < len(l.pairs) && l.pairs[i].Key == key {
		return l.pairs[i].Val, true
	}
	return nil, false
}

func (l *leaf) insert(key trigram.Pk, val any) (bool, node, node, trigram.Pk) {
	i := sort.Search(len(l.pairs), func(i int) bool { return l.pairs[i].Key >= key })
	if i < len(l.pairs) && l.pairs[i].Key == key {
		l.pairs[i].Val = val // Duplicate key: overwrite in place.
		return false, nil, nil, 0
	}
	l.pairs = append(l.pairs, Pair{})
	copy(l.pairs[i+1:], l.pairs[i:])
	l.pairs[i] = Pair{Key: key, Val: val}

	if len(l.pairs) <= entryTreeMax {
		return false, nil, nil, 0
	}
	mid := (len(l.pairs) + 1) / 2
	left := &leaf{pairs: append([]Pair(nil), l.pairs[:mid]...)}
	right := &leaf{pairs: append([]Pair(nil), l.pairs[mid:]...)}
	return true, left, right, right.pairs[0].Key
}

func (l *leaf) visit(f func(n node)) { f(l) }

func (n *innerNode) childIndex(key trigram.Pk) int {
	return sort.Search(len(n.keys), func(i int) bool { return n.keys[i] > key })
}

func (n *innerNode) search(key trigram.Pk) (any, bool) {
	return n.children[n.childIndex(key)].search(key)
}

// insert recurses into the matching child first; if that recursive call
// reports a split, the promoted separator and new sibling are threaded into
// this node, which may in turn overflow and split itself.
func (n *innerNode) insert(key trigram.Pk, val any) (bool, node, node, trigram.Pk) {
	i := n.childIndex(key)
	if split, left, right, sep := n.children[i].insert(key, val); split {
		n.keys = append(n.keys, 0)
		copy(n.keys[i+1:], n.keys[i:])
		n.keys[i] = sep

		n.children = append(n.children, nil)
		copy(n.children[i+2:], n.children[i+1:])
		n.children[i] = left
		n.children[i+1] = right
	}

	if len(n.children) <= entryTreeMax+1 {
		return false, nil, nil, 0
	}
	mid := len(n.children) / 2
	leftChildren := append([]node(nil), n.children[:mid]...)
	rightChildren := append([]node(nil), n.children[mid:]...)
	leftKeys := append([]trigram.Pk(nil), n.keys[:mid-1]...)
	rightKeys := append([]trigram.Pk(nil), n.keys[mid:]...)
	promoted := n.keys[mid-1]
	return true, &innerNode{keys: leftKeys, children: leftChildren}, &innerNode{keys: rightKeys, children: rightChildren}, promoted
}

func (n *innerNode) visit(f func(n node)) {
	f(n)
	for _, c := range n.children {
		c.visit(f)
	}
}

// Insert adds or overwrites the value for key.
func (t *ETree) Insert(key trigram.Pk, val any) {
	if split, left, right, sep := t.root.insert(key, val); split {
		t.root = &innerNode{keys: []trigram.Pk{sep}, children: []node{left, right}}
	}
}

// Search returns the value for key, or (nil, false) if absent.
func (t *ETree) Search(key trigram.Pk) (any, bool) {
	return t.root.search(key)
}

// Size returns the number of keys in the tree.
func (t *ETree) Size() int {
	n := 0
	t.root.visit(func(nd node) {
		if l, ok := nd.(*leaf); ok {
			n += len(l.pairs)
		}
	})
	return n
}

// All iterates every (key, value) pair in ascending key order.
func (t *ETree) All(yield func(trigram.Pk, any) bool) {
	var walk func(n node) bool
	walk = func(n node) bool {
		switch v := n.(type) {
		case *leaf:
			for _, p := range v.pairs {
				if !yield(p.Key, p.Val) {
					return false
				}
			}
		case *innerNode:
			for _, c := range v.children {
				if !walk(c) {
					return false
				}
			}
		}
		return true
	}
	walk(t.root)
}

// LeafDepths returns the depth of every leaf, used by tests to verify the
// equal-leaf-depth invariant.
func (t *ETree) LeafDepths() []int {
	var out []int
	var walk func(n node, d int)
	walk = func(n node, d int) {
		switch v := n.(type) {
		case *leaf:
			out = append(out, d)
		case *innerNode:
			for _, c := range v.children {
				walk(c, d+1)
			}
		}
	}
	walk(t.root, 0)
	return out
}
