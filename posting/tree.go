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

package posting

import (
	"sort"

	"github.com/gintrgm/gintrgm/trigram"
)

// TreeOptions configures the leaf-size envelope and internal branching
// factor of a Tree, derived from configured byte budgets for leaf
// capacity.
type TreeOptions struct {
	LeafMin    int
	LeafTarget int
	LeafMax    int
	Branching  int // B: internal node fanout, default 16
}

// DefaultTreeOptions is the midpoint size regime: SEG_MIN=256B,
// SEG_TARGET=800B, SEG_MAX=1600B at sizeof(Rid)=4.
func DefaultTreeOptions() TreeOptions {
	return TreeOptions{LeafMin: 64, LeafTarget: 200, LeafMax: 400, Branching: 16}
}

// treeNode is the tagged-union node of a posting Tree: exactly one of
// leaf or inner is populated at any time (modeled as a Go interface the
// way entrytree's node interface models its own two variants).
type treeNode interface {
	// find reports whether rid is present under this subtree.
	find(rid trigram.Rid) bool
	// insert adds rid to this subtree; if the subtree's root-level node
	// grows past capacity, insert returns a (left, right, sep) split for
	// the caller to install.
	insert(rid trigram.Rid, opts TreeOptions) (split bool, left, right treeNode, sep trigram.Rid)
	enumerate(out *[]trigram.Rid)
	sizeBytes() int
}

type treeLeaf struct {
	rids []trigram.Rid
}

type treeInner struct {
	// keys[i] is the first key reachable through children[i+1]; len(keys)
	// == len(children)-1. Every child's branching key (including the
	// first) is conceptually present as the child's own minimum.
	keys     []trigram.Rid
	children []treeNode
}

// Tree is a bulk-loadable and incrementally-insertable B+ tree over row
// identifiers. All leaves sit at the same depth; internal separators equal
// the minimum key of their right subtree.
type Tree struct {
	root treeNode
	opts TreeOptions
}

// BulkLoad partitions sorted (strictly increasing) input into contiguous
// leaves sized around LeafTarget (never exceeding LeafMax), absorbing a
// too-small trailing residue into the previous leaf, then repeatedly groups
// B children into parents until one root remains.
func BulkLoad(sorted []trigram.Rid, opts TreeOptions) *Tree {
	if len(sorted) == 0 {
		return &Tree{root: &treeLeaf{}, opts: opts}
	}
	assertSorted(sorted)

	var leaves []treeNode
	for i := 0; i < len(sorted); i += opts.LeafTarget {
		end := i + opts.LeafTarget
		if end > len(sorted) {
			end = len(sorted)
		}
		leaves = append(leaves, &treeLeaf{rids: append([]trigram.Rid(nil), sorted[i:end]...)})
	}
	if n := len(leaves); n > 1 {
		last := leaves[n-1].(*treeLeaf)
		if len(last.rids) < opts.LeafMin {
			prev := leaves[n-2].(*treeLeaf)
			prev.rids = append(prev.rids, last.rids...)
			leaves = leaves[:n-1]
		}
	}

	level := leaves
	for len(level) > 1 {
		var parents []treeNode
		for i := 0; i < len(level); i += opts.Branching {
			end := i + opts.Branching
			if end > len(level) {
				end = len(level)
			}
			chunk := level[i:end]
			keys := make([]trigram.Rid, 0, len(chunk)-1)
			for _, c := range chunk[1:] {
				keys = append(keys, firstKey(c))
			}
			parents = append(parents, &treeInner{keys: keys, children: append([]treeNode(nil), chunk...)})
		}
		level = parents
	}
	return &Tree{root: level[0], opts: opts}
}

func assertSorted(rids []trigram.Rid) {
	for i := 1; i < len(rids); i++ {
		if rids[i-1] >= rids[i] {
			panic("posting: BulkLoad requires strictly increasing input")
		}
	}
}

func firstKey(n treeNode) trigram.Rid {
	switch v := n.(type) {
	case *treeLeaf:
		return v.rids[0]
	case *treeInner:
		return firstKey(v.children[0])
	default:
		panic("posting: unknown node kind")
	}
}

// CreateFromSlice fills the root leaf with the first LeafTarget entries of
// rids and inserts the remainder incrementally, so that the
// "almost-inline" case (a row count just over the inline budget) becomes a
// single root leaf instead of triggering the bulk-load grouping machinery.
func CreateFromSlice(sorted []trigram.Rid, opts TreeOptions) *Tree {
	if len(sorted) == 0 {
		return &Tree{root: &treeLeaf{}, opts: opts}
	}
	assertSorted(sorted)
	n := opts.LeafTarget
	if n > len(sorted) {
		n = len(sorted)
	}
	t := &Tree{root: &treeLeaf{rids: append([]trigram.Rid(nil), sorted[:n]...)}, opts: opts}
	for _, r := range sorted[n:] {
		t.Insert(r)
	}
	return t
}

// Insert adds rid to the tree, descending to the leaf whose range contains
// it and splitting full leaves (and, transitively, full internal nodes) on
// the way back up. Duplicates collapse: inserting an existing rid is a
// no-op.
func (t *Tree) Insert(rid trigram.Rid) {
	if split, left, right, sep := t.root.insert(rid, t.opts); split {
		t.root = &treeInner{keys: []trigram.Rid{sep}, children: []treeNode{left, right}}
	}
}

// Contains reports whether rid is present in the tree.
func (t *Tree) Contains(rid trigram.Rid) bool {
	return t.root.find(rid)
}

// Enumerate returns every row identifier in the tree in ascending order.
func (t *Tree) Enumerate() []trigram.Rid {
	var out []trigram.Rid
	t.root.enumerate(&out)
	return out
}

// SizeBytes sums the per-node logical sizes of the tree.
func (t *Tree) SizeBytes() int { return t.root.sizeBytes() }

// --- treeLeaf ---

func (l *treeLeaf) find(rid trigram.Rid) bool {
	i := sort.Search(len(l.rids), func(i int) bool { return l.rids[i] >= rid })
	return i < len(l.rids) && l.rids[i] == rid
}

func (l *treeLeaf) insert(rid trigram.Rid, opts TreeOptions) (bool, treeNode, treeNode, trigram.Rid) {
	i := sort.Search(len(l.rids), func(i int) bool { return l.rids[i] >= rid })
	if i < len(l.rids) && l.rids[i] == rid {
		return false, nil, nil, 0 // Duplicate: silently idempotent.
	}
	l.rids = append(l.rids, 0)
	copy(l.rids[i+1:], l.rids[i:])
	l.rids[i] = rid

	if len(l.rids) <= opts.LeafMax {
		return false, nil, nil, 0
	}
	mid := (len(l.rids) + 1) / 2
	left := &treeLeaf{rids: append([]trigram.Rid(nil), l.rids[:mid]...)}
	right := &treeLeaf{rids: append([]trigram.Rid(nil), l.rids[mid:]...)}
	return true, left, right, right.rids[0]
}

func (l *treeLeaf) enumerate(out *[]trigram.Rid) {
	*out = append(*out, l.rids...)
}

func (l *treeLeaf) sizeBytes() int { return len(l.rids)*4 + 24 }

// --- treeInner ---

func (n *treeInner) childIndex(rid trigram.Rid) int {
	// Smallest separator strictly greater than rid selects the child;
	// keys[i] is the first key of children[i+1].
	i := sort.Search(len(n.keys), func(i int) bool { return n.keys[i] > rid })
	return i
}

func (n *treeInner) find(rid trigram.Rid) bool {
	return n.children[n.childIndex(rid)].find(rid)
}

func (n *treeInner) insert(rid trigram.Rid, opts TreeOptions) (bool, treeNode, treeNode, trigram.Rid) {
	i := n.childIndex(rid)
	if split, left, right, sep := n.children[i].insert(rid, opts); split {
		n.keys = append(n.keys, 0)
		copy(n.keys[i+1:], n.keys[i:])
		n.keys[i] = sep

		n.children = append(n.children, nil)
		copy(n.children[i+2:], n.children[i+1:])
		n.children[i] = left
		n.children[i+1] = right
	}

	if len(n.children) <= opts.Branching {
		return false, nil, nil, 0
	}
	mid := len(n.children) / 2
	leftChildren := append([]treeNode(nil), n.children[:mid]...)
	rightChildren := append([]treeNode(nil), n.children[mid:]...)
	leftKeys := append([]trigram.Rid(nil), n.keys[:mid-1]...)
	rightKeys := append([]trigram.Rid(nil), n.keys[mid:]...)
	promoted := n.keys[mid-1]
	left := &treeInner{keys: leftKeys, children: leftChildren}
	right := &treeInner{keys: rightKeys, children: rightChildren}
	return true, left, right, promoted
}

func (n *treeInner) enumerate(out *[]trigram.Rid) {
	for _, c := range n.children {
		c.enumerate(out)
	}
}

func (n *treeInner) sizeBytes() int {
	sz := 16
	for range n.keys {
		sz += 4
	}
	for range n.children {
		sz += 8
	}
	return sz
}

// LeafDepths returns the depth of every leaf reachable from the root, used
// by tests to verify the equal-leaf-depth invariant.
func (t *Tree) LeafDepths() []int {
	var out []int
	var walk func(n treeNode, d int)
	walk = func(n treeNode, d int) {
		switch v := n.(type) {
		case *treeLeaf:
			out = append(out, d)
		case *treeInner:
			for _, c := range v.children {
				walk(c, d+1)
			}
		}
	}
	walk(t.root, 0)
	return out
}
