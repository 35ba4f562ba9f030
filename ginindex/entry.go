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

package ginindex

import (
	"github.com/gintrgm/gintrgm/posting"
	"github.com/gintrgm/gintrgm/trigram"
)

// Entry is the dictionary value stored per trigram: either the row-id
// list inline, or a pointer to a posting tree, per the MaxInlineBytes
// decision rule. Exactly one of Inline/Tree is non-nil.
type Entry struct {
	Inline *posting.List
	Tree   *posting.Tree
}

// List materializes the entry's full row-id list. For an inline entry this
// is the stored list itself; for a tree entry it's an enumeration of the
// whole posting tree.
func (e *Entry) List() *posting.List {
	if e.Inline != nil {
		return e.Inline
	}
	return posting.NewSortedList(e.Tree.Enumerate())
}

// SizeBytes is the entry's footprint, used only for diagnostics -- the
// inline/tree decision itself is made once, at build time, from the
// candidate list's size before an Entry is constructed.
func (e *Entry) SizeBytes() int {
	if e.Inline != nil {
		return e.Inline.SizeBytes()
	}
	return e.Tree.SizeBytes()
}

// newEntry picks inline vs tree representation for a sorted, deduplicated
// rid slice per opts.MaxInlineBytes.
func newEntry(rids []trigram.Rid, opts Options) Entry {
	if len(rids) <= opts.maxInlineCount() {
		return Entry{Inline: posting.NewSortedList(rids)}
	}
	treeOpts := posting.TreeOptions{
		LeafMin:    opts.leafMin(),
		LeafTarget: opts.leafTarget(),
		LeafMax:    opts.leafMax(),
		Branching:  opts.InternalBranchingFactor,
	}
	return Entry{Tree: posting.BulkLoad(rids, treeOpts)}
}
