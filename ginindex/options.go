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

// Package ginindex ties the posting representation (package posting) and
// the two dictionary implementations (packages entrytree and art) together
// into the entry tuple and the tuple builder that bulk-loads a read-only
// dictionary from a row source.
package ginindex

import "flag"

// DictionaryKind selects which dictionary implementation backs a built
// index: the packed-key B+-tree (entry tree) or the raw-byte Adaptive
// Radix Tree.
type DictionaryKind string

const (
	DictEntryTree DictionaryKind = "entry_tree"
	DictART       DictionaryKind = "art"
)

// Options configures a build: the inline/tree decision threshold, the
// posting-tree leaf-size envelope, the internal branching factor, and the
// dictionary implementation. A plain struct with a DefaultOptions
// constructor and a Flags method rather than a functional-options API.
type Options struct {
	// MaxInlineBytes is the byte budget that decides inline vs
	// posting-tree for an entry tuple.
	MaxInlineBytes int

	// SegTargetBytes, SegMaxBytes, SegMinBytes are the posting-tree leaf
	// target/max/min sizes in bytes; divided by sizeof(Rid)=4 to yield
	// LEAF_TARGET/LEAF_MAX/LEAF_MIN.
	SegTargetBytes int
	SegMaxBytes    int
	SegMinBytes    int

	// InternalBranchingFactor is the posting-tree internal fanout (default
	// 16). The entry tree does not use it; its node size is a fixed 20.
	InternalBranchingFactor int

	// DictionaryKind selects entry_tree or art.
	DictionaryKind DictionaryKind
}

// DefaultOptions is the midpoint size regime: SEG_MIN=256B,
// SEG_TARGET=800B, SEG_MAX=1600B, MAX_INLINE_BYTES=384, at sizeof(Rid)=4.
func DefaultOptions() Options {
	return Options{
		MaxInlineBytes:          384,
		SegTargetBytes:          800,
		SegMaxBytes:             1600,
		SegMinBytes:             256,
		InternalBranchingFactor: 16,
		DictionaryKind:          DictEntryTree,
	}
}

// Flags registers o's fields as command-line flags on fs.
func (o *Options) Flags(fs *flag.FlagSet) {
	fs.IntVar(&o.MaxInlineBytes, "max-inline-bytes", o.MaxInlineBytes, "byte budget up to which an entry tuple's posting list is stored inline")
	fs.IntVar(&o.SegTargetBytes, "seg-target-bytes", o.SegTargetBytes, "target posting-tree leaf size in bytes")
	fs.IntVar(&o.SegMaxBytes, "seg-max-bytes", o.SegMaxBytes, "maximum posting-tree leaf size in bytes")
	fs.IntVar(&o.SegMinBytes, "seg-min-bytes", o.SegMinBytes, "minimum posting-tree leaf size in bytes, below which a trailing leaf is absorbed")
	fs.IntVar(&o.InternalBranchingFactor, "branching-factor", o.InternalBranchingFactor, "internal branching factor for posting trees")
	fs.StringVar((*string)(&o.DictionaryKind), "dict", string(o.DictionaryKind), "dictionary implementation: entry_tree or art")
}

const ridSize = 4

func (o Options) maxInlineCount() int { return o.MaxInlineBytes / ridSize }
func (o Options) leafTarget() int     { return o.SegTargetBytes / ridSize }
func (o Options) leafMax() int        { return o.SegMaxBytes / ridSize }
func (o Options) leafMin() int        { return o.SegMinBytes / ridSize }
