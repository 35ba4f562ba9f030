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
	"runtime"
	"sort"

	"github.com/sourcegraph/log"
	"golang.org/x/sync/errgroup"

	"github.com/gintrgm/gintrgm/art"
	"github.com/gintrgm/gintrgm/entrytree"
	"github.com/gintrgm/gintrgm/posting"
	"github.com/gintrgm/gintrgm/rowstore"
	"github.com/gintrgm/gintrgm/trigram"
)

// dictionary is the narrow interface Index needs from whichever
// implementation (entrytree or art) backs it -- entry_tree keys on the
// packed 24-bit integer, art keys on the raw 3-byte trigram directly.
type dictionary interface {
	lookup(t trigram.Tri) (Entry, bool)
	size() int
}

type entryTreeDict struct{ t *entrytree.ETree }

func (d entryTreeDict) lookup(t trigram.Tri) (Entry, bool) {
	v, ok := d.t.Search(trigram.Pack(t))
	if !ok {
		return Entry{}, false
	}
	return v.(Entry), true
}
func (d entryTreeDict) size() int { return d.t.Size() }

type artDict struct{ t *art.Tree }

func (d artDict) lookup(t trigram.Tri) (Entry, bool) {
	v, ok := d.t.Search(t)
	if !ok {
		return Entry{}, false
	}
	return v.(Entry), true
}

// size is not tracked incrementally by art.Tree, so it walks All and counts
// every leaf on each call.
func (d artDict) size() int {
	n := 0
	d.t.All(func(trigram.Tri, any) bool { n++; return true })
	return n
}

// Index is a built, read-only dictionary of trigram -> entry tuple: the
// product of a Builder run, handed to query.Engine alongside the row store
// it was built from.
type Index struct {
	dict dictionary
	opts Options
}

// Lookup returns the materialized posting list for a required trigram, or
// (nil, false) if the trigram never occurs in any indexed row.
func (ix *Index) Lookup(t trigram.Tri) (*posting.List, bool) {
	e, ok := ix.dict.lookup(t)
	if !ok {
		return nil, false
	}
	return e.List(), true
}

// NumTrigrams returns the number of distinct trigrams in the dictionary.
func (ix *Index) NumTrigrams() int { return ix.dict.size() }

// Options returns the build options this index was constructed with.
func (ix *Index) Options() Options { return ix.opts }

// Builder bulk-loads an Index from a row source: extract trigrams per row,
// group row ids by trigram, and bulk-load the chosen dictionary
// implementation.
type Builder struct {
	opts   Options
	logger log.Logger
}

// NewBuilder returns a Builder configured by opts, logging build-phase
// progress through logger.
func NewBuilder(opts Options, logger log.Logger) *Builder {
	return &Builder{opts: opts, logger: logger}
}

// Build indexes rows and returns the resulting Index. Trigram extraction
// is parallelized across GOMAXPROCS chunks -- each chunk accumulates its
// own partial trigram->rids map concurrently via errgroup, then the
// partial maps are merged single-threaded before sort/dedup/bulk-load.
func (b *Builder) Build(rows []rowstore.Row) (*Index, error) {
	b.logger.Info("build starting", log.Int("rows", len(rows)), log.String("dictionary_kind", string(b.opts.DictionaryKind)))

	partials, err := b.extractParallel(rows)
	if err != nil {
		return nil, err
	}

	merged := mergePartials(partials)
	b.logger.Info("trigram extraction complete", log.Int("distinct_trigrams", len(merged)))

	pairs := make([]trigramRids, 0, len(merged))
	for t, rids := range merged {
		sort.Slice(rids, func(i, j int) bool { return rids[i] < rids[j] })
		rids = dedupSorted(rids)
		pairs = append(pairs, trigramRids{tri: t, rids: rids})
	}
	sort.Slice(pairs, func(i, j int) bool { return trigram.Pack(pairs[i].tri) < trigram.Pack(pairs[j].tri) })

	dict := b.buildDictionary(pairs)
	b.logger.Info("build complete", log.Int("distinct_trigrams", len(pairs)))

	return &Index{dict: dict, opts: b.opts}, nil
}

type trigramRids struct {
	tri  trigram.Tri
	rids []trigram.Rid
}

func (b *Builder) buildDictionary(pairs []trigramRids) dictionary {
	switch b.opts.DictionaryKind {
	case DictART:
		artPairs := make([]art.Pair, len(pairs))
		for i, p := range pairs {
			artPairs[i] = art.Pair{Key: p.tri, Val: newEntry(p.rids, b.opts)}
		}
		return artDict{t: art.BulkLoad(artPairs)}
	default:
		etPairs := make([]entrytree.Pair, len(pairs))
		for i, p := range pairs {
			etPairs[i] = entrytree.Pair{Key: trigram.Pack(p.tri), Val: newEntry(p.rids, b.opts)}
		}
		return entryTreeDict{t: entrytree.BulkLoad(etPairs)}
	}
}

// extractParallel splits rows into runtime.GOMAXPROCS(0) chunks and builds
// each chunk's partial trigram->rids map concurrently.
func (b *Builder) extractParallel(rows []rowstore.Row) ([]map[trigram.Tri][]trigram.Rid, error) {
	workers := runtime.GOMAXPROCS(0)
	if workers > len(rows) {
		workers = len(rows)
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (len(rows) + workers - 1) / workers
	partials := make([]map[trigram.Tri][]trigram.Rid, workers)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		start := w * chunkSize
		end := start + chunkSize
		if start > len(rows) {
			start = len(rows)
		}
		if end > len(rows) {
			end = len(rows)
		}
		g.Go(func() error {
			partials[w] = extractChunk(rows[start:end])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return partials, nil
}

func extractChunk(rows []rowstore.Row) map[trigram.Tri][]trigram.Rid {
	out := make(map[trigram.Tri][]trigram.Rid)
	for _, row := range rows {
		for tri := range trigram.TrigramsOf(row.Text) {
			out[tri] = append(out[tri], row.Rid)
		}
	}
	return out
}

func mergePartials(partials []map[trigram.Tri][]trigram.Rid) map[trigram.Tri][]trigram.Rid {
	merged := make(map[trigram.Tri][]trigram.Rid)
	for _, p := range partials {
		for tri, rids := range p {
			merged[tri] = append(merged[tri], rids...)
		}
	}
	return merged
}

func dedupSorted(rids []trigram.Rid) []trigram.Rid {
	if len(rids) == 0 {
		return rids
	}
	out := rids[:1]
	for _, r := range rids[1:] {
		if r != out[len(out)-1] {
			out = append(out, r)
		}
	}
	return out
}
