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

// Package query implements the trigram query engine: turning a SQL LIKE
// pattern into required trigrams, intersecting their posting lists through
// the dictionary, and verifying ordered-literal containment against the
// row store before returning a match.
package query

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/gintrgm/gintrgm/ginindex"
	"github.com/gintrgm/gintrgm/posting"
	"github.com/gintrgm/gintrgm/rowstore"
	"github.com/gintrgm/gintrgm/trigram"
)

// ErrUnsupportedPattern is returned when a LIKE pattern yields no required
// trigrams at all: no literal segment, once normalized and padded, is three
// bytes long, so the dictionary can't narrow the search and a sequential
// scan is the only correct fallback.
var ErrUnsupportedPattern = errors.New("query: pattern has no required trigrams")

// Engine answers LIKE-pattern queries against a built index and its
// backing row store.
type Engine struct {
	idx   *ginindex.Index
	rows  *rowstore.Store
	stats Stats
}

// Stats counts engine-level events across the lifetime of an Engine: cheap
// running counters a caller can snapshot for diagnostics without any extra
// plumbing.
type Stats struct {
	Queries          int
	DictionaryMisses int
	CandidatesScored int
	Matches          int
}

// New builds an Engine over an already-built index and its row store.
func New(idx *ginindex.Index, rows *rowstore.Store) *Engine {
	return &Engine{idx: idx, rows: rows}
}

// Stats returns a snapshot of the engine's running counters.
func (e *Engine) Stats() Stats { return e.stats }

// Query evaluates pattern (a SQL LIKE pattern using '%' wildcards; '_' is
// not a single-char wildcard and, like any other non-alphanumeric byte, is
// dropped by normalization) and returns the matching row ids in ascending
// order.
func (e *Engine) Query(pattern string) ([]trigram.Rid, error) {
	e.stats.Queries++

	required := trigram.RequiredOf(pattern)
	if len(required) == 0 {
		return nil, errors.Wrapf(ErrUnsupportedPattern, "pattern %q", pattern)
	}

	lists := make([]*posting.List, 0, len(required))
	for _, tri := range required {
		l, ok := e.idx.Lookup(tri)
		if !ok {
			// A required trigram absent from the dictionary means no row
			// can possibly match: hard miss, no row store access needed.
			e.stats.DictionaryMisses++
			return nil, nil
		}
		lists = append(lists, l)
	}

	candidates := posting.Intersect(lists...)
	literals := trigram.Literals(pattern)

	out := make([]trigram.Rid, 0, candidates.Len())
	for i := 0; i < candidates.Len(); i++ {
		rid := candidates.At(i)
		e.stats.CandidatesScored++

		text, ok := e.rows.Text(rid)
		if !ok {
			return nil, errors.Errorf("query: row %d in posting list but absent from row store", rid)
		}
		if trigram.LiteralsAppearInOrder(text, literals) {
			out = append(out, rid)
			e.stats.Matches++
		}
	}
	return out, nil
}

// Explain renders a short human-readable trace of how pattern would be
// evaluated, without touching the row store -- useful for tests that pin
// down which trigrams a pattern requires.
func Explain(pattern string) string {
	required := trigram.RequiredOf(pattern)
	if len(required) == 0 {
		return fmt.Sprintf("pattern %q: unsupported, no required trigrams", pattern)
	}
	strs := make([]string, len(required))
	for i, t := range required {
		strs[i] = string(t[:])
	}
	return fmt.Sprintf("pattern %q requires trigrams %v", pattern, strs)
}
