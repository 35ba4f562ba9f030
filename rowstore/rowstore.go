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

// Package rowstore implements the row identifier & text store: a
// {row_id -> text} map for post-filter lookups, plus a reader for the
// pipe-delimited row-source file format.
package rowstore

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/gintrgm/gintrgm/trigram"
)

// IoError wraps a failure to open or read the row file.
type IoError struct {
	Path string
	Err  error
}

func (e *IoError) Error() string { return "rowstore: i/o error reading " + e.Path }
func (e *IoError) Unwrap() error { return e.Err }

// ParseError wraps a failure to decode a single record's fields.
type ParseError struct {
	Line int
	Raw  string
	Err  error
}

func (e *ParseError) Error() string {
	return "rowstore: parse error at line " + strconv.Itoa(e.Line)
}
func (e *ParseError) Unwrap() error { return e.Err }

// Row is one (row_id, text) pair as it comes off the row source.
type Row struct {
	Rid  trigram.Rid
	Text string
}

// Store holds every row's text, indexed by row id, for the ordered-literal
// verification step run after dictionary/posting-list narrowing.
type Store struct {
	texts map[trigram.Rid]string
}

// New returns an empty Store.
func New() *Store {
	return &Store{texts: make(map[trigram.Rid]string)}
}

// Put records text for rid, overwriting any prior value.
func (s *Store) Put(rid trigram.Rid, text string) {
	s.texts[rid] = text
}

// Text returns the stored text for rid, or ("", false) if rid is unknown.
func (s *Store) Text(rid trigram.Rid) (string, bool) {
	t, ok := s.texts[rid]
	return t, ok
}

// Len returns the number of rows held.
func (s *Store) Len() int { return len(s.texts) }

// ReadRows opens path and parses it as the pipe-delimited row-source
// format:
//
//	rowid|name|mfgr|brand|type|size|container|retailprice|comment
//
// Only rowid and name are consumed; the remaining seven fields are opaque
// to the core and are accepted (and ignored) for shape-compatibility with
// the full record format. Empty lines are skipped. A malformed rowid or a
// record with too few fields aborts the read with a *ParseError; an
// unopenable file returns an *IoError.
func ReadRows(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IoError{Path: path, Err: err}
	}
	defer f.Close()
	return parseRows(f, path)
}

const rowFieldCount = 9

func parseRows(r io.Reader, path string) ([]Row, error) {
	var rows []Row
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "|")
		if len(fields) < rowFieldCount {
			return nil, &ParseError{Line: lineNo, Raw: line, Err: errors.Errorf("expected %d fields, got %d", rowFieldCount, len(fields))}
		}
		rid, err := strconv.ParseInt(fields[0], 10, 32)
		if err != nil {
			return nil, &ParseError{Line: lineNo, Raw: line, Err: errors.Wrap(err, "rowid")}
		}
		rows = append(rows, Row{Rid: trigram.Rid(rid), Text: fields[1]})
	}
	if err := sc.Err(); err != nil {
		return nil, &IoError{Path: path, Err: err}
	}
	return rows, nil
}

// FromRows builds a Store directly from an in-memory row slice, for tests
// and for callers that already have rows without a file round-trip.
func FromRows(rows []Row) *Store {
	s := New()
	for _, r := range rows {
		s.Put(r.Rid, r.Text)
	}
	return s
}
