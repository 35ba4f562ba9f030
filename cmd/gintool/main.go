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

// Command gintool is the CLI harness for building and querying an
// in-memory trigram index. It is not part of the core engine, only a thin
// driver over rowstore, ginindex, and query.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sourcegraph/log"

	"github.com/gintrgm/gintrgm/ginindex"
	"github.com/gintrgm/gintrgm/query"
	"github.com/gintrgm/gintrgm/rowstore"
)

func main() {
	liblog := log.Init(log.Resource{Name: "gintool"})
	defer liblog.Sync()

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "build":
		err = runBuild(os.Args[2:])
	case "query":
		err = runQuery(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "gintool:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: gintool build -rows FILE [options]")
	fmt.Fprintln(os.Stderr, "       gintool query  -rows FILE -pattern PATTERN [options]")
}

func runBuild(args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	rowsPath := fs.String("rows", "", "path to the pipe-delimited row source")
	dump := fs.String("dump", "", "optional path to write a dictionary summary (its distinct trigram count) to")
	opts := ginindex.DefaultOptions()
	opts.Flags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *rowsPath == "" {
		return fmt.Errorf("build: -rows is required")
	}

	logger := log.Scoped("gintool.build", "")

	readStart := time.Now()
	rows, err := rowstore.ReadRows(*rowsPath)
	if err != nil {
		return err
	}
	readElapsed := time.Since(readStart)

	buildStart := time.Now()
	b := ginindex.NewBuilder(opts, logger)
	ix, err := b.Build(rows)
	if err != nil {
		return err
	}
	buildElapsed := time.Since(buildStart)

	fmt.Printf("rows read:        %s (%s)\n", humanize.Comma(int64(len(rows))), readElapsed)
	fmt.Printf("distinct trigrams: %s (%s)\n", humanize.Comma(int64(ix.NumTrigrams())), buildElapsed)
	fmt.Printf("dictionary kind:  %s\n", opts.DictionaryKind)

	if *dump != "" {
		if err := dumpIndex(*dump, ix); err != nil {
			return err
		}
	}
	return nil
}

func runQuery(args []string) error {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	rowsPath := fs.String("rows", "", "path to the pipe-delimited row source")
	pattern := fs.String("pattern", "", "LIKE pattern to evaluate")
	opts := ginindex.DefaultOptions()
	opts.Flags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *rowsPath == "" || *pattern == "" {
		return fmt.Errorf("query: -rows and -pattern are required")
	}

	logger := log.Scoped("gintool.query", "")

	rows, err := rowstore.ReadRows(*rowsPath)
	if err != nil {
		return err
	}
	b := ginindex.NewBuilder(opts, logger)
	ix, err := b.Build(rows)
	if err != nil {
		return err
	}

	eng := query.New(ix, rowstore.FromRows(rows))
	start := time.Now()
	matches, err := eng.Query(*pattern)
	elapsed := time.Since(start)
	if err != nil {
		return err
	}

	fmt.Printf("matches: %s (%s)\n", humanize.Comma(int64(len(matches))), elapsed)
	for _, rid := range matches {
		fmt.Println(rid)
	}
	return nil
}

func dumpIndex(path string, ix *ginindex.Index) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	fmt.Fprintf(f, "trigrams: %d\n", ix.NumTrigrams())
	return nil
}
