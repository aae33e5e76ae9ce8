// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package thesaurus

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/gurukul/core"
)

// DefaultMinEntries is the map size below which a build is flagged low-confidence.
const DefaultMinEntries = 5000

// Builder mines verse lines into a SynonymMap.
type Builder struct {
	pool        *ants.Pool
	minLineTags int
	minEntries  int
	logger      *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder) error

// WithPoolSize sets the number of documents tokenized concurrently.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(b *Builder) error {
		if size < 1 {
			size = 1
		}
		if b.pool != nil {
			b.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		b.pool = pool
		return nil
	}
}

// WithMinLineTags sets the <l> count below which the verse splitter runs.
func WithMinLineTags(n int) Option {
	return func(b *Builder) error {
		if n < 0 {
			return ErrInvalidThreshold
		}
		b.minLineTags = n
		return nil
	}
}

// WithMinEntries sets the entry count below which a build is low-confidence.
func WithMinEntries(n int) Option {
	return func(b *Builder) error {
		if n < 0 {
			return ErrInvalidThreshold
		}
		b.minEntries = n
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
		return nil
	}
}

// NewBuilder creates a Builder. Call Release when done.
func NewBuilder(opts ...Option) (*Builder, error) {
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	b := &Builder{
		pool:        pool,
		minLineTags: DefaultMinLineTags,
		minEntries:  DefaultMinEntries,
		logger:      slog.Default().With("component", "thesaurus-builder"),
	}

	for _, opt := range opts {
		if err := opt(b); err != nil {
			b.Release()
			return nil, err
		}
	}
	return b, nil
}

// Release frees the worker pool. The Builder must not be used afterwards.
func (b *Builder) Release() {
	if b.pool != nil {
		b.pool.Release()
	}
}

// Report summarizes a build.
type Report struct {
	Documents     int
	LinesSeen     int
	LinesUsed     int
	Entries       int
	UsedFallback  bool
	LowConfidence bool
}

// Result is a built map and its report.
type Result struct {
	Map    core.SynonymMap
	Report Report
}

// docEntries is the per-document work product.
type docEntries struct {
	entries []Entry
	seen    int
	err     error
}

// BuildFiles parses each file as TEI and builds a map from all of them.
// Any unreadable or unparsable file fails the whole build.
func (b *Builder) BuildFiles(ctx context.Context, paths ...string) (*Result, error) {
	if len(paths) == 0 {
		return nil, ErrNoDocuments
	}

	docs := make([]*Document, len(paths))
	errs := make([]error, len(paths))
	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		err := b.pool.Submit(func() {
			defer wg.Done()
			docs[i], errs[i] = b.parseFile(path)
		})
		if err != nil {
			wg.Done()
			errs[i] = err
		}
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return b.Build(ctx, docs...)
}

func (b *Builder) parseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := ParseTEI(path, f, b.minLineTags)
	if err != nil {
		return nil, err
	}
	b.logger.Info("parsed corpus document",
		"document", path,
		"lineTags", doc.LineTags,
		"lines", len(doc.Lines),
		"recovered", doc.Recovered,
		"fallback", doc.UsedFallback)
	return doc, nil
}

// Build tokenizes documents concurrently and merges their entries in input
// order. A build producing fewer than the configured minimum entries is
// reported as low-confidence, not failed.
func (b *Builder) Build(ctx context.Context, docs ...*Document) (*Result, error) {
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}

	work := make([]docEntries, len(docs))
	var wg sync.WaitGroup
	for i, doc := range docs {
		wg.Add(1)
		err := b.pool.Submit(func() {
			defer wg.Done()
			work[i] = tokenizeDocument(ctx, doc)
		})
		if err != nil {
			wg.Done()
			work[i].err = err
		}
	}
	wg.Wait()

	result := &Result{Map: make(core.SynonymMap)}
	result.Report.Documents = len(docs)
	for i, w := range work {
		if w.err != nil {
			return nil, w.err
		}
		result.Report.LinesSeen += w.seen
		result.Report.LinesUsed += len(w.entries)
		result.Report.UsedFallback = result.Report.UsedFallback || docs[i].UsedFallback
		merge(result.Map, w.entries)
	}

	result.Report.Entries = len(result.Map)
	if result.Report.Entries < b.minEntries {
		result.Report.LowConfidence = true
		b.logger.Warn("synonym map below expected size",
			"entries", result.Report.Entries,
			"minimum", b.minEntries)
	}

	b.logger.Info("built synonym map",
		"documents", result.Report.Documents,
		"linesSeen", result.Report.LinesSeen,
		"linesUsed", result.Report.LinesUsed,
		"entries", result.Report.Entries)
	return result, nil
}

func tokenizeDocument(ctx context.Context, doc *Document) docEntries {
	var out docEntries
	if doc == nil {
		return out
	}
	out.seen = len(doc.Lines)
	out.entries = make([]Entry, 0, len(doc.Lines))
	for _, line := range doc.Lines {
		if err := ctx.Err(); err != nil {
			out.err = err
			return out
		}
		if entry, ok := ParseLine(line); ok {
			out.entries = append(out.entries, entry)
		}
	}
	return out
}

// merge writes entries into m in order.
//
// A word listed under two different headwords keeps only the mapping from
// the line processed last. This is a known ambiguity in the source lexicon;
// multi-valued mappings would need a format change downstream.
func merge(m core.SynonymMap, entries []Entry) {
	for _, e := range entries {
		for _, syn := range e.Synonyms {
			m[Normalize(syn)] = e.Headword
		}
		m[Normalize(e.Headword)] = e.Headword
	}
}
