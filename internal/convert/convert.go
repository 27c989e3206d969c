// Package convert runs the extractor over a batch of documents and reduces
// the per-document results into a catalog in input order.
package convert

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/phobologic/dumpschema/internal/extract"
	"github.com/phobologic/dumpschema/internal/model"
)

// progressEvery is how many documents pass between progress lines.
const progressEvery = 1000

// DetectFunc chooses a concrete dialect for a document's text.
type DetectFunc func(text []byte) model.Dialect

// Options configures a Converter.
type Options struct {
	// Dialect is SDK, Offsets or Auto. Auto requires Detect.
	Dialect model.Dialect
	// Workers is the number of documents converted at once. Values below 2
	// convert strictly one document at a time.
	Workers int
	// Diag receives warnings and progress lines. Nil discards them.
	Diag    io.Writer
	Verbose bool
	// SkipMembers and SkipStructures extend the extractor's skip lists.
	SkipMembers    []string
	SkipStructures []string
	// DropEmpty overrides the per-dialect empty-structure policy.
	DropEmpty map[model.Dialect]bool
	Detect    DetectFunc
}

// Converter turns documents into structures. It is safe for concurrent use.
type Converter struct {
	src        Source
	dialect    model.Dialect
	workers    int
	diag       io.Writer
	verbose    bool
	detect     DetectFunc
	extractors map[model.Dialect]*extract.Extractor
}

// New creates a Converter reading from src.
func New(src Source, opts Options) (*Converter, error) {
	dialect := opts.Dialect
	if dialect == "" {
		dialect = model.Auto
	}
	if dialect == model.Auto && opts.Detect == nil {
		return nil, ErrNoDetector
	}

	extractors := make(map[model.Dialect]*extract.Extractor, 2)
	for _, d := range []model.Dialect{model.SDK, model.Offsets} {
		if dialect != model.Auto && dialect != d {
			continue
		}
		eo := extract.DefaultOptions(d)
		if drop, ok := opts.DropEmpty[d]; ok {
			eo.DropEmpty = drop
		}
		eo.SkipMembers = opts.SkipMembers
		eo.SkipStructures = opts.SkipStructures
		e, err := extract.New(eo)
		if err != nil {
			return nil, err
		}
		extractors[d] = e
	}
	if len(extractors) == 0 {
		return nil, &extract.UnsupportedDialectError{Dialect: string(dialect)}
	}

	diag := opts.Diag
	if diag == nil {
		diag = io.Discard
	}

	return &Converter{
		src:        src,
		dialect:    dialect,
		workers:    opts.Workers,
		diag:       diag,
		verbose:    opts.Verbose,
		detect:     opts.Detect,
		extractors: extractors,
	}, nil
}

// Convert converts every document in ids and returns the catalog. Documents
// that cannot be read are recorded as failures and the batch continues. If
// no document could be read, the partial catalog is returned together with
// ErrNoReadableDocuments.
func (c *Converter) Convert(ctx context.Context, ids []string) (*model.Catalog, error) {
	if len(ids) == 0 {
		return nil, ErrNoDocuments
	}

	cat := &model.Catalog{}
	if c.workers > 1 && len(ids) > 1 {
		results := c.convertConcurrent(ctx, ids)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i, r := range results {
			c.add(cat, i, len(ids), r)
		}
	} else {
		for i, id := range ids {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			c.add(cat, i, len(ids), c.Document(id))
		}
	}

	if cat.Stats.Failed == len(ids) {
		return cat, fmt.Errorf("%w: all %d failed", ErrNoReadableDocuments, len(ids))
	}
	return cat, nil
}

// Document converts a single document. Its result depends only on the
// document's own text.
func (c *Converter) Document(id string) model.DocumentResult {
	data, err := c.src.ReadDocument(id)
	if err != nil {
		return model.DocumentResult{Document: id, Err: &ReadError{Document: id, Err: err}}
	}

	dialect := c.dialect
	if dialect == model.Auto {
		dialect = c.detect(data)
	}
	e, ok := c.extractors[dialect]
	if !ok {
		return model.DocumentResult{
			Document: id,
			Err:      &ReadError{Document: id, Err: &extract.UnsupportedDialectError{Dialect: string(dialect)}},
		}
	}

	structures, st := e.Extract(decode(data))
	for i := range structures {
		structures[i].Document = id
	}

	return model.DocumentResult{
		Document:   id,
		Dialect:    dialect,
		Structures: structures,
		Stats:      st,
	}
}

// add reduces the result of document i of total into cat.
func (c *Converter) add(cat *model.Catalog, i, total int, r model.DocumentResult) {
	cat.Add(r)
	c.report(r)
	if (i+1)%progressEvery == 0 {
		_, _ = fmt.Fprintf(c.diag, "Processed %d/%d documents\n", i+1, total)
	}
}

// convertConcurrent fans documents out to a fixed pool of workers and
// returns the results indexed by input position.
func (c *Converter) convertConcurrent(ctx context.Context, ids []string) []model.DocumentResult {
	numWorkers := c.workers
	if numWorkers > len(ids) {
		numWorkers = len(ids)
	}

	results := make([]model.DocumentResult, len(ids))
	work := make(chan int)

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				results[idx] = c.Document(ids[idx])
			}
		}()
	}

dispatch:
	for i := range ids {
		select {
		case <-ctx.Done():
			break dispatch
		case work <- i:
		}
	}
	close(work)
	wg.Wait()

	return results
}

// report writes the per-document diagnostics for r.
func (c *Converter) report(r model.DocumentResult) {
	if r.Err != nil {
		_, _ = fmt.Fprintf(c.diag, "Warning: %s: %v\n", r.Document, r.Err)
		return
	}
	if r.Stats.Unterminated > 0 {
		_, _ = fmt.Fprintf(c.diag, "Warning: %s: %d unterminated structure(s) dropped\n", r.Document, r.Stats.Unterminated)
	}
	if r.Stats.Anomalies > 0 {
		_, _ = fmt.Fprintf(c.diag, "Warning: %s: %d member(s) with unusable offset or size skipped\n", r.Document, r.Stats.Anomalies)
	}
	if c.verbose {
		_, _ = fmt.Fprintf(c.diag, "%s: %s, %d structures, %d members\n",
			r.Document, r.Dialect, r.Stats.Structures(), r.Stats.Members)
	}
}

// decode turns raw bytes into text, dropping a byte order mark and any
// invalid UTF-8 sequences.
func decode(data []byte) string {
	text := strings.TrimPrefix(string(data), "\ufeff")
	return strings.ToValidUTF8(text, "")
}
