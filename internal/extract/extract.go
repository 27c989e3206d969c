// Package extract recognizes class and struct declarations in dump documents
// and turns their annotated member lines into model structures.
//
// Two dialects are supported. SDK documents are matched one whole structure
// body at a time; Offsets documents are read line by line while tracking
// brace depth. Both produce the same model.Structure shape, so nothing
// downstream needs to know which dialect a structure came from.
package extract

import (
	"sort"
	"strings"

	"github.com/phobologic/dumpschema/internal/model"
)

// Options configures an Extractor.
type Options struct {
	Dialect model.Dialect
	// DropEmpty discards structures without members instead of emitting them.
	DropEmpty bool
	// SkipMembers adds member name prefixes to DefaultSkipMembers.
	SkipMembers []string
	// SkipStructures adds name substrings to DefaultSkipStructures.
	SkipStructures []string
}

// DefaultOptions returns the options a dialect is normally read with. Offsets
// documents drop structures that declare no members; SDK documents keep them.
func DefaultOptions(d model.Dialect) Options {
	return Options{Dialect: d, DropEmpty: d == model.Offsets}
}

// Extractor pulls structures out of documents of a single dialect.
// It holds no per-document state and is safe for concurrent use.
type Extractor struct {
	dialect        model.Dialect
	dropEmpty      bool
	patterns       []memberPattern
	skipMembers    []string
	skipStructures []string
}

// New creates an Extractor. The dialect must be SDK or Offsets; Auto has to
// be resolved by the caller first.
func New(opts Options) (*Extractor, error) {
	var patterns []memberPattern
	switch opts.Dialect {
	case model.SDK:
		patterns = sdkPatterns
	case model.Offsets:
		patterns = offsetsPatterns
	default:
		return nil, &UnsupportedDialectError{Dialect: string(opts.Dialect)}
	}

	return &Extractor{
		dialect:        opts.Dialect,
		dropEmpty:      opts.DropEmpty,
		patterns:       patterns,
		skipMembers:    append(append([]string(nil), DefaultSkipMembers...), opts.SkipMembers...),
		skipStructures: append(append([]string(nil), DefaultSkipStructures...), opts.SkipStructures...),
	}, nil
}

// Dialect returns the dialect the extractor reads.
func (e *Extractor) Dialect() model.Dialect {
	return e.dialect
}

// Extract returns every accepted structure in text, in document order, with
// the counters describing what was kept and skipped.
func (e *Extractor) Extract(text string) ([]model.Structure, model.Stats) {
	var st model.Stats
	if text == "" {
		return nil, st
	}
	st.Lines = strings.Count(text, "\n") + 1

	sizes := IndexSizes(text)

	var structures []model.Structure
	switch e.dialect {
	case model.SDK:
		structures = e.matchBodies(text, sizes, &st)
	case model.Offsets:
		structures = e.trackBraces(text, sizes, &st)
	}
	return structures, st
}

// candidate is a structure found in a document whose body is not yet parsed.
type candidate struct {
	kind   model.Kind
	name   string
	parent string
	body   string
}

// build turns a candidate into a structure. It reports false when the
// structure is rejected by name or dropped for having no members.
func (e *Extractor) build(c candidate, sizes SizeIndex, st *model.Stats) (model.Structure, bool) {
	if !e.validName(c.name) {
		st.Rejected++
		return model.Structure{}, false
	}

	members := e.members(c.body, st)
	if len(members) == 0 && e.dropEmpty {
		st.Empty++
		return model.Structure{}, false
	}

	sort.SliceStable(members, func(i, j int) bool {
		return members[i].Offset < members[j].Offset
	})

	size, overflowed := sizes.Size(c.name, members)
	if overflowed > 0 {
		st.Anomalies += overflowed
		st.Warnings += overflowed
	}

	switch c.kind {
	case model.Struct:
		st.Structs++
	default:
		st.Classes++
	}
	st.Members += len(members)

	return model.Structure{
		Name:    c.name,
		Parent:  CleanParent(c.parent),
		Kind:    c.kind,
		Size:    size,
		Members: members,
	}, true
}
