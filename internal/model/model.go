// Package model defines core data structures for dumpschema.
package model

// Kind is the declaration keyword of a structure.
type Kind string

const (
	Class  Kind = "class"
	Struct Kind = "struct"
)

// Dialect selects the annotation grammar used to read a dump document.
type Dialect string

const (
	// SDK is the per-package SDK layout: whole structure bodies with
	// "TYPE NAME; // 0xOFFSET(0xSIZE)" member comments.
	SDK Dialect = "sdk"
	// Offsets is the single-header layout of
	// "static const uint32 NAME = 0xOFFSET; // (0xSIZE)" constants.
	Offsets Dialect = "offsets"
	// Auto picks SDK or Offsets per document.
	Auto Dialect = "auto"
)

// Dialects lists the dialects accepted on the command line and in config.
var Dialects = []Dialect{Auto, SDK, Offsets}

// Member is one data member of a structure.
type Member struct {
	Name   string
	Type   string
	Offset uint64
	Size   uint64
}

// End returns the first byte past the member.
func (m Member) End() uint64 {
	return m.Offset + m.Size
}

// Structure is one parsed class or struct. Members are ordered by offset.
type Structure struct {
	Name     string
	Parent   string
	Kind     Kind
	Size     uint64
	Members  []Member
	Document string // identifier of the source document
}

// DuplicateMembers returns member names that occur more than once, in
// first-seen order.
func (s *Structure) DuplicateMembers() []string {
	seen := make(map[string]int, len(s.Members))
	var dups []string
	for i := range s.Members {
		name := s.Members[i].Name
		seen[name]++
		if seen[name] == 2 {
			dups = append(dups, name)
		}
	}
	return dups
}

// Stats holds aggregate counters for a conversion run or a single document.
type Stats struct {
	Documents    int
	Failed       int
	Lines        int
	Classes      int
	Structs      int
	Members      int
	Rejected     int // structures with excluded names
	Empty        int // structures dropped for having no members
	Unterminated int // structures still open at end of document
	Padding      int // padding/reserved members skipped
	Unmatched    int // body lines matching no member pattern
	Anomalies    int // members with unusable offset or size values
	Errors       int
	Warnings     int
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Documents += o.Documents
	s.Failed += o.Failed
	s.Lines += o.Lines
	s.Classes += o.Classes
	s.Structs += o.Structs
	s.Members += o.Members
	s.Rejected += o.Rejected
	s.Empty += o.Empty
	s.Unterminated += o.Unterminated
	s.Padding += o.Padding
	s.Unmatched += o.Unmatched
	s.Anomalies += o.Anomalies
	s.Errors += o.Errors
	s.Warnings += o.Warnings
}

// Structures returns the number of accepted structures.
func (s *Stats) Structures() int {
	return s.Classes + s.Structs
}

// Failure records a document that could not be read.
type Failure struct {
	Document string
	Err      error
}

// DocumentResult is the complete outcome of converting one document.
type DocumentResult struct {
	Document   string
	Dialect    Dialect
	Structures []Structure
	Stats      Stats
	Err        error
}

// Catalog is the ordered result of a conversion run. It only grows through Add.
type Catalog struct {
	Structures []Structure
	Stats      Stats
	Failures   []Failure
}

// Add appends one document's result to the catalog.
func (c *Catalog) Add(r DocumentResult) {
	c.Stats.Documents++
	if r.Err != nil {
		c.Stats.Failed++
		c.Stats.Errors++
		c.Failures = append(c.Failures, Failure{Document: r.Document, Err: r.Err})
		return
	}
	c.Stats.Add(r.Stats)
	c.Structures = append(c.Structures, r.Structures...)
}

// Members returns the total number of members across all structures.
func (c *Catalog) Members() int {
	n := 0
	for i := range c.Structures {
		n += len(c.Structures[i].Members)
	}
	return n
}
