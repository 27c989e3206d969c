package model

import (
	"errors"
	"testing"
)

func TestCatalogAdd(t *testing.T) {
	t.Parallel()

	var cat Catalog
	cat.Add(DocumentResult{
		Document:   "a.h",
		Structures: []Structure{{Name: "Pawn", Kind: Class, Members: []Member{{Name: "Health", Offset: 0x190, Size: 4}}}},
		Stats:      Stats{Classes: 1, Members: 1, Lines: 10},
	})
	cat.Add(DocumentResult{Document: "b.h", Err: errors.New("boom")})
	cat.Add(DocumentResult{
		Document:   "c.h",
		Structures: []Structure{{Name: "Vector", Kind: Struct}},
		Stats:      Stats{Structs: 1, Lines: 5},
	})

	if len(cat.Structures) != 2 {
		t.Fatalf("expected 2 structures, got %d", len(cat.Structures))
	}
	if cat.Structures[0].Name != "Pawn" || cat.Structures[1].Name != "Vector" {
		t.Errorf("structures out of document order: %+v", cat.Structures)
	}
	if cat.Stats.Documents != 3 {
		t.Errorf("documents = %d, want 3", cat.Stats.Documents)
	}
	if cat.Stats.Failed != 1 || cat.Stats.Errors != 1 {
		t.Errorf("failed = %d, errors = %d, want 1, 1", cat.Stats.Failed, cat.Stats.Errors)
	}
	if len(cat.Failures) != 1 || cat.Failures[0].Document != "b.h" {
		t.Errorf("failures: %+v", cat.Failures)
	}
	if cat.Stats.Lines != 15 {
		t.Errorf("lines = %d, want 15", cat.Stats.Lines)
	}
	if cat.Stats.Structures() != 2 {
		t.Errorf("structures = %d, want 2", cat.Stats.Structures())
	}
	if cat.Members() != 1 {
		t.Errorf("members = %d, want 1", cat.Members())
	}
}

func TestDuplicateMembers(t *testing.T) {
	t.Parallel()

	s := Structure{Members: []Member{
		{Name: "A"}, {Name: "B"}, {Name: "A"}, {Name: "A"}, {Name: "C"}, {Name: "B"},
	}}
	dups := s.DuplicateMembers()
	if len(dups) != 2 || dups[0] != "A" || dups[1] != "B" {
		t.Errorf("DuplicateMembers() = %v, want [A B]", dups)
	}

	var empty Structure
	if got := empty.DuplicateMembers(); len(got) != 0 {
		t.Errorf("DuplicateMembers() on empty = %v", got)
	}
}

func TestMemberEnd(t *testing.T) {
	t.Parallel()
	m := Member{Offset: 0x28, Size: 0x8}
	if m.End() != 0x30 {
		t.Errorf("End() = %#x, want 0x30", m.End())
	}
}
