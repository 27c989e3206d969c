// Package globals maintains globals.json, the companion table of global base
// addresses and well-known per-class member offsets that dumps do not carry.
package globals

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// FileName is the table's file name inside an output directory.
const FileName = "globals.json"

//go:embed defaults.json
var defaultsJSON []byte

// Table is the content of globals.json. Offsets are keyed by class name, then
// member name; values are hex strings as published.
type Table struct {
	Bases       map[string]string            `json:"bases"`
	Offsets     map[string]map[string]string `json:"offsets"`
	Version     string                       `json:"version,omitempty"`
	Notes       string                       `json:"notes,omitempty"`
	LastUpdated string                       `json:"last_updated,omitempty"`
}

// Defaults returns a fresh copy of the built-in table.
func Defaults() *Table {
	var t Table
	if err := json.Unmarshal(defaultsJSON, &t); err != nil {
		panic(fmt.Sprintf("globals: embedded defaults: %v", err))
	}
	return &t
}

// Counts returns the number of bases, classes and individual offsets.
func (t *Table) Counts() (bases, classes, offsets int) {
	for _, members := range t.Offsets {
		offsets += len(members)
	}
	return len(t.Bases), len(t.Offsets), offsets
}

// Classes returns the class names with offsets, sorted.
func (t *Table) Classes() []string {
	names := make([]string, 0, len(t.Offsets))
	for name := range t.Offsets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merge folds src into t. Bases are overwritten key by key, each class's
// offsets are overwritten member by member, and Version and LastUpdated are
// replaced. Notes are only filled in when t has none.
func (t *Table) Merge(src *Table) {
	if t.Bases == nil {
		t.Bases = make(map[string]string, len(src.Bases))
	}
	for k, v := range src.Bases {
		t.Bases[k] = v
	}

	if t.Offsets == nil {
		t.Offsets = make(map[string]map[string]string, len(src.Offsets))
	}
	for class, members := range src.Offsets {
		dst, ok := t.Offsets[class]
		if !ok || dst == nil {
			dst = make(map[string]string, len(members))
			t.Offsets[class] = dst
		}
		for k, v := range members {
			dst[k] = v
		}
	}

	t.Version = src.Version
	t.LastUpdated = src.LastUpdated
	if t.Notes == "" {
		t.Notes = src.Notes
	}
}

// Load reads a table from path.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var t Table
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &t, nil
}

// Save writes t to path with two-space indentation, creating parent
// directories as needed.
func (t *Table) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding globals: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Action reports what Update did to the file.
type Action string

const (
	Created  Action = "created"
	Updated  Action = "updated"
	Replaced Action = "replaced" // existing file could not be read
)

// Update merges the built-in defaults into the table at path and writes the
// result back. A missing file is created from the defaults; a file that
// cannot be parsed is replaced by them.
func Update(path string) (*Table, Action, error) {
	defaults := Defaults()

	existing, err := Load(path)
	var action Action
	switch {
	case err == nil:
		existing.Merge(defaults)
		action = Updated
	case errors.Is(err, fs.ErrNotExist):
		existing = defaults
		action = Created
	default:
		existing = defaults
		action = Replaced
	}

	if err := existing.Save(path); err != nil {
		return nil, "", err
	}
	return existing, action, nil
}
