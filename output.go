package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/phobologic/dumpschema/internal/config"
	"github.com/phobologic/dumpschema/internal/model"
	"github.com/phobologic/dumpschema/internal/schema"
	"github.com/phobologic/dumpschema/internal/store"
)

// writeOutput renders v as YAML, or as indented JSON when asJSON is set.
func writeOutput(w io.Writer, v any, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// catalogPath returns the --catalog value, or the JSON catalog in the
// configured output directory.
func catalogPath(flag string, cfg *config.Config) string {
	if flag != "" {
		return flag
	}
	return filepath.Join(cfg.Output.Dir, catalogJSON)
}

// isDatabase reports whether path names a SQLite export.
func isDatabase(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

// loadCatalog reads a catalog from sdk_data.json or from a SQLite export.
func loadCatalog(path string) (*model.Catalog, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	if isDatabase(path) {
		st, err := store.Open(path)
		if err != nil {
			return nil, err
		}
		defer st.Close()
		return st.Load()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	defer f.Close()

	structures, err := schema.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return &model.Catalog{Structures: structures}, nil
}

// memberView is the query rendering of a member.
type memberView struct {
	Name   string `yaml:"name" json:"name"`
	Type   string `yaml:"type" json:"type"`
	Offset string `yaml:"offset" json:"offset"`
	Size   string `yaml:"size" json:"size"`
	Owner  string `yaml:"owner,omitempty" json:"owner,omitempty"`
}

func viewMember(m model.Member, owner string) memberView {
	return memberView{
		Name:   m.Name,
		Type:   m.Type,
		Offset: schema.FormatHex(m.Offset),
		Size:   schema.FormatHex(m.Size),
		Owner:  owner,
	}
}
