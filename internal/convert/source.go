package convert

import (
	"fmt"
	"os"
	"path/filepath"
)

// Source resolves a document identifier to its raw text.
type Source interface {
	ReadDocument(id string) ([]byte, error)
}

// FileSource reads documents from the filesystem. Relative identifiers are
// resolved against Root; absolute identifiers are read as given.
type FileSource struct {
	Root string
}

// ReadDocument reads the file named by id.
func (s FileSource) ReadDocument(id string) ([]byte, error) {
	path := id
	if !filepath.IsAbs(path) && s.Root != "" {
		path = filepath.Join(s.Root, id)
	}
	return os.ReadFile(path)
}

// MapSource serves documents from memory, keyed by identifier.
type MapSource map[string]string

// ReadDocument returns the text stored under id.
func (s MapSource) ReadDocument(id string) ([]byte, error) {
	text, ok := s[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, os.ErrNotExist)
	}
	return []byte(text), nil
}
