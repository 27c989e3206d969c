package parse

import (
	"bytes"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/dumpschema/internal/lang"
	"github.com/phobologic/dumpschema/internal/model"
)

// DetectLimit bounds how much of a document Detect parses.
const DetectLimit = 256 << 10

var parsers = sync.Pool{
	New: func() any {
		return lang.Languages[lang.CPP].NewParser()
	},
}

// File surveys a whole header. It is safe for concurrent use.
func File(source []byte) (Report, error) {
	q, err := lang.Languages[lang.CPP].GetQuery()
	if err != nil {
		return Report{}, err
	}
	p := parsers.Get().(*sitter.Parser)
	defer parsers.Put(p)
	return Survey(p, q, source), nil
}

// Detect chooses the dialect of a document from a survey of its first
// DetectLimit bytes, cut back to a line boundary. It falls back to SDK when
// the query cannot be compiled. It is safe for concurrent use and matches
// the convert.DetectFunc signature.
func Detect(source []byte) model.Dialect {
	r, err := File(prefix(source, DetectLimit))
	if err != nil {
		return model.SDK
	}
	return r.Dialect()
}

func prefix(source []byte, limit int) []byte {
	if len(source) <= limit {
		return source
	}
	cut := source[:limit]
	if i := bytes.LastIndexByte(cut, '\n'); i >= 0 {
		cut = cut[:i+1]
	}
	return cut
}
