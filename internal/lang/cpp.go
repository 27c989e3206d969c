package lang

import (
	"github.com/smacker/go-tree-sitter/cpp"
)

// CPP is the grammar dump headers are surveyed with.
const CPP = "cpp"

func init() {
	Languages[CPP] = &Language{
		Name:       CPP,
		Extensions: []string{".h", ".hpp"},
		lang:       cpp.GetLanguage(),
	}
}
