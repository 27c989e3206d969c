// Package parse surveys dump headers with tree-sitter to classify them.
// The survey only counts declarations; structures are read by the extract
// package.
package parse

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/dumpschema/internal/lang"
	"github.com/phobologic/dumpschema/internal/model"
)

// Report counts the declarations found in one header.
type Report struct {
	Classes        int
	Structs        int
	Fields         int // data member declarations
	StaticFields   int // data members declared static
	Methods        int // member function declarations
	Asserts        int // static_assert declarations
	Comments       int
	OffsetComments int // comments mentioning a 0x value
	Names          []string
	SyntaxErrors   bool
}

// Structures returns the number of class and struct declarations with bodies.
func (r *Report) Structures() int {
	return r.Classes + r.Structs
}

// Add accumulates o into r. Names are concatenated.
func (r *Report) Add(o Report) {
	r.Classes += o.Classes
	r.Structs += o.Structs
	r.Fields += o.Fields
	r.StaticFields += o.StaticFields
	r.Methods += o.Methods
	r.Asserts += o.Asserts
	r.Comments += o.Comments
	r.OffsetComments += o.OffsetComments
	r.Names = append(r.Names, o.Names...)
	r.SyntaxErrors = r.SyntaxErrors || o.SyntaxErrors
}

// Dialect classifies the surveyed text. Headers whose data members are
// mostly static constants are Offsets documents; everything else is SDK.
func (r *Report) Dialect() model.Dialect {
	if r.Fields > 0 && r.StaticFields*2 > r.Fields {
		return model.Offsets
	}
	return model.SDK
}

// Survey parses source and counts its declarations.
// The parser must be created for the cpp language.
func Survey(parser *sitter.Parser, query *sitter.Query, source []byte) Report {
	var r Report
	if len(source) == 0 {
		return r
	}

	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return r
	}
	defer tree.Close()

	root := tree.RootNode()
	r.SyntaxErrors = root.HasError()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(query, root)

	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		match = qc.FilterPredicates(match, source)

		var nameNode *sitter.Node
		for _, c := range match.Captures {
			if query.CaptureNameForId(c.Index) == "name" {
				nameNode = c.Node
			}
		}

		for _, c := range match.Captures {
			switch query.CaptureNameForId(c.Index) {
			case "structure.class":
				r.Classes++
				r.Names = appendName(r.Names, nameNode, source)
			case "structure.struct":
				r.Structs++
				r.Names = appendName(r.Names, nameNode, source)
			case "field":
				countField(&r, c.Node, source)
			case "assert":
				r.Asserts++
			case "comment":
				r.Comments++
				if strings.Contains(lang.NodeText(c.Node, source), "0x") {
					r.OffsetComments++
				}
			}
		}
	}

	return r
}

func appendName(names []string, node *sitter.Node, source []byte) []string {
	if node == nil {
		return names
	}
	return append(names, lang.NodeText(node, source))
}

// countField classifies a field_declaration as a method or a data member.
func countField(r *Report, node *sitter.Node, source []byte) {
	if decl := node.ChildByFieldName("declarator"); decl != nil && isFunctionDeclarator(decl) {
		r.Methods++
		return
	}
	r.Fields++
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "storage_class_specifier" && lang.NodeText(child, source) == "static" {
			r.StaticFields++
			return
		}
	}
}

// isFunctionDeclarator unwraps pointer and reference declarators looking for
// a function declarator.
func isFunctionDeclarator(node *sitter.Node) bool {
	for node != nil {
		switch node.Type() {
		case "function_declarator":
			return true
		case "pointer_declarator", "reference_declarator":
			node = node.ChildByFieldName("declarator")
			if node == nil {
				return false
			}
		default:
			return false
		}
	}
	return false
}
