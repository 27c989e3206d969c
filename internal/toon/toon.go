// Package toon implements TOON (Token-Oriented Object Notation) encoding.
package toon

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/phobologic/dumpschema/internal/model"
	"github.com/phobologic/dumpschema/internal/schema"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Encode converts a catalog into TOON format: a run summary followed by a
// structures table and a members table keyed by structure name.
func Encode(cat *model.Catalog) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("documents: %d", cat.Stats.Documents))
	parts = append(parts, fmt.Sprintf("failed: %d", cat.Stats.Failed))

	var structRows [][]string
	for i := range cat.Structures {
		s := &cat.Structures[i]
		structRows = append(structRows, []string{
			s.Name,
			s.Parent,
			string(s.Kind),
			schema.FormatHex(s.Size),
			strconv.Itoa(len(s.Members)),
			s.Document,
		})
	}
	parts = append(parts, formatTabular("structures", []string{"name", "parent", "kind", "size", "members", "document"}, structRows))

	var memberRows [][]string
	for i := range cat.Structures {
		s := &cat.Structures[i]
		for _, m := range s.Members {
			memberRows = append(memberRows, []string{
				s.Name,
				m.Name,
				m.Type,
				schema.FormatHex(m.Offset),
				schema.FormatHex(m.Size),
			})
		}
	}
	parts = append(parts, formatTabular("members", []string{"structure", "name", "type", "offset", "size"}, memberRows))

	if len(cat.Failures) > 0 {
		var failRows [][]string
		for _, f := range cat.Failures {
			failRows = append(failRows, []string{f.Document, f.Err.Error()})
		}
		parts = append(parts, formatTabular("failures", []string{"document", "error"}, failRows))
	}

	return strings.Join(parts, "\n")
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
