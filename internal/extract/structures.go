package extract

import (
	"regexp"
	"strings"

	"github.com/phobologic/dumpschema/internal/model"
)

// bodyRe matches a whole SDK structure: keyword, name, optional "final",
// optional public base and the body up to the first line closing with "};".
// The body group is optional and lazy so an empty "{\n};" never swallows the
// next declaration.
var bodyRe = regexp.MustCompile(`(?s)\b(class|struct)\s+([A-Z][A-Za-z0-9_]*)\b(?:\s+final)?` +
	`(?:\s*:\s*public\s+([A-Za-z0-9_:]+(?:<[^\n{]*>)?))?[ \t]*\r?\n\s*\{[ \t]*\r?\n` +
	`(?:(.*?)\r?\n)??[ \t]*\};`)

// headerRe matches the opening line of an Offsets structure.
var headerRe = regexp.MustCompile(`^(class|struct)\s+(\w+)(?:\s*:\s*public\s+([\w:]+(?:<[^{]*>)?))?\s*\{`)

// matchBodies extracts SDK structures by matching whole bodies. A structure
// that fails to produce members or a valid name never affects its neighbours.
func (e *Extractor) matchBodies(text string, sizes SizeIndex, st *model.Stats) []model.Structure {
	var structures []model.Structure

	for _, m := range bodyRe.FindAllStringSubmatch(text, -1) {
		c := candidate{
			kind:   model.Kind(m[1]),
			name:   m[2],
			parent: m[3],
			body:   m[4],
		}
		if s, ok := e.build(c, sizes, st); ok {
			structures = append(structures, s)
		}
	}

	return structures
}

// trackBraces extracts Offsets structures by following brace depth from a
// header line until the matching close. Nested braces stay part of the
// enclosing body.
func (e *Extractor) trackBraces(text string, sizes SizeIndex, st *model.Stats) []model.Structure {
	var (
		structures []model.Structure
		current    *candidate
		body       []string
		depth      int
	)

	finish := func() {
		current.body = strings.Join(body, "\n")
		if s, ok := e.build(*current, sizes, st); ok {
			structures = append(structures, s)
		}
		current = nil
		body = nil
	}

	for _, line := range strings.Split(text, "\n") {
		stripped := strings.TrimSpace(line)
		if stripped == "" || strings.HasPrefix(stripped, "//") {
			continue
		}

		if current == nil {
			m := headerRe.FindStringSubmatchIndex(stripped)
			if m == nil {
				continue
			}
			current = &candidate{
				kind:   model.Kind(stripped[m[2]:m[3]]),
				name:   stripped[m[4]:m[5]],
				parent: submatch(stripped, m, 3),
			}
			depth = strings.Count(stripped, "{") - strings.Count(stripped, "}")
			if depth <= 0 {
				// Opened and closed on one line.
				rest := stripped[m[1]:]
				if i := strings.LastIndex(rest, "}"); i >= 0 {
					rest = rest[:i]
				}
				body = append(body, rest)
				finish()
			}
			continue
		}

		depth += strings.Count(stripped, "{") - strings.Count(stripped, "}")
		if depth > 0 {
			body = append(body, line)
			continue
		}
		finish()
	}

	if current != nil {
		st.Unterminated++
		st.Warnings++
	}

	return structures
}

func submatch(s string, loc []int, group int) string {
	if loc[2*group] < 0 {
		return ""
	}
	return s[loc[2*group]:loc[2*group+1]]
}
