package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/phobologic/dumpschema/internal/model"
)

var (
	// sizeofRe matches static_assert(sizeof(NAME) == 0xSIZE, ...).
	sizeofRe = regexp.MustCompile(`sizeof\s*\(\s*(?:[A-Za-z0-9_]*::)*([A-Za-z0-9_]+)\s*\)\s*==\s*0x([0-9A-Fa-f]+)`)
	// declLineRe matches a declaration line (not a member or forward
	// declaration, which end in ';').
	declLineRe = regexp.MustCompile(`^\s*(?:class|struct)\s+([A-Za-z0-9_]+)[^;]*$`)
	// trailingSizeRe finds "// 0xSIZE" after the declared name.
	trailingSizeRe = regexp.MustCompile(`//\s*0x([0-9A-Fa-f]+)`)
	// headerSizeRe matches the comment line above a declaration, either
	// "// 0xSIZE" or "// 0xOWN (0xTOTAL - 0xBASE)"; the total wins.
	headerSizeRe = regexp.MustCompile(`^//\s*0x([0-9A-Fa-f]+)(?:\s*\(\s*0x([0-9A-Fa-f]+)\s*-\s*0x[0-9A-Fa-f]+\s*\))?\s*$`)
)

// SizeIndex maps structure names to sizes stated explicitly in a document.
type SizeIndex map[string]uint64

// IndexSizes collects explicit structure sizes from text. A sizeof assertion
// takes precedence over a "// 0xSIZE" comment on the declaration line, which
// takes precedence over a size comment on the line directly above it.
func IndexSizes(text string) SizeIndex {
	idx := make(SizeIndex)

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		m := declLineRe.FindStringSubmatchIndex(line)
		if m == nil {
			continue
		}
		name := line[m[2]:m[3]]
		if _, ok := idx[name]; ok {
			continue
		}
		if t := trailingSizeRe.FindStringSubmatch(line[m[3]:]); t != nil {
			if v, err := strconv.ParseUint(t[1], 16, 64); err == nil {
				idx[name] = v
				continue
			}
		}
		if i == 0 {
			continue
		}
		h := headerSizeRe.FindStringSubmatch(strings.TrimSpace(lines[i-1]))
		if h == nil {
			continue
		}
		hex := h[1]
		if h[2] != "" {
			hex = h[2]
		}
		if v, err := strconv.ParseUint(hex, 16, 64); err == nil {
			idx[name] = v
		}
	}

	asserted := make(map[string]bool)
	for _, m := range sizeofRe.FindAllStringSubmatch(text, -1) {
		if asserted[m[1]] {
			continue
		}
		if v, err := strconv.ParseUint(m[2], 16, 64); err == nil {
			idx[m[1]] = v
			asserted[m[1]] = true
		}
	}

	return idx
}

// Size returns the size of the named structure: the explicit size when the
// document states one, otherwise the furthest member end. The second result
// counts members skipped because their end overflowed.
func (idx SizeIndex) Size(name string, members []model.Member) (uint64, int) {
	if v, ok := idx[name]; ok {
		return v, 0
	}
	return extent(members)
}

// extent returns the maximum offset+size over members. The running maximum
// only moves when a member ends strictly past it, so overlapping or
// out-of-order members cannot shrink the result.
func extent(members []model.Member) (uint64, int) {
	var (
		best    uint64
		skipped int
	)
	for _, m := range members {
		end := m.End()
		if end < m.Offset {
			skipped++
			continue
		}
		if end > best {
			best = end
		}
	}
	return best, skipped
}
