package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/phobologic/dumpschema/internal/ctype"
	"github.com/phobologic/dumpschema/internal/model"
)

// memberPattern is one member annotation form. Capture groups are looked up
// by name; a form without a "type" or "size" group leaves them to inference.
// An array extent after the name is folded into the type; a bitfield width
// is dropped.
type memberPattern struct {
	re     *regexp.Regexp
	typ    int
	name   int
	array  int
	offset int
	size   int
}

func newMemberPattern(expr string) memberPattern {
	re := regexp.MustCompile(expr)
	return memberPattern{
		re:     re,
		typ:    re.SubexpIndex("type"),
		name:   re.SubexpIndex("name"),
		array:  re.SubexpIndex("array"),
		offset: re.SubexpIndex("offset"),
		size:   re.SubexpIndex("size"),
	}
}

const (
	typeExpr = `(?P<type>[A-Za-z0-9_:<>,\s\*\[\]&]+)`
	declExpr = `^` + typeExpr + `\s+(?P<name>[A-Za-z_][A-Za-z0-9_]*)(?P<array>\[[^\]]*\])?(?:\s*:\s*\d+)?;\s*//\s*`
	hexExpr  = `[0-9A-Fa-f]+`
)

// sdkPatterns are tried in order; the first match wins.
var sdkPatterns = []memberPattern{
	// TYPE NAME; // 0xOFFSET(0xSIZE)
	newMemberPattern(declExpr + `0x(?P<offset>` + hexExpr + `)\s*\(0x(?P<size>` + hexExpr + `)\)`),
	// TYPE NAME; // 0xOFFSET
	newMemberPattern(declExpr + `0x(?P<offset>` + hexExpr + `)`),
	// TYPE NAME; // Offset: 0xOFFSET, Size: 0xSIZE
	newMemberPattern(declExpr + `Offset:\s*0x(?P<offset>` + hexExpr + `)(?:,\s*Size:\s*0x(?P<size>` + hexExpr + `))?`),
}

var offsetsPatterns = []memberPattern{
	// static const uint32 NAME = 0xOFFSET; // (0xSIZE)
	newMemberPattern(`^static\s+const\s+uint32(?:_t)?\s+(?P<name>\w+)\s*=\s*0x(?P<offset>` + hexExpr + `)\s*;\s*//\s*\(\s*0x(?P<size>` + hexExpr + `)\s*\)`),
}

// rawMember holds the captured text of one matched member line.
type rawMember struct {
	typ    string
	name   string
	offset string
	size   string
}

func (e *Extractor) match(line string) (rawMember, bool) {
	for _, p := range e.patterns {
		m := p.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		raw := rawMember{
			name:   strings.TrimSpace(m[p.name]),
			offset: m[p.offset],
		}
		if p.typ >= 0 {
			raw.typ = m[p.typ]
		}
		if p.array >= 0 {
			raw.typ = strings.TrimSpace(raw.typ) + m[p.array]
		}
		if p.size >= 0 {
			raw.size = m[p.size]
		}
		return raw, true
	}
	return rawMember{}, false
}

// members extracts the members of one structure body in encounter order.
func (e *Extractor) members(body string, st *model.Stats) []model.Member {
	var members []model.Member

	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || isAccessLabel(line) || strings.HasPrefix(line, "//") {
			continue
		}

		raw, ok := e.match(line)
		if !ok {
			st.Unmatched++
			continue
		}
		if e.skipMember(raw.name) {
			st.Padding++
			continue
		}

		m, ok := e.member(raw)
		if !ok {
			st.Anomalies++
			st.Warnings++
			continue
		}
		members = append(members, m)
	}

	return members
}

// member converts captured text into a Member. It reports false when the
// offset or size is not a usable number.
func (e *Extractor) member(raw rawMember) (model.Member, bool) {
	offset, err := strconv.ParseUint(raw.offset, 16, 64)
	if err != nil {
		return model.Member{}, false
	}

	var size uint64
	if raw.size != "" {
		size, err = strconv.ParseUint(raw.size, 16, 64)
		if err != nil {
			return model.Member{}, false
		}
	}

	var typ string
	switch e.dialect {
	case model.Offsets:
		typ = ctype.GuessType(raw.name, size)
	default:
		typ = ctype.Normalize(raw.typ)
		if raw.size == "" {
			size = ctype.InferSize(typ)
		}
	}

	if size == 0 {
		return model.Member{}, false
	}

	return model.Member{Name: raw.name, Type: typ, Offset: offset, Size: size}, true
}
