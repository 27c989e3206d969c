// Package ctype canonicalizes C/C++ type spellings found in dump documents
// and guesses byte sizes and types when a dump leaves them out.
package ctype

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	qualifierRe  = regexp.MustCompile(`\b(?:class|struct|enum)\s+`)
)

// spellings maps compiler-specific integer spellings to fixed-width names.
// Entries are ordered longest first so that "unsigned long long" is replaced
// before "long long" and "unsigned short" before "short".
var spellings = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`\bunsigned long long\b`), "uint64"},
	{regexp.MustCompile(`\bunsigned short\b`), "uint16"},
	{regexp.MustCompile(`\bunsigned char\b`), "uint8"},
	{regexp.MustCompile(`\bunsigned int\b`), "uint32"},
	{regexp.MustCompile(`\bsigned char\b`), "int8"},
	{regexp.MustCompile(`\blong long\b`), "int64"},
	{regexp.MustCompile(`\bshort\b`), "int16"},
}

// Normalize returns the canonical spelling of a raw type token. Unknown
// tokens pass through unchanged and normalizing twice is a no-op.
func Normalize(raw string) string {
	collapsed := CollapseWhitespace(raw)
	if collapsed == "" {
		return raw
	}
	t := qualifierRe.ReplaceAllString(collapsed, "")
	for _, s := range spellings {
		t = s.re.ReplaceAllString(t, s.repl)
	}
	t = strings.TrimSpace(t)
	if t == "" {
		return collapsed
	}
	return t
}

// CollapseWhitespace replaces runs of whitespace with a single space and trims.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
