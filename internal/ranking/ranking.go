// Package ranking scores catalog search results: structure names, member
// names, member types and member offsets, with an edit-distance fallback for
// near misses.
package ranking

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/phobologic/dumpschema/internal/model"
	"github.com/phobologic/dumpschema/internal/schema"
)

// Kind distinguishes structure hits from member hits.
type Kind string

const (
	ClassResult  Kind = "class"
	MemberResult Kind = "member"
)

// Field names what a member result matched on.
type Field string

const (
	FieldName   Field = "name"
	FieldType   Field = "type"
	FieldOffset Field = "offset"
)

// Match scores.
const (
	ScoreExact       = 100
	ScorePrefix      = 80
	ScoreSubstring   = 50
	ScoreOffsetExact = 90
	ScoreOffsetPart  = 40
)

// Result is one search hit.
type Result struct {
	Kind   Kind   `json:"kind" yaml:"kind"`
	Class  string `json:"class" yaml:"class"`
	Member string `json:"member,omitempty" yaml:"member,omitempty"`
	Type   string `json:"type,omitempty" yaml:"type,omitempty"`
	Offset string `json:"offset,omitempty" yaml:"offset,omitempty"`
	Field  Field  `json:"field,omitempty" yaml:"field,omitempty"`
	Score  int    `json:"score" yaml:"score"`
	Fuzzy  bool   `json:"fuzzy,omitempty" yaml:"fuzzy,omitempty"`
}

// Options selects what is searched and how many results are kept.
type Options struct {
	Classes bool
	Members bool
	// ByType matches member types instead of member names and offsets.
	ByType bool
	Limit  int
	// FuzzyThreshold enables the edit-distance fallback when fewer exact
	// results than this were found.
	FuzzyThreshold int
	MaxDistance    int
}

// DefaultOptions searches classes and members by name.
func DefaultOptions() Options {
	return Options{
		Classes:        true,
		Members:        true,
		Limit:          250,
		FuzzyThreshold: 15,
		MaxDistance:    2,
	}
}

// Search returns the hits for query over structures, best first. Ties keep
// class hits ahead of member hits, then catalog order. Matching ignores case.
func Search(structures []model.Structure, query string, opts Options) []Result {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	q := strings.ToLower(query)

	var results []Result
	classHit := make(map[string]struct{})
	type memberKey struct{ class, member string }
	memberHit := make(map[memberKey]struct{})

	if opts.Classes {
		seen := make(map[string]struct{})
		for i := range structures {
			name := structures[i].Name
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			if score := ScoreMatch(strings.ToLower(name), q); score > 0 {
				results = append(results, Result{Kind: ClassResult, Class: name, Score: score})
				classHit[name] = struct{}{}
			}
		}
	}

	if opts.Members {
		for i := range structures {
			s := &structures[i]
			for _, m := range s.Members {
				offset := schema.FormatHex(m.Offset)
				r := Result{Kind: MemberResult, Class: s.Name, Member: m.Name, Type: m.Type, Offset: offset}
				if opts.ByType {
					r.Score = ScoreMatch(strings.ToLower(m.Type), q)
					r.Field = FieldType
				} else {
					r.Score = ScoreMatch(strings.ToLower(m.Name), q)
					r.Field = FieldName
					if offScore := ScoreOffset(offset, q); offScore > r.Score {
						r.Score = offScore
						r.Field = FieldOffset
					}
				}
				if r.Score > 0 {
					results = append(results, r)
					memberHit[memberKey{s.Name, m.Name}] = struct{}{}
				}
			}
		}
	}

	if len(results) < opts.FuzzyThreshold {
		fits := func(text string) (int, bool) {
			d := levenshtein.ComputeDistance(strings.ToLower(text), q)
			return d, d <= opts.MaxDistance && d < len(q)
		}

		if opts.Classes {
			seen := make(map[string]struct{})
			for i := range structures {
				name := structures[i].Name
				if _, dup := seen[name]; dup {
					continue
				}
				seen[name] = struct{}{}
				if _, ok := classHit[name]; ok {
					continue
				}
				if d, ok := fits(name); ok {
					results = append(results, Result{Kind: ClassResult, Class: name, Score: 20 - d*5, Fuzzy: true})
				}
			}
		}

		if opts.Members && !opts.ByType {
			for i := range structures {
				s := &structures[i]
				for _, m := range s.Members {
					if _, ok := memberHit[memberKey{s.Name, m.Name}]; ok {
						continue
					}
					if d, ok := fits(m.Name); ok {
						results = append(results, Result{
							Kind:   MemberResult,
							Class:  s.Name,
							Member: m.Name,
							Type:   m.Type,
							Offset: schema.FormatHex(m.Offset),
							Field:  FieldName,
							Score:  15 - d*5,
							Fuzzy:  true,
						})
					}
				}
			}
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Kind == ClassResult && results[j].Kind == MemberResult
	})

	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results
}

// ScoreMatch scores text against query: exact, prefix, substring or no match.
// Both must already be lower-cased.
func ScoreMatch(text, query string) int {
	switch {
	case text == query:
		return ScoreExact
	case strings.HasPrefix(text, query):
		return ScorePrefix
	case strings.Contains(text, query):
		return ScoreSubstring
	}
	return 0
}

// ScoreOffset scores a hex offset against query, ignoring any 0x prefix
// and case on either side.
func ScoreOffset(offset, query string) int {
	if offset == "" || query == "" {
		return 0
	}
	o := strings.ToLower(trimHexPrefix(offset))
	q := strings.ToLower(trimHexPrefix(query))
	if q == "" {
		return 0
	}
	switch {
	case o == q:
		return ScoreOffsetExact
	case strings.Contains(o, q):
		return ScoreOffsetPart
	}
	return 0
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
