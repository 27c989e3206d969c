// Package graph indexes the inheritance relations of a catalog and ranks
// base types with PageRank.
package graph

import (
	"math"
	"sort"

	"github.com/phobologic/dumpschema/internal/model"
)

// Index resolves structure names and parent links over a catalog. When a name
// occurs more than once, the first structure with that name is used.
type Index struct {
	byName   map[string]*model.Structure
	children map[string][]string
}

// Build indexes structures. The slice must not be modified afterwards.
func Build(structures []model.Structure) *Index {
	ix := &Index{
		byName:   make(map[string]*model.Structure, len(structures)),
		children: make(map[string][]string),
	}
	for i := range structures {
		s := &structures[i]
		if _, dup := ix.byName[s.Name]; !dup {
			ix.byName[s.Name] = s
		}
		if s.Parent != "" {
			ix.children[s.Parent] = append(ix.children[s.Parent], s.Name)
		}
	}
	for parent := range ix.children {
		sort.Strings(ix.children[parent])
	}
	return ix
}

// Lookup returns the structure with the given name.
func (ix *Index) Lookup(name string) (*model.Structure, bool) {
	s, ok := ix.byName[name]
	return s, ok
}

// Chain returns the ancestors of name, nearest first. A parent missing from
// the catalog ends the chain as its last element; a cycle ends it before the
// repeated name.
func (ix *Index) Chain(name string) []string {
	var chain []string
	seen := map[string]struct{}{name: {}}

	s, ok := ix.byName[name]
	for ok && s.Parent != "" {
		if _, loop := seen[s.Parent]; loop {
			break
		}
		seen[s.Parent] = struct{}{}
		chain = append(chain, s.Parent)
		s, ok = ix.byName[s.Parent]
	}
	return chain
}

// Children returns the sorted names of structures deriving directly from name.
func (ix *Index) Children(name string) []string {
	return ix.children[name]
}

// Unresolved is a parent name referenced in the catalog but not defined in it.
type Unresolved struct {
	Parent   string
	Children []string
}

// Unresolved returns every parent missing from the catalog, sorted by name.
func (ix *Index) Unresolved() []Unresolved {
	var out []Unresolved
	for parent, children := range ix.children {
		if _, ok := ix.byName[parent]; ok {
			continue
		}
		out = append(out, Unresolved{Parent: parent, Children: children})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Parent < out[j].Parent
	})
	return out
}

// LayoutMember is a member together with the structure declaring it.
type LayoutMember struct {
	Owner string
	model.Member
}

// Layout returns the members of name and of all its resolved ancestors,
// ordered by offset; at equal offsets the most distant ancestor comes first.
func (ix *Index) Layout(name string) []LayoutMember {
	s, ok := ix.byName[name]
	if !ok {
		return nil
	}

	owners := []*model.Structure{s}
	for _, ancestor := range ix.Chain(name) {
		a, ok := ix.byName[ancestor]
		if !ok {
			break
		}
		owners = append(owners, a)
	}

	var layout []LayoutMember
	for i := len(owners) - 1; i >= 0; i-- {
		for _, m := range owners[i].Members {
			layout = append(layout, LayoutMember{Owner: owners[i].Name, Member: m})
		}
	}
	sort.SliceStable(layout, func(i, j int) bool {
		return layout[i].Offset < layout[j].Offset
	})
	return layout
}

// Ranked is a structure name with its inheritance rank.
type Ranked struct {
	Name     string
	Rank     float64
	Children int
}

// Rank applies PageRank over child→parent edges, so types that many others
// derive from (directly or transitively) rank highest. Results are sorted by
// rank descending, then name.
func Rank(structures []model.Structure, alpha float64, maxIter int) []Ranked {
	if len(structures) == 0 {
		return nil
	}

	nodes := make(map[string]struct{})
	for i := range structures {
		nodes[structures[i].Name] = struct{}{}
	}

	outEdges := make(map[string][]string)
	outDegree := make(map[string]int)
	children := make(map[string]int)
	seen := make(map[string]struct{})
	for i := range structures {
		s := &structures[i]
		if _, dup := seen[s.Name]; dup {
			continue
		}
		seen[s.Name] = struct{}{}
		if _, ok := nodes[s.Parent]; !ok || s.Parent == s.Name {
			continue
		}
		outEdges[s.Name] = append(outEdges[s.Name], s.Parent)
		outDegree[s.Name]++
		children[s.Parent]++
	}

	ranks := pageRank(nodes, outEdges, outDegree, alpha, maxIter, 1e-9)

	out := make([]Ranked, 0, len(ranks))
	for name, r := range ranks {
		out = append(out, Ranked{Name: name, Rank: r, Children: children[name]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rank != out[j].Rank {
			return out[i].Rank > out[j].Rank
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func pageRank(
	nodes map[string]struct{},
	outEdges map[string][]string,
	outDegree map[string]int,
	alpha float64,
	maxIter int,
	tol float64,
) map[string]float64 {
	n := len(nodes)
	if n == 0 {
		return nil
	}

	rank := make(map[string]float64, n)
	initial := 1.0 / float64(n)
	for node := range nodes {
		rank[node] = initial
	}

	teleport := (1.0 - alpha) / float64(n)

	for iter := 0; iter < maxIter; iter++ {
		newRank := make(map[string]float64, n)

		// Dangling node contribution (nodes with no outgoing edges)
		var danglingSum float64
		for node := range nodes {
			if outDegree[node] == 0 {
				danglingSum += rank[node]
			}
		}
		danglingContrib := alpha * danglingSum / float64(n)

		for node := range nodes {
			newRank[node] = teleport + danglingContrib
		}

		// Distribute rank through edges
		for src, targets := range outEdges {
			deg := float64(outDegree[src])
			contrib := alpha * rank[src] / deg
			for _, tgt := range targets {
				newRank[tgt] += contrib
			}
		}

		// Check convergence
		var diff float64
		for node := range nodes {
			diff += math.Abs(newRank[node] - rank[node])
		}

		rank = newRank

		if diff < tol {
			break
		}
	}

	return rank
}
