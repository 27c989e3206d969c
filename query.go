package main

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/phobologic/dumpschema/internal/graph"
	"github.com/phobologic/dumpschema/internal/model"
	"github.com/phobologic/dumpschema/internal/ranking"
	"github.com/phobologic/dumpschema/internal/schema"
	"github.com/phobologic/dumpschema/internal/store"
)

// queryOptions holds flags shared by the catalog query commands.
type queryOptions struct {
	catalog string
	json    bool
}

func (q *queryOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&q.catalog, "catalog", "", "catalog to query: sdk_data.json or a SQLite export (default <output dir>/sdk_data.json)")
	cmd.Flags().BoolVar(&q.json, "json", false, "print JSON instead of YAML")
}

type lookupView struct {
	Name     string       `yaml:"name" json:"name"`
	Kind     model.Kind   `yaml:"kind" json:"kind"`
	Parent   string       `yaml:"parent,omitempty" json:"parent,omitempty"`
	Size     string       `yaml:"size" json:"size"`
	Document string       `yaml:"document,omitempty" json:"document,omitempty"`
	Chain    []string     `yaml:"chain,omitempty" json:"chain,omitempty"`
	Missing  string       `yaml:"missing_ancestor,omitempty" json:"missing_ancestor,omitempty"`
	Children []string     `yaml:"children,omitempty" json:"children,omitempty"`
	Members  []memberView `yaml:"members" json:"members"`
}

func newLookupCmd(g *globalOptions) *cobra.Command {
	q := &queryOptions{}
	var layout bool

	cmd := &cobra.Command{
		Use:   "lookup NAME",
		Short: "Show a structure with its inheritance chain",
		Long: `Show one structure: kind, size, members, the chain of ancestors (nearest
first) and the structures deriving directly from it. With --layout the member
list also includes every inherited member, ordered by offset.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			ix, children, err := lookupStructure(catalogPath(q.catalog, cfg), args[0])
			if err != nil {
				return err
			}
			s, _ := ix.Lookup(args[0])

			view := lookupView{
				Name:     s.Name,
				Kind:     s.Kind,
				Parent:   s.Parent,
				Size:     schema.FormatHex(s.Size),
				Document: s.Document,
				Chain:    ix.Chain(s.Name),
				Children: children,
				Members:  []memberView{},
			}
			if n := len(view.Chain); n > 0 {
				if _, ok := ix.Lookup(view.Chain[n-1]); !ok {
					view.Missing = view.Chain[n-1]
				}
			}
			if layout {
				for _, m := range ix.Layout(s.Name) {
					view.Members = append(view.Members, viewMember(m.Member, m.Owner))
				}
			} else {
				for _, m := range s.Members {
					view.Members = append(view.Members, viewMember(m, ""))
				}
			}
			return writeOutput(cmd.OutOrStdout(), view, q.json)
		},
	}
	q.register(cmd)
	cmd.Flags().BoolVar(&layout, "layout", false, "include inherited members")
	return cmd
}

// lookupStructure indexes the named structure with its resolvable ancestors
// and returns the names deriving directly from it. A SQLite catalog is
// queried for just those rows; a JSON catalog is read whole.
func lookupStructure(path, name string) (*graph.Index, []string, error) {
	if !isDatabase(path) {
		cat, err := loadCatalog(path)
		if err != nil {
			return nil, nil, err
		}
		ix := graph.Build(cat.Structures)
		if _, ok := ix.Lookup(name); !ok {
			return nil, nil, fmt.Errorf("%w: %s", store.ErrNotFound, name)
		}
		return ix, ix.Children(name), nil
	}

	if _, err := os.Stat(path); err != nil {
		return nil, nil, fmt.Errorf("catalog: %w", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer st.Close()

	s, err := st.Structure(name)
	if err != nil {
		return nil, nil, err
	}
	related := []model.Structure{*s}
	seen := map[string]struct{}{name: {}}
	for parent := s.Parent; parent != ""; {
		if _, loop := seen[parent]; loop {
			break
		}
		seen[parent] = struct{}{}
		a, err := st.Structure(parent)
		if errors.Is(err, store.ErrNotFound) {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		related = append(related, *a)
		parent = a.Parent
	}

	children, err := st.Children(name)
	if err != nil {
		return nil, nil, err
	}
	return graph.Build(related), children, nil
}

func newSearchCmd(g *globalOptions) *cobra.Command {
	q := &queryOptions{}
	var (
		byType      bool
		classesOnly bool
		membersOnly bool
		limit       int
	)

	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search structure names, member names, types and offsets",
		Long: `Rank structures and members against QUERY. Exact matches score 100, prefixes
80 and substrings 50; a hex offset matches a member exactly (90) or partially
(40). When few results are found, names within a small edit distance are added
with lower scores.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if classesOnly && membersOnly {
				return fmt.Errorf("--classes and --members are mutually exclusive")
			}
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			cat, err := loadCatalog(catalogPath(q.catalog, cfg))
			if err != nil {
				return err
			}

			opts := ranking.Options{
				Classes:        !membersOnly && !byType,
				Members:        !classesOnly,
				ByType:         byType,
				Limit:          cfg.Search.Limit,
				FuzzyThreshold: cfg.Search.FuzzyThreshold,
				MaxDistance:    cfg.Search.MaxDistance,
			}
			if cmd.Flags().Changed("limit") {
				opts.Limit = limit
			}

			results := ranking.Search(cat.Structures, args[0], opts)
			if results == nil {
				results = []ranking.Result{}
			}
			return writeOutput(cmd.OutOrStdout(), results, q.json)
		},
	}
	q.register(cmd)
	f := cmd.Flags()
	f.BoolVar(&byType, "type", false, "match member types instead of names")
	f.BoolVar(&classesOnly, "classes", false, "search structure names only")
	f.BoolVar(&membersOnly, "members", false, "search members only")
	f.IntVar(&limit, "limit", 0, "maximum number of results (default from config: 250)")
	return cmd
}

type statsView struct {
	Structures int             `yaml:"structures" json:"structures"`
	Classes    int             `yaml:"classes" json:"classes"`
	Structs    int             `yaml:"structs" json:"structs"`
	Members    int             `yaml:"members" json:"members"`
	Documents  int             `yaml:"documents" json:"documents"`
	Unresolved []unresolvedRow `yaml:"unresolved_parents,omitempty" json:"unresolved_parents,omitempty"`
	TopBases   []baseRow       `yaml:"top_bases,omitempty" json:"top_bases,omitempty"`
	Duplicates []duplicateRow  `yaml:"duplicate_members,omitempty" json:"duplicate_members,omitempty"`
}

type unresolvedRow struct {
	Parent   string `yaml:"parent" json:"parent"`
	Children int    `yaml:"children" json:"children"`
}

type baseRow struct {
	Name     string  `yaml:"name" json:"name"`
	Rank     float64 `yaml:"rank" json:"rank"`
	Children int     `yaml:"children" json:"children"`
}

type duplicateRow struct {
	Structure string   `yaml:"structure" json:"structure"`
	Members   []string `yaml:"members" json:"members"`
}

func newStatsCmd(g *globalOptions) *cobra.Command {
	q := &queryOptions{}
	var top int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize a catalog",
		Long: `Count structures and members, list parents referenced but not defined in the
catalog, rank the most derived-from base types with PageRank and list
structures declaring the same member name twice.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			cat, err := loadCatalog(catalogPath(q.catalog, cfg))
			if err != nil {
				return err
			}
			view := catalogStats(cat, top, cfg.Metrics.PageRankDamping, cfg.Metrics.PageRankIterations)
			return writeOutput(cmd.OutOrStdout(), view, q.json)
		},
	}
	q.register(cmd)
	cmd.Flags().IntVar(&top, "top", 10, "number of base types to rank")
	return cmd
}

func catalogStats(cat *model.Catalog, top int, damping float64, iterations int) statsView {
	structures := cat.Structures
	v := statsView{Members: cat.Members()}
	docs := make(map[string]struct{})
	for i := range structures {
		s := &structures[i]
		v.Structures++
		if s.Kind == model.Struct {
			v.Structs++
		} else {
			v.Classes++
		}
		if s.Document != "" {
			docs[s.Document] = struct{}{}
		}
		if dups := s.DuplicateMembers(); len(dups) > 0 {
			v.Duplicates = append(v.Duplicates, duplicateRow{Structure: s.Name, Members: dups})
		}
	}
	v.Documents = len(docs)

	for _, u := range graph.Build(structures).Unresolved() {
		v.Unresolved = append(v.Unresolved, unresolvedRow{Parent: u.Parent, Children: len(u.Children)})
	}
	sort.SliceStable(v.Unresolved, func(i, j int) bool {
		return v.Unresolved[i].Children > v.Unresolved[j].Children
	})

	for _, r := range graph.Rank(structures, damping, iterations) {
		if len(v.TopBases) >= top {
			break
		}
		if r.Children == 0 {
			continue
		}
		v.TopBases = append(v.TopBases, baseRow{Name: r.Name, Rank: r.Rank, Children: r.Children})
	}
	return v
}
