package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phobologic/dumpschema/internal/discover"
	"github.com/phobologic/dumpschema/internal/model"
	"github.com/phobologic/dumpschema/internal/parse"
)

// sampleNames is how many structure names each surveyed document lists.
const sampleNames = 5

type extensionRow struct {
	Extension string `yaml:"extension" json:"extension"`
	Files     int    `yaml:"files" json:"files"`
}

type documentSurvey struct {
	Path           string        `yaml:"path" json:"path"`
	Size           int64         `yaml:"size" json:"size"`
	Dialect        model.Dialect `yaml:"dialect" json:"dialect"`
	Classes        int           `yaml:"classes" json:"classes"`
	Structs        int           `yaml:"structs" json:"structs"`
	Fields         int           `yaml:"fields" json:"fields"`
	StaticFields   int           `yaml:"static_fields" json:"static_fields"`
	Methods        int           `yaml:"methods" json:"methods"`
	Asserts        int           `yaml:"static_asserts" json:"static_asserts"`
	OffsetComments int           `yaml:"offset_comments" json:"offset_comments"`
	SyntaxErrors   bool          `yaml:"syntax_errors,omitempty" json:"syntax_errors,omitempty"`
	Sample         []string      `yaml:"sample,omitempty" json:"sample,omitempty"`
}

type analyzeView struct {
	Root       string           `yaml:"root" json:"root"`
	Extensions []extensionRow   `yaml:"extensions" json:"extensions"`
	Documents  []documentSurvey `yaml:"documents" json:"documents"`
	Total      documentSurvey   `yaml:"total" json:"total"`
}

func newAnalyzeCmd(g *globalOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "analyze [PATH]",
		Short: "Survey the files and header layout under PATH",
		Long: `Count files by extension, then parse every dump header with tree-sitter and
report its declarations: classes, structs, data members (static and not),
member functions, static_asserts and comments carrying hex offsets. The
dialect column shows what --dialect auto would choose.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			root := "."
			if len(args) > 0 {
				root = args[0]
			}
			root, err = filepath.Abs(root)
			if err != nil {
				return fmt.Errorf("resolving root: %w", err)
			}

			res, err := discover.Files(root, discover.Options{
				Extensions:  cfg.Scan.Extensions,
				Exclude:     cfg.Scan.Exclude,
				MaxFileSize: cfg.Scan.MaxFileSize,
			})
			if err != nil {
				return fmt.Errorf("discovering documents: %w", err)
			}

			view := analyzeView{Root: res.Root}
			counts, err := extensionCounts(root, cfg.Scan.Exclude)
			if err != nil {
				return err
			}
			for ext, n := range counts {
				view.Extensions = append(view.Extensions, extensionRow{Extension: ext, Files: n})
			}
			sort.Slice(view.Extensions, func(i, j int) bool {
				a, b := view.Extensions[i], view.Extensions[j]
				if a.Files != b.Files {
					return a.Files > b.Files
				}
				return a.Extension < b.Extension
			})

			stderr := cmd.ErrOrStderr()
			for _, f := range res.Oversized {
				warnOversized(stderr, f, cfg.Scan.MaxFileSize)
			}

			var total parse.Report
			view.Documents = []documentSurvey{}
			for _, f := range res.Files {
				source, err := os.ReadFile(filepath.Join(res.Root, f.Path))
				if err != nil {
					_, _ = fmt.Fprintf(stderr, "Warning: %s: %v\n", f.Path, err)
					continue
				}
				r, err := parse.File(source)
				if err != nil {
					return fmt.Errorf("surveying %s: %w", f.Path, err)
				}
				if g.verbose {
					_, _ = fmt.Fprintf(stderr, "%s: %d structures\n", f.Path, r.Structures())
				}
				view.Documents = append(view.Documents, survey(f.Path, f.Size, r))
				total.Add(r)
			}
			view.Total = survey("", 0, total)
			view.Total.Sample = nil
			for _, d := range view.Documents {
				view.Total.Size += d.Size
			}

			return writeOutput(cmd.OutOrStdout(), view, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of YAML")
	return cmd
}

// extensionCounts counts files by extension under root, or the single file
// root names.
func extensionCounts(root string, exclude []string) (map[string]int, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("root path: %w", err)
	}
	if !info.IsDir() {
		return map[string]int{strings.ToLower(filepath.Ext(root)): 1}, nil
	}
	counts, err := discover.Extensions(root, exclude)
	if err != nil {
		return nil, fmt.Errorf("counting extensions: %w", err)
	}
	return counts, nil
}

func survey(path string, size int64, r parse.Report) documentSurvey {
	d := documentSurvey{
		Path:           path,
		Size:           size,
		Dialect:        r.Dialect(),
		Classes:        r.Classes,
		Structs:        r.Structs,
		Fields:         r.Fields,
		StaticFields:   r.StaticFields,
		Methods:        r.Methods,
		Asserts:        r.Asserts,
		OffsetComments: r.OffsetComments,
		SyntaxErrors:   r.SyntaxErrors,
	}
	d.Sample = r.Names
	if len(d.Sample) > sampleNames {
		d.Sample = d.Sample[:sampleNames]
	}
	return d
}
