package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/phobologic/dumpschema/internal/config"
	"github.com/phobologic/dumpschema/internal/convert"
	"github.com/phobologic/dumpschema/internal/discover"
	"github.com/phobologic/dumpschema/internal/globals"
	"github.com/phobologic/dumpschema/internal/model"
	"github.com/phobologic/dumpschema/internal/parse"
	"github.com/phobologic/dumpschema/internal/schema"
	"github.com/phobologic/dumpschema/internal/store"
	"github.com/phobologic/dumpschema/internal/toon"
)

// Output file names inside the output directory.
const (
	catalogJSON = "sdk_data.json"
	catalogTOON = "sdk_data.toon"
)

type convertOptions struct {
	output      string
	dialect     string
	format      string
	workers     int
	exclude     []string
	maxFileSize int64
	sqlite      string
	noGlobals   bool
}

func newConvertCmd(g *globalOptions) *cobra.Command {
	o := &convertOptions{}

	cmd := &cobra.Command{
		Use:   "convert [PATH...]",
		Short: "Convert dump headers into sdk_data.json",
		Long: `Discover dump headers under each PATH (a directory or a single file,
default "."), extract every structure and write the catalog to the output
directory together with globals.json.

Documents that cannot be read are reported as warnings and skipped. The run
fails only when no document was found or none could be read.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			if err := o.apply(cmd, cfg); err != nil {
				return err
			}
			if len(args) == 0 {
				args = []string{"."}
			}
			return runConvert(cmd, cfg, g.verbose, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.output, "output", "o", "", "output directory (default from config: Data)")
	f.StringVarP(&o.dialect, "dialect", "d", "", "input dialect: auto, sdk or offsets")
	f.StringVar(&o.format, "format", "", "catalog format: json or toon")
	f.IntVar(&o.workers, "workers", 0, "documents converted at once")
	f.StringSliceVar(&o.exclude, "exclude", nil, "gitignore-style patterns to skip (repeatable)")
	f.Int64Var(&o.maxFileSize, "max-file-size", 0, "skip documents larger than this many bytes")
	f.StringVar(&o.sqlite, "sqlite", "", "also export the catalog to this SQLite database")
	f.BoolVar(&o.noGlobals, "no-globals", false, "do not create or update globals.json")
	return cmd
}

// apply overrides cfg with the flags set on the command line.
func (o *convertOptions) apply(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	if f.Changed("output") {
		cfg.Output.Dir = o.output
	}
	if f.Changed("dialect") {
		cfg.Convert.Dialect = o.dialect
	}
	if f.Changed("format") {
		cfg.Output.Format = o.format
	}
	if f.Changed("workers") {
		cfg.Convert.Workers = o.workers
	}
	if f.Changed("exclude") {
		cfg.Scan.Exclude = append(cfg.Scan.Exclude, o.exclude...)
	}
	if f.Changed("max-file-size") {
		cfg.Scan.MaxFileSize = o.maxFileSize
	}
	if f.Changed("sqlite") {
		cfg.Output.SQLite = o.sqlite
	}
	if f.Changed("no-globals") {
		cfg.Output.SkipGlobals = o.noGlobals
	}
	return config.Validate(cfg)
}

func runConvert(cmd *cobra.Command, cfg *config.Config, verbose bool, paths []string) error {
	stderr := cmd.ErrOrStderr()
	start := time.Now()

	src, ids, err := collectDocuments(paths, cfg.Scan, stderr)
	if err != nil {
		return err
	}

	conv, err := convert.New(src, convert.Options{
		Dialect:        model.Dialect(cfg.Convert.Dialect),
		Workers:        cfg.Convert.Workers,
		Diag:           stderr,
		Verbose:        verbose,
		SkipMembers:    cfg.Convert.SkipMembers,
		SkipStructures: cfg.Convert.SkipStructures,
		DropEmpty:      cfg.Convert.DropEmptyByDialect(),
		Detect:         parse.Detect,
	})
	if err != nil {
		return err
	}

	cat, err := conv.Convert(cmd.Context(), ids)
	if err != nil {
		if errors.Is(err, convert.ErrNoDocuments) {
			return fmt.Errorf("no dump documents found in %v", paths)
		}
		return err
	}

	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	outPath, err := writeCatalog(cfg.Output.Dir, cfg.Output.Format, cat)
	if err != nil {
		return err
	}

	var globalsLine string
	if !cfg.Output.SkipGlobals {
		path := filepath.Join(cfg.Output.Dir, globals.FileName)
		table, action, err := globals.Update(path)
		if err != nil {
			return fmt.Errorf("updating %s: %w", globals.FileName, err)
		}
		if action == globals.Replaced {
			_, _ = fmt.Fprintf(stderr, "Warning: %s: unreadable, replaced with defaults\n", path)
		}
		bases, classes, offsets := table.Counts()
		globalsLine = fmt.Sprintf("%s (%s: %d bases, %d offsets in %d classes)", path, action, bases, offsets, classes)
	}

	if cfg.Output.SQLite != "" {
		if err := exportSQLite(cfg.Output.SQLite, cat); err != nil {
			return err
		}
	}

	writeSummary(stderr, cat, outPath, globalsLine, cfg.Output.SQLite, time.Since(start))
	return nil
}

// collectDocuments discovers the documents under every path. A single path
// yields identifiers relative to its root; several paths yield absolute ones.
func collectDocuments(paths []string, scan config.ScanConfig, stderr io.Writer) (convert.Source, []string, error) {
	opts := discover.Options{
		Extensions:  scan.Extensions,
		Exclude:     scan.Exclude,
		MaxFileSize: scan.MaxFileSize,
	}

	var ids []string
	seen := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, nil, fmt.Errorf("resolving %s: %w", p, err)
		}
		res, err := discover.Files(abs, opts)
		if err != nil {
			return nil, nil, fmt.Errorf("discovering documents: %w", err)
		}
		for _, f := range res.Oversized {
			warnOversized(stderr, f, scan.MaxFileSize)
		}

		if len(paths) == 1 {
			return convert.FileSource{Root: res.Root}, discover.IDs(res.Files), nil
		}
		for _, id := range discover.IDs(res.Files) {
			full := filepath.Join(res.Root, id)
			if _, dup := seen[full]; dup {
				continue
			}
			seen[full] = struct{}{}
			ids = append(ids, full)
		}
	}
	return convert.FileSource{}, ids, nil
}

// warnOversized reports a document skipped for exceeding the size limit.
func warnOversized(w io.Writer, f discover.FileEntry, limit int64) {
	_, _ = fmt.Fprintf(w, "Warning: %s: skipped (%s, limit %s)\n",
		f.Path, humanize.Bytes(uint64(f.Size)), humanize.Bytes(uint64(limit)))
}

// writeCatalog writes cat in the given format and returns the file path.
func writeCatalog(dir, format string, cat *model.Catalog) (string, error) {
	name := catalogJSON
	if format == "toon" {
		name = catalogTOON
	}
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("writing catalog: %w", err)
	}
	if format == "toon" {
		_, err = fmt.Fprintln(f, toon.Encode(cat))
	} else {
		err = schema.Encode(f, cat.Structures)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

func exportSQLite(path string, cat *model.Catalog) error {
	st, err := store.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer st.Close()

	if err := st.Save(cat); err != nil {
		return fmt.Errorf("exporting to %s: %w", path, err)
	}
	return nil
}

func writeSummary(w io.Writer, cat *model.Catalog, outPath, globalsLine, sqlitePath string, elapsed time.Duration) {
	s := cat.Stats
	var size string
	if fi, err := os.Stat(outPath); err == nil {
		size = humanize.Bytes(uint64(fi.Size()))
	}

	_, _ = fmt.Fprintf(w, "Converted %s documents (%d failed) in %.2fs\n",
		humanize.Comma(int64(s.Documents)), s.Failed, elapsed.Seconds())
	_, _ = fmt.Fprintf(w, "  structures:   %s (%s classes, %s structs)\n",
		humanize.Comma(int64(s.Structures())), humanize.Comma(int64(s.Classes)), humanize.Comma(int64(s.Structs)))
	_, _ = fmt.Fprintf(w, "  members:      %s\n", humanize.Comma(int64(s.Members)))
	_, _ = fmt.Fprintf(w, "  skipped:      %d rejected, %d empty, %d unterminated, %d padding, %d anomalies\n",
		s.Rejected, s.Empty, s.Unterminated, s.Padding, s.Anomalies)
	_, _ = fmt.Fprintf(w, "  lines:        %s (%s unmatched)\n", humanize.Comma(int64(s.Lines)), humanize.Comma(int64(s.Unmatched)))
	_, _ = fmt.Fprintf(w, "  output:       %s (%s)\n", outPath, size)
	if globalsLine != "" {
		_, _ = fmt.Fprintf(w, "  globals:      %s\n", globalsLine)
	}
	if sqlitePath != "" {
		_, _ = fmt.Fprintf(w, "  sqlite:       %s\n", sqlitePath)
	}
}
