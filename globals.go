package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/phobologic/dumpschema/internal/globals"
)

func newGlobalsCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "globals [DIR]",
		Short: "Create or update globals.json",
		Long: `Write the built-in table of global base addresses and well-known class
offsets to DIR/globals.json (default: the configured output directory). An existing table keeps its
other entries; built-in bases and offsets overwrite matching keys. With
--verbose, every class with offsets is listed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			dir := cfg.Output.Dir
			if len(args) > 0 {
				dir = args[0]
			}
			path := filepath.Join(dir, globals.FileName)

			table, action, err := globals.Update(path)
			if err != nil {
				return fmt.Errorf("updating %s: %w", path, err)
			}

			out := cmd.OutOrStdout()
			bases, classes, offsets := table.Counts()
			_, _ = fmt.Fprintf(out, "%s %s\n", action, path)
			_, _ = fmt.Fprintf(out, "  version:  %s\n", table.Version)
			_, _ = fmt.Fprintf(out, "  bases:    %d\n", bases)
			_, _ = fmt.Fprintf(out, "  offsets:  %d in %d classes\n", offsets, classes)
			if g.verbose {
				for _, class := range table.Classes() {
					_, _ = fmt.Fprintf(out, "    %s: %d\n", class, len(table.Offsets[class]))
				}
			}
			return nil
		},
	}
}
