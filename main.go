// dumpschema converts C++ SDK dumps into a JSON catalog of structure layouts.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// globalOptions holds flags shared by every subcommand.
type globalOptions struct {
	configPath string
	verbose    bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globalOptions{}

	root := &cobra.Command{
		Use:   "dumpschema",
		Short: "Convert C++ SDK dumps into a structure layout catalog",
		Long: `dumpschema reads C++ header dumps (per-package SDK headers or a single
offsets header), extracts every class and struct with its parent, size and
member offsets, and writes the result as sdk_data.json.

The catalog can then be queried for inheritance chains, ranked search results
and statistics without re-reading the dump.

Examples:
  dumpschema convert ./SDK                 # write Data/sdk_data.json
  dumpschema convert dump.hpp -d offsets   # single offsets header
  dumpschema search Health                 # search Data/sdk_data.json
  dumpschema lookup APawn                  # structure with its ancestors`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetVersionTemplate("dumpschema {{.Version}}\n")

	root.PersistentFlags().StringVar(&g.configPath, "config", "", "path to config file (default: dumpschema.yaml in this or a parent directory)")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "report every document")

	root.AddCommand(
		newConvertCmd(g),
		newAnalyzeCmd(g),
		newGlobalsCmd(g),
		newLookupCmd(g),
		newSearchCmd(g),
		newStatsCmd(g),
		newInitCmd(),
	)
	return root
}
