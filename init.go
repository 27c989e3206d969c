package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/phobologic/dumpschema/internal/config"
)

const (
	sentinelStart = "<!-- dumpschema:start -->"
	sentinelEnd   = "<!-- dumpschema:end -->"
)

func newInitCmd() *cobra.Command {
	var (
		dryRun bool
		notes  string
	)

	cmd := &cobra.Command{
		Use:   "init [DIR]",
		Short: "Write a default dumpschema.yaml",
		Long: `Write dumpschema.yaml with every setting at its default to DIR (default ".").
An existing file is left untouched.

With --notes FILE, also write a dumpschema usage section to a Markdown file.
The section is wrapped in sentinel comments so later runs update it in place
without touching surrounding content.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			if dryRun {
				data, err := yaml.Marshal(config.DefaultConfig())
				if err != nil {
					return fmt.Errorf("marshaling config: %w", err)
				}
				_, _ = out.Write(data)
				if notes != "" {
					existing, _ := os.ReadFile(notes)
					_, _ = fmt.Fprint(out, applySection(string(existing), generateSection()))
				}
				return nil
			}

			existing := filepath.Join(dir, config.ConfigFileName)
			if _, err := os.Stat(existing); err == nil {
				_, _ = fmt.Fprintf(stderr, "%s exists, left untouched\n", existing)
			} else {
				path, err := config.SaveDefault(dir)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(stderr, "wrote %s\n", path)
			}

			if notes == "" {
				return nil
			}
			content, _ := os.ReadFile(notes)
			updated := applySection(string(content), generateSection())
			if err := os.WriteFile(notes, []byte(updated), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", notes, err)
			}
			_, _ = fmt.Fprintf(stderr, "wrote dumpschema section to %s\n", notes)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would be written without modifying files")
	cmd.Flags().StringVar(&notes, "notes", "", "also write a usage section to this Markdown file")
	return cmd
}

// generateSection returns the sentinel-wrapped usage block.
func generateSection() string {
	body := `## dumpschema: SDK layout catalog

Run ` + "`dumpschema convert <dump dir>`" + ` after every new dump. It writes
` + "`Data/sdk_data.json`" + ` (every class and struct with parent, size and member
offsets) and refreshes ` + "`Data/globals.json`" + `.

**Query it instead of grepping the dump:**
` + "```" + `bash
dumpschema lookup APlayerController          # members, ancestors, children
dumpschema lookup APawn --layout             # include inherited members
dumpschema search Health                     # names, prefixes, substrings
dumpschema search 0x190                      # members at an offset
dumpschema search --type TArray              # members by type
dumpschema stats                             # counts and missing parents
` + "```" + `

Offsets and sizes are hexadecimal (` + "`0x190`" + `). A structure's size includes its
parent's members.`

	return sentinelStart + "\n" + body + "\n" + sentinelEnd
}

// applySection inserts section into content, replacing an existing sentinel
// block if present or appending if not.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + "\n" + section + "\n"
}
