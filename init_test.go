package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/phobologic/dumpschema/internal/config"
)

func TestApplySection(t *testing.T) {
	t.Parallel()
	section := sentinelStart + "\nnew content\n" + sentinelEnd

	tests := []struct {
		name     string
		existing string
		prefix   string
		suffix   string
	}{
		{"empty", "", "\n" + sentinelStart, sentinelEnd + "\n"},
		{"append", "# Notes\n\nSome text.\n", "# Notes\n\nSome text.\n\n" + sentinelStart, sentinelEnd + "\n"},
		{"append without newline", "# Notes", "# Notes\n\n" + sentinelStart, sentinelEnd + "\n"},
		{
			"replace",
			"# Notes\n\n" + sentinelStart + "\nold content\n" + sentinelEnd + "\n\n## Other\n",
			"# Notes\n\n" + sentinelStart,
			sentinelEnd + "\n\n## Other\n",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := applySection(tt.existing, section)
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("prefix mismatch:\n%s", got)
			}
			if !strings.HasSuffix(got, tt.suffix) {
				t.Errorf("suffix mismatch:\n%s", got)
			}
			if strings.Contains(got, "old content") {
				t.Error("old content should be replaced")
			}
			if strings.Count(got, sentinelStart) != 1 {
				t.Errorf("expected exactly one section:\n%s", got)
			}
		})
	}
}

func TestInitWritesConfig(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	_, stderr, err := runArgs(t, "init", dir)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(stderr, "wrote ") {
		t.Errorf("stderr = %q", stderr)
	}

	cfg, err := config.LoadFromPath(filepath.Join(dir, config.ConfigFileName))
	if err != nil {
		t.Fatalf("written config does not load: %v", err)
	}
	if cfg.Output.Dir != "Data" || cfg.Convert.Dialect != "auto" {
		t.Errorf("unexpected config: %+v", cfg)
	}

	// a second run leaves the file alone
	if err := os.WriteFile(filepath.Join(dir, config.ConfigFileName), []byte("output:\n  dir: Out\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, stderr, err = runArgs(t, "init", dir)
	if err != nil {
		t.Fatalf("second init: %v", err)
	}
	if !strings.Contains(stderr, "left untouched") {
		t.Errorf("stderr = %q", stderr)
	}
	data, _ := os.ReadFile(filepath.Join(dir, config.ConfigFileName))
	if string(data) != "output:\n  dir: Out\n" {
		t.Errorf("existing config modified:\n%s", data)
	}
}

func TestInitNotesIdempotent(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	notes := filepath.Join(dir, "NOTES.md")
	if err := os.WriteFile(notes, []byte("# Project\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := runArgs(t, "init", dir, "--notes", notes); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first, _ := os.ReadFile(notes)
	if _, _, err := runArgs(t, "init", dir, "--notes", notes); err != nil {
		t.Fatalf("second run: %v", err)
	}
	second, _ := os.ReadFile(notes)

	if string(first) != string(second) {
		t.Errorf("init is not idempotent:\nfirst:\n%s\nsecond:\n%s", first, second)
	}
	if !strings.HasPrefix(string(first), "# Project\n") || !strings.Contains(string(first), "dumpschema lookup") {
		t.Errorf("unexpected notes:\n%s", first)
	}
}

func TestInitDryRun(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	notes := filepath.Join(dir, "NOTES.md")

	stdout, _, err := runArgs(t, "init", dir, "--dry-run", "--notes", notes)
	if err != nil {
		t.Fatalf("init --dry-run: %v", err)
	}
	if !strings.Contains(stdout, "dialect: auto") || !strings.Contains(stdout, sentinelStart) {
		t.Errorf("dry-run output:\n%s", stdout)
	}
	for _, path := range []string{notes, filepath.Join(dir, config.ConfigFileName)} {
		if _, err := os.Stat(path); err == nil {
			t.Errorf("--dry-run created %s", path)
		}
	}
}

func TestGeneratedSectionExamples(t *testing.T) {
	t.Parallel()
	section := generateSection()
	for _, ex := range []string{"dumpschema convert", "--layout", "search 0x190", "--type"} {
		if !strings.Contains(section, ex) {
			t.Errorf("generated section missing example %q", ex)
		}
	}
}
