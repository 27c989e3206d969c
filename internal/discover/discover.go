// Package discover finds dump documents under a directory.
package discover

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/phobologic/dumpschema/internal/lang"
)

// FileEntry represents a discovered document.
type FileEntry struct {
	Path string // Relative to Result.Root
	Size int64
}

// Options controls which files are discovered.
type Options struct {
	// Extensions to accept, with leading dot. Empty accepts every extension
	// registered with a language.
	Extensions []string
	// Exclude holds gitignore-style patterns matched against relative paths.
	Exclude []string
	// MaxFileSize skips files larger than this many bytes. Zero disables it.
	MaxFileSize int64
}

// Result lists the documents found under a root.
type Result struct {
	// Root is the directory entry paths are relative to. For a single-file
	// root it is the file's directory.
	Root      string
	Files     []FileEntry
	Oversized []FileEntry // skipped for exceeding MaxFileSize
}

var skipDirs = map[string]struct{}{
	"__pycache__":  {},
	"node_modules": {},
	".git":         {},
	".hg":          {},
	".svn":         {},
	".vs":          {},
	"Binaries":     {},
	"Intermediate": {},
	"obj":          {},
}

// Files discovers dump documents under root. A root naming a regular file
// yields that file alone, whatever its extension.
func Files(root string, opts Options) (*Result, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("root path: %w", err)
	}
	if !info.IsDir() {
		entry := FileEntry{Path: filepath.Base(root), Size: info.Size()}
		res := &Result{Root: filepath.Dir(root)}
		if opts.MaxFileSize > 0 && entry.Size > opts.MaxFileSize {
			res.Oversized = append(res.Oversized, entry)
		} else {
			res.Files = append(res.Files, entry)
		}
		return res, nil
	}

	exts := opts.Extensions
	if len(exts) == 0 {
		exts = lang.Extensions()
	}
	extSet := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		extSet[strings.ToLower(e)] = struct{}{}
	}

	res := &Result{Root: root}
	err = walk(root, opts.Exclude, func(rel string, size int64) {
		if _, ok := extSet[strings.ToLower(filepath.Ext(rel))]; !ok {
			return
		}
		entry := FileEntry{Path: rel, Size: size}
		if opts.MaxFileSize > 0 && size > opts.MaxFileSize {
			res.Oversized = append(res.Oversized, entry)
			return
		}
		res.Files = append(res.Files, entry)
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(res.Files, func(i, j int) bool {
		return res.Files[i].Path < res.Files[j].Path
	})
	sort.Slice(res.Oversized, func(i, j int) bool {
		return res.Oversized[i].Path < res.Oversized[j].Path
	})

	return res, nil
}

// Extensions counts the files under root by lower-cased extension, applying
// the same skip rules as Files. Files without an extension count under "".
func Extensions(root string, exclude []string) (map[string]int, error) {
	counts := make(map[string]int)
	err := walk(root, exclude, func(rel string, _ int64) {
		counts[strings.ToLower(filepath.Ext(rel))]++
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// IDs returns the relative paths of entries.
func IDs(entries []FileEntry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.Path
	}
	return ids
}

// walk calls fn for every regular, visible, non-ignored file under root.
func walk(root string, exclude []string, fn func(rel string, size int64)) error {
	gitFiles := gitLsFiles(root)
	var gi *ignore.GitIgnore
	if gitFiles == nil {
		gi = loadGitignore(root)
	}
	var ex *ignore.GitIgnore
	if len(exclude) > 0 {
		ex = ignore.CompileIgnoreLines(exclude...)
	}

	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip errors
		}

		name := d.Name()

		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") {
			return nil
		}

		// Skip symlinks
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}

		if gitFiles != nil {
			if _, ok := gitFiles[filepath.ToSlash(rel)]; !ok {
				return nil
			}
		} else if gi != nil && gi.MatchesPath(rel) {
			return nil
		}
		if ex != nil && ex.MatchesPath(filepath.ToSlash(rel)) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		fn(rel, info.Size())
		return nil
	})
}

func gitLsFiles(root string) map[string]struct{} {
	gitDir := filepath.Join(root, ".git")
	info, err := os.Stat(gitDir)
	if err != nil || !info.IsDir() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return nil
	}

	files := make(map[string]struct{})
	for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
		if line != "" {
			files[line] = struct{}{}
		}
	}
	return files
}

func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}
