package agentflow

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// SearchQuery configures a grep over the workspace.
type SearchQuery struct {
	Query         string
	CaseSensitive bool
	IncludeGlob   string
	ExcludeGlob   string
	// Root restricts the search to a subdirectory of the workspace.
	// Empty means the workspace root.
	Root string
}

// Workspace abstracts the file-system primitives the agent acts on. All
// paths are interpreted relative to the workspace root unless absolute.
type Workspace interface {
	Root() string

	Read(path string) (string, error)
	WriteNew(path, content string) error
	Delete(path string) error

	// ReplaceRange replaces the inclusive 1-indexed line range
	// [startLine, endLine] with text. startLine = endLine = totalLines+1
	// appends after the last line. An empty text deletes the range.
	ReplaceRange(path string, startLine, endLine int, text string) error

	Search(q SearchQuery) ([]SearchMatch, error)
	Tree(path string) (string, error)

	MakeDir(path string) error
	RemoveDir(path string) error
}

// LocalWorkspace implements Workspace against the local file system.
type LocalWorkspace struct {
	root string
}

// NewLocalWorkspace creates a workspace rooted at dir. An empty dir means
// the current directory.
func NewLocalWorkspace(dir string) *LocalWorkspace {
	if dir == "" {
		dir, _ = os.Getwd()
	}
	return &LocalWorkspace{root: dir}
}

func (w *LocalWorkspace) Root() string { return w.root }

func (w *LocalWorkspace) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(w.root, path)
}

func (w *LocalWorkspace) Read(path string) (string, error) {
	data, err := os.ReadFile(w.resolve(path))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// WriteNew creates a file with the given content, creating parent
// directories as needed.
func (w *LocalWorkspace) WriteNew(path, content string) error {
	resolved := w.resolve(path)
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create parent directories for %s: %w", path, err)
	}
	if err := os.WriteFile(resolved, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (w *LocalWorkspace) Delete(path string) error {
	resolved := w.resolve(path)
	info, err := os.Stat(resolved)
	if err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("delete %s: is a directory", path)
	}
	if err := os.Remove(resolved); err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

func (w *LocalWorkspace) ReplaceRange(path string, startLine, endLine int, text string) error {
	content, err := w.Read(path)
	if err != nil {
		return err
	}

	lines := strings.Split(content, "\n")
	total := len(lines)

	if startLine < 1 || startLine > total+1 {
		return fmt.Errorf("replace range in %s: start_line %d out of range [1, %d]", path, startLine, total+1)
	}
	if endLine < 1 || endLine > total+1 {
		return fmt.Errorf("replace range in %s: end_line %d out of range [1, %d]", path, endLine, total+1)
	}
	if startLine > endLine {
		return fmt.Errorf("replace range in %s: start_line %d > end_line %d", path, startLine, endLine)
	}

	// An empty replacement removes the range; otherwise the replacement
	// block is spliced in line by line.
	var replacement []string
	if text != "" {
		replacement = strings.Split(text, "\n")
	}

	var out []string
	if startLine == total+1 {
		// Append after the last line; nothing existing moves.
		out = append(out, lines...)
		out = append(out, replacement...)
	} else {
		out = append(out, lines[:startLine-1]...)
		out = append(out, replacement...)
		if endLine < total {
			out = append(out, lines[endLine:]...)
		}
	}

	if err := os.WriteFile(w.resolve(path), []byte(strings.Join(out, "\n")), 0o644); err != nil {
		return fmt.Errorf("replace range in %s: %w", path, err)
	}
	return nil
}

func (w *LocalWorkspace) Search(q SearchQuery) ([]SearchMatch, error) {
	pattern := q.Query
	if !q.CaseSensitive {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("search: invalid pattern %q: %w", q.Query, err)
	}

	root := w.root
	if q.Root != "" {
		root = w.resolve(q.Root)
	}

	var matches []SearchMatch
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		name := d.Name()
		if q.IncludeGlob != "" {
			if ok, _ := filepath.Match(q.IncludeGlob, name); !ok {
				return nil
			}
		}
		if q.ExcludeGlob != "" {
			if ok, _ := filepath.Match(q.ExcludeGlob, name); ok {
				return nil
			}
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		if bytes.IndexByte(data, 0) >= 0 {
			return nil // binary
		}

		rel, err := filepath.Rel(w.root, path)
		if err != nil {
			rel = path
		}
		for i, line := range strings.Split(string(data), "\n") {
			if re.MatchString(line) {
				matches = append(matches, SearchMatch{File: rel, Line: i + 1, Content: line})
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return matches, nil
}

// Tree renders a directory subtree in the usual box-drawing style:
//
//	utils/
//	├── helpers.go
//	└── io/
//	    └── reader.go
func (w *LocalWorkspace) Tree(path string) (string, error) {
	resolved := w.resolve(path)
	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("list %s: %w", path, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("list %s: not a directory", path)
	}

	var sb strings.Builder
	sb.WriteString(info.Name() + "/\n")
	if err := renderTree(&sb, resolved, ""); err != nil {
		return "", fmt.Errorf("list %s: %w", path, err)
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func renderTree(sb *strings.Builder, dir, prefix string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for i, entry := range entries {
		connector, childPrefix := "├── ", prefix+"│   "
		if i == len(entries)-1 {
			connector, childPrefix = "└── ", prefix+"    "
		}
		if entry.IsDir() {
			sb.WriteString(prefix + connector + entry.Name() + "/\n")
			if err := renderTree(sb, filepath.Join(dir, entry.Name()), childPrefix); err != nil {
				return err
			}
		} else {
			sb.WriteString(prefix + connector + entry.Name() + "\n")
		}
	}
	return nil
}

func (w *LocalWorkspace) MakeDir(path string) error {
	if err := os.MkdirAll(w.resolve(path), 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", path, err)
	}
	return nil
}

func (w *LocalWorkspace) RemoveDir(path string) error {
	resolved := w.resolve(path)
	info, err := os.Stat(resolved)
	if err != nil {
		return fmt.Errorf("delete directory %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("delete directory %s: not a directory", path)
	}
	if err := os.RemoveAll(resolved); err != nil {
		return fmt.Errorf("delete directory %s: %w", path, err)
	}
	return nil
}
