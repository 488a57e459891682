package ide

import (
	"os"
	"path/filepath"
	"strings"

	"agentide/internal/tools"
)

// Files is the file access the panels need. *tools.LocalFS satisfies it.
type Files interface {
	Read(path string) (string, error)
	Write(path, content string) error
	ListDir(path string) ([]tools.DirEntry, error)
	Stat(path string) (tools.FileStat, error)
	MkdirAll(path string) error
	Delete(path string) error
}

type treeNode struct {
	path  string
	name  string
	depth int
	isDir bool
}

// explorer is a lazily expanded directory tree rooted at the project root.
type explorer struct {
	root     string
	files    Files
	expanded map[string]bool
	nodes    []treeNode
	cursor   int
	offset   int
	err      error
}

func newExplorer(root string, files Files) explorer {
	e := explorer{
		root:     root,
		files:    files,
		expanded: map[string]bool{root: true},
	}
	e.refresh()
	return e
}

// refresh rebuilds the visible rows and keeps the cursor on the same path when
// it still exists.
func (e *explorer) refresh() {
	var keep string
	if n, ok := e.selected(); ok {
		keep = n.path
	}
	e.nodes = e.nodes[:0]
	e.err = nil
	if e.files != nil {
		e.walk(e.root, 0)
	}
	e.cursor = 0
	for i, n := range e.nodes {
		if n.path == keep {
			e.cursor = i
			break
		}
	}
	e.cursor = clamp(0, e.cursor, max(0, len(e.nodes)-1))
}

func (e *explorer) walk(dir string, depth int) {
	entries, err := e.files.ListDir(dir)
	if err != nil {
		if depth == 0 {
			e.err = err
		}
		return
	}
	for _, ent := range entries {
		if strings.HasPrefix(ent.Name, ".") {
			continue
		}
		p := filepath.Join(dir, ent.Name)
		e.nodes = append(e.nodes, treeNode{path: p, name: ent.Name, depth: depth, isDir: ent.IsDir})
		if ent.IsDir && e.expanded[p] {
			e.walk(p, depth+1)
		}
	}
}

func (e *explorer) selected() (treeNode, bool) {
	if e.cursor < 0 || e.cursor >= len(e.nodes) {
		return treeNode{}, false
	}
	return e.nodes[e.cursor], true
}

// reveal expands every directory between the root and path, then selects
// path when it is listed.
func (e *explorer) reveal(path string) {
	for dir := filepath.Dir(path); within(e.root, dir); dir = filepath.Dir(dir) {
		e.expanded[dir] = true
		if dir == e.root {
			break
		}
	}
	e.refresh()
	for i, n := range e.nodes {
		if n.path == path {
			e.cursor = i
			return
		}
	}
}

func (e *explorer) move(delta int, rows int) {
	if len(e.nodes) == 0 {
		return
	}
	e.cursor = clamp(0, e.cursor+delta, len(e.nodes)-1)
	e.follow(rows)
}

// follow scrolls so the cursor row is within the rows visible lines.
func (e *explorer) follow(rows int) {
	if rows <= 0 {
		return
	}
	if e.cursor < e.offset {
		e.offset = e.cursor
	}
	if e.cursor >= e.offset+rows {
		e.offset = e.cursor - rows + 1
	}
	e.offset = clamp(0, e.offset, max(0, len(e.nodes)-rows))
}

func (e *explorer) scroll(delta int, rows int) {
	e.offset = clamp(0, e.offset+delta, max(0, len(e.nodes)-rows))
}

// activate expands or collapses the selected directory. For a file it returns
// the path to open.
func (e *explorer) activate() (string, bool) {
	n, ok := e.selected()
	if !ok {
		return "", false
	}
	if !n.isDir {
		return n.path, true
	}
	e.expanded[n.path] = !e.expanded[n.path]
	e.refresh()
	return "", false
}

// collapse folds the selected directory, or jumps to the parent of a file.
func (e *explorer) collapse(rows int) {
	n, ok := e.selected()
	if !ok {
		return
	}
	if n.isDir && e.expanded[n.path] {
		e.expanded[n.path] = false
		e.refresh()
		return
	}
	parent := filepath.Dir(n.path)
	for i, cand := range e.nodes {
		if cand.path == parent {
			e.cursor = i
			e.follow(rows)
			return
		}
	}
}

// clickRow selects the row-th visible line and reports whether it was already
// selected, which the caller treats as activation.
func (e *explorer) clickRow(row int) bool {
	idx := e.offset + row
	if row < 0 || idx >= len(e.nodes) {
		return false
	}
	again := idx == e.cursor
	e.cursor = idx
	return again
}

func (e *explorer) lines(width, rows int) []string {
	if e.err != nil {
		return []string{hintStyle.Render("cannot list: " + e.err.Error())}
	}
	if len(e.nodes) == 0 {
		return []string{hintStyle.Render("(empty)")}
	}
	end := min(len(e.nodes), e.offset+rows)
	out := make([]string, 0, end-e.offset)
	for i := e.offset; i < end; i++ {
		n := e.nodes[i]
		marker := "  "
		if n.isDir {
			marker = "▸ "
			if e.expanded[n.path] {
				marker = "▾ "
			}
		}
		name := n.name
		if n.isDir {
			name += string(os.PathSeparator)
		}
		line := truncateANSI(strings.Repeat("  ", n.depth)+marker+name, width)
		if i == e.cursor {
			line = selectedStyle.Render(line)
		} else if n.isDir {
			line = dirStyle.Render(line)
		}
		out = append(out, line)
	}
	return out
}
