package ide

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
)

// editor holds at most one open file in a textarea.
type editor struct {
	area  textarea.Model
	path  string
	saved string
}

func newEditor() editor {
	area := textarea.New()
	area.Prompt = ""
	area.ShowLineNumbers = true
	area.CharLimit = 0
	area.MaxHeight = 0
	area.Placeholder = "Open a file from the explorer."
	area.Blur()
	return editor{area: area}
}

func (e *editor) open(files Files, path string) error {
	content, err := files.Read(path)
	if err != nil {
		return err
	}
	e.path = path
	e.saved = content
	e.area.SetValue(content)
	for e.area.Line() > 0 {
		e.area.CursorUp()
	}
	e.area.CursorStart()
	return nil
}

// reload re-reads the open file when the buffer has no unsaved edits.
func (e *editor) reload(files Files) bool {
	if e.path == "" || e.dirty() {
		return false
	}
	content, err := files.Read(e.path)
	if err != nil || content == e.saved {
		return false
	}
	line := e.area.Line()
	e.saved = content
	e.area.SetValue(content)
	for e.area.Line() > line {
		e.area.CursorUp()
	}
	return true
}

func (e *editor) save(files Files) (string, error) {
	if e.path == "" {
		return "", fmt.Errorf("no file open")
	}
	content := e.area.Value()
	if err := files.Write(e.path, content); err != nil {
		return "", err
	}
	e.saved = content
	return fmt.Sprintf("saved %s (%s)", filepath.Base(e.path), humanize.Bytes(uint64(len(content)))), nil
}

// close drops the open file and its buffer.
func (e *editor) close() {
	e.path = ""
	e.saved = ""
	e.area.Reset()
}

func (e *editor) dirty() bool {
	return e.path != "" && e.area.Value() != e.saved
}

func (e *editor) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	e.area, cmd = e.area.Update(msg)
	return cmd
}

func (e *editor) scroll(delta int) {
	for ; delta > 0; delta-- {
		e.area.CursorDown()
	}
	for ; delta < 0; delta++ {
		e.area.CursorUp()
	}
}

func (e *editor) title(root string) string {
	if e.path == "" {
		return "Editor"
	}
	name := e.path
	if rel, err := filepath.Rel(root, e.path); err == nil {
		name = rel
	}
	if e.dirty() {
		name += " [+]"
	}
	return "Editor: " + name
}

func (e *editor) resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	if e.area.Width() != width {
		e.area.SetWidth(width)
	}
	if e.area.Height() != height {
		e.area.SetHeight(height)
	}
}

func (e editor) lines() []string {
	return strings.Split(e.area.View(), "\n")
}
