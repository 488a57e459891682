package ide

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"agentide/internal/notify"
)

type promptKind int

const (
	promptNone promptKind = iota
	promptNewFile
	promptNewFolder
	promptDelete
	promptDiscard
)

// prompt is the one line question shown in the status bar. Name prompts
// take text; the others wait for y or n.
type prompt struct {
	kind   promptKind
	target string
	input  textinput.Model
}

func newPrompt() prompt {
	inp := textinput.New()
	inp.CharLimit = 255
	return prompt{input: inp}
}

func (p *prompt) active() bool { return p.kind != promptNone }

func (p *prompt) confirming() bool {
	return p.kind == promptDelete || p.kind == promptDiscard
}

func (p *prompt) open(kind promptKind, label, target string) {
	p.kind = kind
	p.target = target
	p.input.Reset()
	p.input.Prompt = label
	p.input.Focus()
}

func (p *prompt) close() {
	p.kind = promptNone
	p.target = ""
	p.input.Reset()
	p.input.Blur()
}

func (m *Model) handlePromptKey(msg tea.KeyMsg) tea.Cmd {
	kind, target := m.prompt.kind, m.prompt.target
	if msg.Type == tea.KeyEsc {
		m.prompt.close()
		return nil
	}
	if m.prompt.confirming() {
		switch strings.ToLower(msg.String()) {
		case "y":
			m.prompt.close()
			if kind == promptDelete {
				m.deleteEntry(target)
			} else {
				m.closeEditor()
			}
		case "n":
			m.prompt.close()
		}
		return nil
	}
	if msg.Type == tea.KeyEnter {
		name := m.prompt.input.Value()
		m.prompt.close()
		m.createEntry(kind, target, name)
		return nil
	}
	var cmd tea.Cmd
	m.prompt.input, cmd = m.prompt.input.Update(msg)
	return cmd
}

// createBase is where new entries go: the selected directory, or the parent
// of the selected file.
func (m *Model) createBase() string {
	n, ok := m.explorer.selected()
	if !ok {
		return m.root
	}
	if n.isDir {
		return n.path
	}
	return filepath.Dir(n.path)
}

func (m *Model) beginCreate(kind promptKind) {
	if m.files == nil {
		return
	}
	base := m.createBase()
	label := "new file in "
	if kind == promptNewFolder {
		label = "new folder in "
	}
	m.prompt.open(kind, label+m.display(base)+string(os.PathSeparator)+" ", base)
}

func (m *Model) createEntry(kind promptKind, base, name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		m.sink.Notify(notify.KindInfo, "a name is required")
		return
	}
	path := filepath.Join(base, name)
	if !within(m.root, path) || path == m.root {
		m.sink.Notify(notify.KindInfo, fmt.Sprintf("%s is outside the project", name))
		return
	}
	if _, err := m.files.Stat(path); err == nil {
		m.sink.Notify(notify.KindInfo, fmt.Sprintf("%s already exists", m.display(path)))
		return
	}
	var (
		err  error
		verb = "created"
	)
	if kind == promptNewFolder {
		err = m.files.MkdirAll(path)
		verb = "created folder"
	} else {
		err = m.files.Write(path, "")
	}
	if err != nil {
		m.sink.Notify(notify.KindInfo, "create failed: "+err.Error())
		return
	}
	m.sink.Notify(notify.KindFileOperation, verb+" "+m.display(path))
	m.logger.Debug("created entry", zap.String("path", path))
	m.explorer.reveal(path)
	if kind == promptNewFile {
		m.openFile(path)
	}
}

func (m *Model) beginDelete() {
	n, ok := m.explorer.selected()
	if !ok || m.files == nil {
		return
	}
	m.prompt.open(promptDelete, fmt.Sprintf("delete %s? (y/n) ", m.display(n.path)), n.path)
}

// deleteEntry removes a file or an empty directory and closes the editor
// when it shows something that went away.
func (m *Model) deleteEntry(path string) {
	if err := m.files.Delete(path); err != nil {
		m.sink.Notify(notify.KindInfo, fmt.Sprintf("delete failed: %v", err))
		return
	}
	if m.editor.path != "" && within(path, m.editor.path) {
		m.editor.close()
	}
	delete(m.explorer.expanded, path)
	m.sink.Notify(notify.KindFileOperation, "deleted "+m.display(path))
	m.explorer.refresh()
}

func (m *Model) closeFile() {
	if m.editor.path == "" {
		m.sink.Notify(notify.KindInfo, "no file open")
		return
	}
	if m.editor.dirty() {
		m.prompt.open(promptDiscard, fmt.Sprintf("discard changes to %s? (y/n) ", filepath.Base(m.editor.path)), m.editor.path)
		return
	}
	m.closeEditor()
}

func (m *Model) closeEditor() {
	name := filepath.Base(m.editor.path)
	m.editor.close()
	m.sink.Notify(notify.KindInfo, "closed "+name)
}

func (m Model) display(path string) string {
	if rel, err := filepath.Rel(m.root, path); err == nil {
		return rel
	}
	return path
}

// within reports whether path is root or lies below it.
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator))
}
