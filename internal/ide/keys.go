package ide

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit          key.Binding
	Help          key.Binding
	CycleFocus    key.Binding
	ToggleAgentic key.Binding
	Insert        key.Binding
	Cancel        key.Binding
	Save          key.Binding
	Send          key.Binding
	Up            key.Binding
	Down          key.Binding
	Open          key.Binding
	Collapse      key.Binding
	PageUp        key.Binding
	PageDown      key.Binding
	Refresh       key.Binding
	ClearNotices  key.Binding
	ClearChat     key.Binding
	CopyReply     key.Binding
	NewFile       key.Binding
	NewFolder     key.Binding
	CloseFile     key.Binding
	DeleteEntry   key.Binding
	FocusExplorer key.Binding
	FocusEditor   key.Binding
	FocusChat     key.Binding
	FocusNotices  key.Binding
	SidebarGrow   key.Binding
	SidebarShrink key.Binding
	ChatGrow      key.Binding
	ChatShrink    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:          key.NewBinding(key.WithKeys("ctrl+c", "ctrl+q"), key.WithHelp("ctrl+q", "quit")),
		Help:          key.NewBinding(key.WithKeys("f1", "?"), key.WithHelp("?/f1", "help")),
		CycleFocus:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next panel")),
		ToggleAgentic: key.NewBinding(key.WithKeys("ctrl+a"), key.WithHelp("ctrl+a", "toggle agentic")),
		Insert:        key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "insert (editor)")),
		Cancel:        key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "normal mode")),
		Save:          key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save file")),
		Send:          key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send / open")),
		Up:            key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:          key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Open:          key.NewBinding(key.WithKeys("enter", "right", "l"), key.WithHelp("enter/→", "open")),
		Collapse:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "collapse")),
		PageUp:        key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		PageDown:      key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),
		Refresh:       key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "refresh tree")),
		ClearNotices:  key.NewBinding(key.WithKeys("ctrl+k"), key.WithHelp("ctrl+k", "clear notifications")),
		ClearChat:     key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "clear chat")),
		CopyReply:     key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "copy last reply")),
		NewFile:       key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "new file")),
		NewFolder:     key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "new folder")),
		CloseFile:     key.NewBinding(key.WithKeys("ctrl+w"), key.WithHelp("ctrl+w", "close file")),
		DeleteEntry:   key.NewBinding(key.WithKeys("delete", "x"), key.WithHelp("del/x", "delete (explorer)")),
		FocusExplorer: key.NewBinding(key.WithKeys("alt+1", "ctrl+o"), key.WithHelp("alt+1", "explorer")),
		FocusEditor:   key.NewBinding(key.WithKeys("alt+2"), key.WithHelp("alt+2", "editor")),
		FocusChat:     key.NewBinding(key.WithKeys("alt+3"), key.WithHelp("alt+3", "chat")),
		FocusNotices:  key.NewBinding(key.WithKeys("alt+4"), key.WithHelp("alt+4", "notifications")),
		SidebarGrow:   key.NewBinding(key.WithKeys("alt+right"), key.WithHelp("alt+→", "wider sidebar")),
		SidebarShrink: key.NewBinding(key.WithKeys("alt+left"), key.WithHelp("alt+←", "narrower sidebar")),
		ChatGrow:      key.NewBinding(key.WithKeys("alt+up"), key.WithHelp("alt+↑", "taller chat")),
		ChatShrink:    key.NewBinding(key.WithKeys("alt+down"), key.WithHelp("alt+↓", "shorter chat")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.CycleFocus, k.ToggleAgentic, k.Insert, k.Send, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.CycleFocus, k.FocusExplorer, k.FocusEditor, k.FocusChat, k.FocusNotices},
		{k.ToggleAgentic, k.Insert, k.Cancel, k.Save, k.Send},
		{k.Up, k.Down, k.Open, k.Collapse, k.PageUp, k.PageDown},
		{k.NewFile, k.NewFolder, k.CloseFile, k.DeleteEntry},
		{k.Refresh, k.ClearNotices, k.ClearChat, k.CopyReply, k.Help, k.Quit},
		{k.SidebarGrow, k.SidebarShrink, k.ChatGrow, k.ChatShrink},
	}
}
