package ide

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"agentide/internal/chat"
	"agentide/internal/config"
	"agentide/internal/focus"
	"agentide/internal/llm"
	"agentide/internal/mode"
	"agentide/internal/notify"
	"agentide/internal/watch"
)

const (
	wheelStep = 3
	hoverMsg  = "hover %s"
)

// Deps are the collaborators the interactive loop drives. Sink, Focus and
// Modes are required; the rest may be nil.
type Deps struct {
	Context    context.Context
	Root       string
	Files      Files
	Sink       *notify.Sink
	Focus      *focus.Manager
	Modes      *mode.Controller
	Chat       *chat.Orchestrator
	Changes    <-chan watch.Change
	Signal     *TreeSignal
	Logger     *zap.Logger
	Layout     config.LayoutConfig
	Clipboard  func(string) error
	ModelLabel string
}

type tickMsg struct{}

type chatDoneMsg struct {
	done chat.Completion
}

type treeChangedMsg struct {
	change watch.Change
}

// Model is the single owned application state. Every input is applied in
// Update, which also commits the frame View draws; hit-testing always reads
// that committed frame.
type Model struct {
	ctx        context.Context
	root       string
	files      Files
	sink       *notify.Sink
	focus      *focus.Manager
	modes      *mode.Controller
	chat       *chat.Orchestrator
	changes    <-chan watch.Change
	signal     *TreeSignal
	logger     *zap.Logger
	clipboard  func(string) error
	modelLabel string

	keys     keyMap
	help     help.Model
	showHelp bool

	width        int
	height       int
	sidebarWidth int
	chatHeight   int
	seq          uint64

	explorer explorer
	editor   editor
	chatView chatView
	prompt   prompt

	hovered      focus.Target
	hovering     bool
	spinnerFrame int
}

func New(deps Deps) Model {
	ctx := deps.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	layout := deps.Layout
	if layout.SidebarWidth == 0 {
		layout.SidebarWidth = config.DefaultSidebarWidth
	}
	if layout.ChatHeight == 0 {
		layout.ChatHeight = config.DefaultChatHeight
	}
	m := Model{
		ctx:          ctx,
		root:         deps.Root,
		files:        deps.Files,
		sink:         deps.Sink,
		focus:        deps.Focus,
		modes:        deps.Modes,
		chat:         deps.Chat,
		changes:      deps.Changes,
		signal:       deps.Signal,
		logger:       logger,
		clipboard:    deps.Clipboard,
		modelLabel:   deps.ModelLabel,
		keys:         defaultKeyMap(),
		help:         help.New(),
		sidebarWidth: clamp(config.MinSidebarWidth, layout.SidebarWidth, config.MaxSidebarWidth),
		chatHeight:   clamp(config.MinChatHeight, layout.ChatHeight, config.MaxChatHeight),
		explorer:     newExplorer(deps.Root, deps.Files),
		editor:       newEditor(),
		chatView:     newChatView(),
		prompt:       newPrompt(),
	}
	if m.chat == nil {
		m.sink.Notify(notify.KindInfo, "chat unavailable: no API key configured")
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), waitChangesCmd(m.changes))
}

func tickCmd() tea.Cmd {
	return tea.Tick(300*time.Millisecond, func(time.Time) tea.Msg { return tickMsg{} })
}

func waitChatCmd(ch <-chan chat.Completion) tea.Cmd {
	return func() tea.Msg {
		return chatDoneMsg{done: <-ch}
	}
}

func waitChangesCmd(ch <-chan watch.Change) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		change, ok := <-ch
		if !ok {
			return nil
		}
		return treeChangedMsg{change: change}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tickMsg:
		m.spinnerFrame = (m.spinnerFrame + 1) % len(spinnerFrames)
		cmd = tickCmd()
	case chatDoneMsg:
		m.completeChat(msg.done)
	case treeChangedMsg:
		m.sink.Notify(notify.KindDebug, fmt.Sprintf("files changed: %d path(s)", len(msg.change.Paths)))
		m.refreshTree()
		cmd = waitChangesCmd(m.changes)
	case tea.KeyMsg:
		cmd = m.handleKey(msg)
	case tea.MouseMsg:
		m.handleMouse(msg)
	}
	if m.signal.Take() {
		m.refreshTree()
	}
	m.commitLayout()
	m.syncFocus()
	m.syncChat()
	return m, cmd
}

// commitLayout computes the frame for the current state and hands it to the
// focus manager when the geometry changed. A commit can add a notification
// (focus repair), which can change the geometry again, so it settles in a few
// rounds.
func (m *Model) commitLayout() {
	for i := 0; i < 3; i++ {
		f := computeLayout(layoutInput{
			width:         m.width,
			height:        m.height,
			sidebarWidth:  m.sidebarWidth,
			chatHeight:    m.chatHeight,
			notifications: m.sink.Len(),
		})
		if sameRegions(f, m.focus.Frame()) {
			break
		}
		m.seq++
		f.Seq = m.seq
		m.focus.Commit(f)
	}
	frame := m.focus.Frame()
	if r, ok := frame.Region(focus.Editor); ok {
		m.editor.resize(r.Width-2, r.Height-panelChrome)
	}
	if r, ok := frame.Region(focus.Chat); ok {
		m.chatView.resize(r.Width-2, r.Height-panelChrome)
	}
	if r, ok := frame.Region(focus.FileExplorer); ok {
		m.explorer.follow(r.Height - panelChrome)
	}
}

// syncFocus keeps widget focus consistent with the panel focus. Insert mode
// only exists while the editor is focused.
func (m *Model) syncFocus() {
	focused := m.focus.Current()
	if m.modes.Current() == mode.Insert && focused != focus.Editor {
		m.modes.Reset()
	}
	if m.modes.Current() == mode.Insert {
		m.editor.area.Focus()
	} else {
		m.editor.area.Blur()
	}
	if focused == focus.Chat && !m.prompt.active() {
		m.chatView.input.Focus()
	} else {
		m.chatView.input.Blur()
	}
}

func (m *Model) syncChat() {
	if m.chat == nil {
		m.chatView.setMessages(nil, false, "")
		return
	}
	m.chatView.setMessages(m.chat.Messages(), m.chat.Pending(), spinnerFrames[m.spinnerFrame%len(spinnerFrames)])
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	focused := m.focus.Current()
	if key.Matches(msg, m.keys.Quit) {
		return tea.Quit
	}
	if m.prompt.active() {
		return m.handlePromptKey(msg)
	}
	if key.Matches(msg, m.keys.Cancel) {
		if m.showHelp {
			m.showHelp = false
			return nil
		}
		m.modes.Cancel(focused)
		return nil
	}
	if key.Matches(msg, m.keys.Save) {
		m.saveFile()
		return nil
	}
	if m.modes.Current() == mode.Insert && focused == focus.Editor {
		if msg.String() == "f1" {
			m.showHelp = !m.showHelp
			return nil
		}
		return m.editor.update(msg)
	}
	if m.handleGlobal(msg, focused) {
		return nil
	}
	switch focused {
	case focus.Chat:
		return m.handleChatKey(msg)
	case focus.FileExplorer:
		m.handleExplorerKey(msg)
	case focus.Editor:
		m.handleEditorKey(msg)
	}
	return nil
}

func (m *Model) handleGlobal(msg tea.KeyMsg, focused focus.Target) bool {
	typing := focused == focus.Chat
	switch {
	case msg.String() == "f1", !typing && key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
	case key.Matches(msg, m.keys.CycleFocus):
		m.focus.Cycle()
	case key.Matches(msg, m.keys.ToggleAgentic):
		m.modes.ToggleAgentic(focused)
	case !typing && key.Matches(msg, m.keys.Insert):
		m.modes.EnterInsert(focused)
	case key.Matches(msg, m.keys.FocusExplorer):
		m.focusPanel(focus.FileExplorer)
	case key.Matches(msg, m.keys.FocusEditor):
		m.focusPanel(focus.Editor)
	case key.Matches(msg, m.keys.FocusChat):
		m.focusPanel(focus.Chat)
	case key.Matches(msg, m.keys.FocusNotices):
		m.focusPanel(focus.Notifications)
	case key.Matches(msg, m.keys.Refresh):
		m.refreshTree()
		m.sink.Notify(notify.KindInfo, "file tree refreshed")
	case key.Matches(msg, m.keys.ClearNotices):
		if focused == focus.Notifications {
			m.focus.Cycle()
		}
		m.sink.Clear()
	case key.Matches(msg, m.keys.ClearChat):
		if m.chat != nil {
			_ = m.chat.Clear()
		}
	case key.Matches(msg, m.keys.CopyReply):
		m.copyReply()
	case !typing && key.Matches(msg, m.keys.NewFile):
		m.beginCreate(promptNewFile)
	case !typing && key.Matches(msg, m.keys.NewFolder):
		m.beginCreate(promptNewFolder)
	case !typing && key.Matches(msg, m.keys.CloseFile):
		m.closeFile()
	case key.Matches(msg, m.keys.SidebarGrow):
		m.sidebarWidth = clamp(config.MinSidebarWidth, m.sidebarWidth+config.ResizeStep, config.MaxSidebarWidth)
	case key.Matches(msg, m.keys.SidebarShrink):
		m.sidebarWidth = clamp(config.MinSidebarWidth, m.sidebarWidth-config.ResizeStep, config.MaxSidebarWidth)
	case key.Matches(msg, m.keys.ChatGrow):
		m.chatHeight = clamp(config.MinChatHeight, m.chatHeight+config.ResizeStep, config.MaxChatHeight)
	case key.Matches(msg, m.keys.ChatShrink):
		m.chatHeight = clamp(config.MinChatHeight, m.chatHeight-config.ResizeStep, config.MaxChatHeight)
	default:
		return false
	}
	return true
}

func (m *Model) focusPanel(t focus.Target) {
	if !m.focus.Focus(t) {
		m.sink.Notify(notify.KindDebug, t.String()+" is not visible")
	}
}

func (m *Model) handleChatKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Send):
		return m.sendChat()
	case key.Matches(msg, m.keys.PageUp):
		m.chatView.scroll(-max(1, m.chatView.viewport.Height))
		return nil
	case key.Matches(msg, m.keys.PageDown):
		m.chatView.scroll(max(1, m.chatView.viewport.Height))
		return nil
	case msg.Type == tea.KeyUp:
		m.chatView.scroll(-1)
		return nil
	case msg.Type == tea.KeyDown:
		m.chatView.scroll(1)
		return nil
	}
	var cmd tea.Cmd
	m.chatView.input, cmd = m.chatView.input.Update(msg)
	return cmd
}

func (m *Model) sendChat() tea.Cmd {
	if m.chat == nil {
		m.sink.Notify(notify.KindInfo, "chat unavailable: no API key configured")
		return nil
	}
	if err := m.chat.Send(m.chatView.input.Value()); err != nil {
		if !errors.Is(err, chat.ErrEmpty) && !errors.Is(err, chat.ErrBusy) {
			m.logger.Warn("chat send failed", zap.Error(err))
		}
		return nil
	}
	m.chatView.input.Reset()
	m.chatView.follow = true
	return waitChatCmd(m.chat.Results())
}

func (m *Model) completeChat(done chat.Completion) {
	if m.chat == nil {
		return
	}
	out := m.chat.Complete(m.ctx, done)
	if out.Report != nil {
		m.logger.Debug("agent batch finished", zap.String("summary", out.Report.Summary()))
	}
}

func (m *Model) handleExplorerKey(msg tea.KeyMsg) {
	rows := m.panelRows(focus.FileExplorer)
	switch {
	case key.Matches(msg, m.keys.Up):
		m.explorer.move(-1, rows)
	case key.Matches(msg, m.keys.Down):
		m.explorer.move(1, rows)
	case key.Matches(msg, m.keys.PageUp):
		m.explorer.move(-max(1, rows), rows)
	case key.Matches(msg, m.keys.PageDown):
		m.explorer.move(max(1, rows), rows)
	case key.Matches(msg, m.keys.Open):
		m.activateExplorer()
	case key.Matches(msg, m.keys.Collapse):
		m.explorer.collapse(rows)
	case key.Matches(msg, m.keys.DeleteEntry):
		m.beginDelete()
	}
}

func (m *Model) activateExplorer() {
	path, ok := m.explorer.activate()
	if !ok {
		return
	}
	m.openFile(path)
}

func (m *Model) openFile(path string) {
	if m.files == nil {
		return
	}
	if m.editor.dirty() && path != m.editor.path {
		m.sink.Notify(notify.KindInfo, fmt.Sprintf("unsaved changes in %s; ctrl+s to save", filepath.Base(m.editor.path)))
		return
	}
	if err := m.editor.open(m.files, path); err != nil {
		m.sink.Notify(notify.KindInfo, "open failed: "+llm.Describe(err))
		return
	}
	m.focus.Focus(focus.Editor)
	m.logger.Debug("opened file", zap.String("path", path))
}

func (m *Model) handleEditorKey(msg tea.KeyMsg) {
	rows := m.panelRows(focus.Editor)
	switch {
	case key.Matches(msg, m.keys.Up):
		m.editor.scroll(-1)
	case key.Matches(msg, m.keys.Down):
		m.editor.scroll(1)
	case key.Matches(msg, m.keys.PageUp):
		m.editor.scroll(-max(1, rows))
	case key.Matches(msg, m.keys.PageDown):
		m.editor.scroll(max(1, rows))
	}
}

func (m *Model) saveFile() {
	if m.files == nil || m.editor.path == "" {
		m.sink.Notify(notify.KindInfo, "nothing to save")
		return
	}
	detail, err := m.editor.save(m.files)
	if err != nil {
		m.sink.Notify(notify.KindInfo, "save failed: "+err.Error())
		return
	}
	m.sink.Notify(notify.KindFileOperation, detail)
	m.explorer.refresh()
}

func (m *Model) copyReply() {
	if m.chat == nil {
		return
	}
	reply, ok := m.chat.LastReply()
	if !ok {
		m.sink.Notify(notify.KindInfo, "no reply to copy")
		return
	}
	if m.clipboard == nil {
		m.sink.Notify(notify.KindInfo, "clipboard unavailable")
		return
	}
	if err := m.clipboard(reply); err != nil {
		m.sink.Notify(notify.KindInfo, "copy failed: "+err.Error())
		return
	}
	m.sink.Notify(notify.KindInfo, fmt.Sprintf("copied last reply (%d chars)", len([]rune(reply))))
}

func (m *Model) refreshTree() {
	m.explorer.refresh()
	if m.files != nil && m.editor.reload(m.files) {
		m.sink.Notify(notify.KindInfo, "reloaded "+filepath.Base(m.editor.path))
	}
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	switch {
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		m.click(msg.X, msg.Y)
	case msg.Button == tea.MouseButtonWheelUp:
		m.wheel(msg.X, msg.Y, -wheelStep)
	case msg.Button == tea.MouseButtonWheelDown:
		m.wheel(msg.X, msg.Y, wheelStep)
	case msg.Action == tea.MouseActionMotion:
		m.hover(msg.X, msg.Y)
	}
}

func (m *Model) click(x, y int) {
	t, ok := m.focus.AssignByPoint(x, y)
	if !ok {
		return
	}
	r, _ := m.focus.Frame().Region(t)
	if t == focus.FileExplorer {
		if m.explorer.clickRow(y - r.Y - 2) {
			m.activateExplorer()
		}
	}
}

func (m *Model) wheel(x, y, delta int) {
	t, ok := m.focus.TargetAt(x, y)
	if !ok {
		return
	}
	switch t {
	case focus.FileExplorer:
		m.explorer.scroll(delta, m.panelRows(t))
	case focus.Editor:
		m.editor.scroll(delta)
	case focus.Chat:
		m.chatView.scroll(delta)
	}
}

// hover reports pointer movement only when it crosses into another panel.
func (m *Model) hover(x, y int) {
	t, ok := m.focus.TargetAt(x, y)
	if !ok {
		m.hovering = false
		return
	}
	if m.hovering && t == m.hovered {
		return
	}
	m.hovered, m.hovering = t, true
	m.sink.Notify(notify.KindMouseHover, fmt.Sprintf(hoverMsg, t))
}

func (m Model) panelRows(t focus.Target) int {
	r, ok := m.focus.Frame().Region(t)
	if !ok {
		return 0
	}
	return max(0, r.Height-panelChrome)
}

func (m Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	frame := m.focus.Frame()

	rows := map[int][]focus.Region{}
	var ys []int
	for _, r := range frame.Regions {
		if r.Empty() {
			continue
		}
		if _, ok := rows[r.Y]; !ok {
			ys = append(ys, r.Y)
		}
		rows[r.Y] = append(rows[r.Y], r)
	}
	sort.Ints(ys)

	parts := []string{m.renderHeader()}
	for _, y := range ys {
		regions := rows[y]
		sort.Slice(regions, func(i, j int) bool { return regions[i].X < regions[j].X })
		boxes := make([]string, 0, len(regions))
		for _, r := range regions {
			boxes = append(boxes, m.renderPanel(r))
		}
		parts = append(parts, lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
	}
	parts = append(parts, m.renderStatus())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderPanel(r focus.Region) string {
	focused := m.focus.Current() == r.Target
	innerW := r.Width - 2
	rows := r.Height - panelChrome
	switch r.Target {
	case focus.FileExplorer:
		return box("Explorer", m.explorer.lines(innerW, rows), r.Width, r.Height, focused)
	case focus.Editor:
		if m.showHelp {
			h := m.help
			h.Width = innerW
			return box("Help", strings.Split(h.FullHelpView(m.keys.FullHelp()), "\n"), r.Width, r.Height, focused)
		}
		return box(m.editor.title(m.root), m.editor.lines(), r.Width, r.Height, focused)
	case focus.Notifications:
		return box("Notifications", m.notificationLines(rows), r.Width, r.Height, focused)
	case focus.Chat:
		return box(m.chatTitle(), m.chatView.lines(), r.Width, r.Height, focused)
	}
	return ""
}

func (m Model) notificationLines(rows int) []string {
	entries := m.sink.Latest(rows)
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		line := hintStyle.Render(e.Timestamp.Format("15:04:05")) + " " +
			kindStyle(e.Kind).Render(string(e.Kind)) + " " + safeOneLine(e.Message, 0)
		out = append(out, line)
	}
	return out
}

func (m Model) chatTitle() string {
	title := "AI Chat"
	if m.chat != nil && m.chat.Pending() {
		title += fmt.Sprintf(" %s %ds", spinnerFrames[m.spinnerFrame%len(spinnerFrames)], int(m.chat.Since().Seconds()))
	}
	return title
}

func (m Model) renderHeader() string {
	line := titleStyle.Render("agentide") + " " + hintStyle.Render(m.root)
	if m.modelLabel != "" {
		line += hintStyle.Render(" · " + m.modelLabel)
	}
	return lipgloss.NewStyle().Width(m.width).MaxWidth(m.width).Render(truncateANSI(line, m.width))
}

func (m Model) renderStatus() string {
	if m.prompt.active() {
		line := m.prompt.input.View()
		return lipgloss.NewStyle().Width(m.width).MaxWidth(m.width).Render(truncateANSI(line, m.width))
	}
	left := modeStyle(m.modes.Current()).Render(m.modes.Current().String()) + " " + m.focus.Current().String()
	h := m.help
	h.Width = max(0, m.width-lipgloss.Width(left)-2)
	right := h.ShortHelpView(m.keys.ShortHelp())
	gap := max(1, m.width-lipgloss.Width(left)-lipgloss.Width(right))
	line := left + strings.Repeat(" ", gap) + right
	return lipgloss.NewStyle().Width(m.width).MaxWidth(m.width).Render(truncateANSI(line, m.width))
}
