package focus

import (
	"fmt"

	"agentide/internal/notify"
)

// Manager owns the focused panel and the regions of the latest completed frame.
// Hit-testing only ever reads the committed frame; nothing else computes panel
// geometry.
type Manager struct {
	current  Target
	frame    Frame
	hasFrame bool
	notifier notify.Notifier
}

func NewManager(initial Target, notifier notify.Notifier) *Manager {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &Manager{current: initial, notifier: notifier}
}

func (m *Manager) Current() Target {
	return m.current
}

// Frame returns the committed frame. Its regions must be treated as read-only.
func (m *Manager) Frame() Frame {
	return m.frame
}

// Commit replaces the committed frame wholesale and repairs focus if the
// focused panel is no longer visible.
func (m *Manager) Commit(f Frame) {
	m.frame = f.clone()
	m.hasFrame = true
	if m.Visible(m.current) {
		return
	}
	visible := m.VisibleTargets()
	if len(visible) == 0 {
		return
	}
	prev := m.current
	m.current = visible[0]
	m.notifier.Notify(notify.KindDebug, fmt.Sprintf("focus reset: %s is hidden, now %s", prev, m.current))
}

func (m *Manager) Visible(t Target) bool {
	if !m.hasFrame {
		return false
	}
	return m.frame.Visible(t)
}

// VisibleTargets lists the visible panels in cycle order.
func (m *Manager) VisibleTargets() []Target {
	out := make([]Target, 0, len(CycleOrder))
	for _, t := range CycleOrder {
		if m.Visible(t) {
			out = append(out, t)
		}
	}
	return out
}

// Cycle moves focus to the next visible panel, wrapping around.
func (m *Manager) Cycle() Target {
	visible := m.VisibleTargets()
	if len(visible) == 0 {
		return m.current
	}
	idx := -1
	for i, t := range visible {
		if t == m.current {
			idx = i
			break
		}
	}
	m.current = visible[(idx+1)%len(visible)]
	return m.current
}

// Focus moves focus to t if it is visible.
func (m *Manager) Focus(t Target) bool {
	if !m.Visible(t) {
		return false
	}
	m.current = t
	return true
}

// TargetAt hit-tests (x, y) against the committed frame without changing focus.
func (m *Manager) TargetAt(x, y int) (Target, bool) {
	if !m.hasFrame {
		return 0, false
	}
	for _, t := range HitOrder {
		r, ok := m.frame.Region(t)
		if !ok || r.Empty() {
			continue
		}
		if r.Contains(x, y) {
			return t, true
		}
	}
	return 0, false
}

// AssignByPoint focuses the panel under (x, y). A point outside every region
// leaves focus unchanged.
func (m *Manager) AssignByPoint(x, y int) (Target, bool) {
	t, ok := m.TargetAt(x, y)
	if !ok {
		return m.current, false
	}
	m.current = t
	m.notifier.Notify(notify.KindMouseClick, fmt.Sprintf("focus %s at (%d, %d)", t, x, y))
	return t, true
}
