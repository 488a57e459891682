package mode

import (
	"agentide/internal/focus"
	"agentide/internal/notify"
)

type Mode int

const (
	Normal Mode = iota
	Insert
	Agentic
)

func (m Mode) String() string {
	switch m {
	case Normal:
		return "NORMAL"
	case Insert:
		return "INSERT"
	case Agentic:
		return "AGENTIC"
	default:
		return "UNKNOWN"
	}
}

// Request is a user command that may change the mode.
type Request int

const (
	ToggleAgentic Request = iota
	EnterInsert
	Cancel
)

// Reader exposes the current mode to components that are gated by it.
type Reader interface {
	Current() Mode
}

// Controller owns the process-wide interaction mode. Transitions:
//
//	Normal  <-> Agentic  (ToggleAgentic, any focus)
//	Normal   -> Insert   (EnterInsert, editor focused)
//	Insert   -> Normal   (Cancel)
//
// Any other request is ignored.
type Controller struct {
	current  Mode
	notifier notify.Notifier
}

func NewController(notifier notify.Notifier) *Controller {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &Controller{current: Normal, notifier: notifier}
}

func (c *Controller) Current() Mode {
	return c.current
}

// Apply handles req given the currently focused panel and reports whether the
// mode changed.
func (c *Controller) Apply(req Request, focused focus.Target) bool {
	next, ok := c.next(req, focused)
	if !ok {
		return false
	}
	c.current = next
	c.notifier.Notify(notify.KindInfo, "mode: "+next.String())
	return true
}

func (c *Controller) next(req Request, focused focus.Target) (Mode, bool) {
	switch req {
	case ToggleAgentic:
		switch c.current {
		case Normal:
			return Agentic, true
		case Agentic:
			return Normal, true
		}
	case EnterInsert:
		if c.current == Normal && focused == focus.Editor {
			return Insert, true
		}
	case Cancel:
		if c.current == Insert {
			return Normal, true
		}
	}
	return c.current, false
}

func (c *Controller) ToggleAgentic(focused focus.Target) bool {
	return c.Apply(ToggleAgentic, focused)
}

func (c *Controller) EnterInsert(focused focus.Target) bool {
	return c.Apply(EnterInsert, focused)
}

func (c *Controller) Cancel(focused focus.Target) bool {
	return c.Apply(Cancel, focused)
}

// Reset forces Normal mode. It is used to recover from an inconsistent state,
// e.g. Insert mode while the editor lost focus.
func (c *Controller) Reset() {
	if c.current == Normal {
		return
	}
	c.current = Normal
	c.notifier.Notify(notify.KindInfo, "mode: "+Normal.String())
}

// Fixed is a Reader that always reports the same mode.
type Fixed Mode

func (f Fixed) Current() Mode {
	return Mode(f)
}
