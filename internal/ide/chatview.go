package ide

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"

	"agentide/internal/llm"
)

// chatView renders the conversation above a one line input.
type chatView struct {
	input    textinput.Model
	viewport viewport.Model
	glam     *glamour.TermRenderer
	wrap     int
	rendered renderKey
	body     string
	follow   bool
}

func newChatView() chatView {
	inp := textinput.New()
	inp.Placeholder = "Ask the assistant…"
	inp.Prompt = "› "
	inp.CharLimit = 0

	vp := viewport.New(0, 0)
	vp.SetContent("")
	return chatView{input: inp, viewport: vp, follow: true}
}

// resize fits the transcript into width x height, leaving the last row for
// the input.
func (c *chatView) resize(width, height int) {
	c.input.Width = max(1, width-3)
	c.viewport.Width = max(0, width)
	c.viewport.Height = max(0, height-1)
	if width != c.wrap {
		c.wrap = width
		c.glam = nil
		c.rendered = renderKey{}
	}
}

func (c *chatView) renderer() *glamour.TermRenderer {
	if c.glam != nil {
		return c.glam
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(max(10, c.wrap-2)),
	)
	if err != nil {
		return nil
	}
	c.glam = r
	return r
}

// setMessages re-renders the transcript when it changed. The leading system
// prompt is not shown.
func (c *chatView) setMessages(msgs []llm.Message, pending bool, spinner string) {
	key := renderKey{n: len(msgs), valid: true}
	if len(msgs) > 0 {
		key.last = msgs[len(msgs)-1].Time.UnixNano()
	}
	if key != c.rendered {
		c.rendered = key
		var b strings.Builder
		for i, m := range msgs {
			if i == 0 && m.Role == llm.RoleSystem {
				continue
			}
			b.WriteString(c.renderMessage(m))
			b.WriteString("\n")
		}
		c.body = strings.TrimRight(b.String(), "\n")
	}

	content := c.body
	if pending {
		content = strings.TrimLeft(content+"\n"+hintStyle.Render(spinner+" waiting for the assistant…"), "\n")
	}
	if content == "" {
		content = hintStyle.Render("No messages yet. Type below and press enter. ctrl+a toggles agentic mode.")
	}
	c.viewport.SetContent(content)
	if c.follow {
		c.viewport.GotoBottom()
	}
}

func (c *chatView) renderMessage(m llm.Message) string {
	switch m.Role {
	case llm.RoleUser:
		return userStyle.Render("you") + "\n" + strings.Join(wrapText(m.Content, max(10, c.wrap-2)), "\n")
	case llm.RoleAssistant:
		body := m.Content
		if r := c.renderer(); r != nil {
			if out, err := r.Render(m.Content); err == nil {
				body = strings.Trim(out, "\n")
			}
		}
		return agentStyle.Render("assistant") + "\n" + body
	default:
		return systemStyle.Render("system") + "\n" + strings.Join(wrapText(m.Content, max(10, c.wrap-2)), "\n")
	}
}

func (c *chatView) scroll(delta int) {
	if delta < 0 {
		c.viewport.ScrollUp(-delta)
	} else {
		c.viewport.ScrollDown(delta)
	}
	c.follow = c.viewport.AtBottom()
}

func (c chatView) lines() []string {
	out := strings.Split(c.viewport.View(), "\n")
	return append(out, c.input.View())
}

// renderKey identifies the transcript state last rendered.
type renderKey struct {
	n     int
	last  int64
	valid bool
}
