package chat

import (
	"strings"

	"agentide/internal/llm"
)

// DefaultHistoryLimit is the number of messages a conversation keeps before
// the oldest turns after the system prompt are dropped.
const DefaultHistoryLimit = 50

// Conversation is the ordered message history sent with every request.
// Only the leading system prompt survives trimming. Everything after it,
// action reports included, is dropped oldest first, and a trimmed history
// always resumes at a user turn.
type Conversation struct {
	limit    int
	pinned   int
	messages []llm.Message
}

func NewConversation(limit int, systemPrompt string) *Conversation {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	c := &Conversation{limit: limit}
	if strings.TrimSpace(systemPrompt) != "" {
		c.messages = append(c.messages, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})
		c.pinned = 1
	}
	if c.limit <= c.pinned {
		c.limit = c.pinned + 1
	}
	return c
}

func (c *Conversation) Limit() int {
	return c.limit
}

func (c *Conversation) Len() int {
	return len(c.messages)
}

func (c *Conversation) Append(msg llm.Message) {
	c.messages = append(c.messages, msg)
	c.trim()
}

// Messages returns a copy safe to hand to a background request.
func (c *Conversation) Messages() []llm.Message {
	return append([]llm.Message(nil), c.messages...)
}

// Last returns the most recent message with the given role.
func (c *Conversation) Last(role string) (llm.Message, bool) {
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Role == role {
			return c.messages[i], true
		}
	}
	return llm.Message{}, false
}

// Clear drops everything except the leading system prompt.
func (c *Conversation) Clear() {
	c.messages = c.messages[:c.pinned:c.pinned]
}

func (c *Conversation) trim() {
	if len(c.messages) <= c.limit {
		return
	}
	body := c.messages[c.pinned:]
	body = body[len(c.messages)-c.limit:]
	for len(body) > 1 && body[0].Role != llm.RoleUser {
		body = body[1:]
	}
	c.messages = append(c.messages[:c.pinned:c.pinned], body...)
}
