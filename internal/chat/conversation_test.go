package chat

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentide/internal/llm"
)

func contents(msgs []llm.Message) []string {
	var out []string
	for _, m := range msgs {
		out = append(out, m.Content)
	}
	return out
}

func TestConversationTrimKeepsSystemPrompt(t *testing.T) {
	c := NewConversation(5, "rules")
	for i := 0; i < 4; i++ {
		c.Append(llm.Message{Role: llm.RoleUser, Content: fmt.Sprintf("u%d", i)})
	}
	c.Append(llm.Message{Role: llm.RoleSystem, Content: "report"})
	c.Append(llm.Message{Role: llm.RoleAssistant, Content: "a"})

	assert.Equal(t, []string{"rules", "u2", "u3", "report", "a"}, contents(c.Messages()))
}

func TestConversationReportsDoNotCrowdOutTurns(t *testing.T) {
	c := NewConversation(6, "rules")
	for i := 0; i < 8; i++ {
		user := fmt.Sprintf("u%d", i)
		c.Append(llm.Message{Role: llm.RoleUser, Content: user})

		msgs := c.Messages()
		assert.LessOrEqual(t, len(msgs), 6, "round %d", i)
		assert.Equal(t, "rules", msgs[0].Content)
		assert.Equal(t, llm.RoleUser, msgs[1].Role, "round %d: history must resume at a user turn", i)
		assert.Equal(t, user, msgs[len(msgs)-1].Content)

		c.Append(llm.Message{Role: llm.RoleAssistant, Content: fmt.Sprintf("a%d", i)})
		c.Append(llm.Message{Role: llm.RoleSystem, Content: fmt.Sprintf("report %d", i)})
		assert.LessOrEqual(t, c.Len(), 6, "round %d", i)
	}
	last, ok := c.Last(llm.RoleUser)
	require.True(t, ok)
	assert.Equal(t, "u7", last.Content)
}

func TestConversationLimitBelowPromptStillKeepsNewest(t *testing.T) {
	c := NewConversation(1, "rules")
	c.Append(llm.Message{Role: llm.RoleUser, Content: "q"})
	c.Append(llm.Message{Role: llm.RoleUser, Content: "r"})
	assert.Equal(t, []string{"rules", "r"}, contents(c.Messages()))
}

func TestConversationDefaultLimit(t *testing.T) {
	c := NewConversation(0, "")
	assert.Equal(t, DefaultHistoryLimit, c.Limit())
	for i := 0; i < DefaultHistoryLimit+10; i++ {
		c.Append(llm.Message{Role: llm.RoleUser, Content: "x"})
	}
	assert.Equal(t, DefaultHistoryLimit, c.Len())
}

func TestConversationMessagesIsACopy(t *testing.T) {
	c := NewConversation(10, "rules")
	msgs := c.Messages()
	msgs[0].Content = "changed"
	assert.Equal(t, "rules", c.Messages()[0].Content)
}

func TestConversationLastAndClear(t *testing.T) {
	c := NewConversation(10, "rules")
	_, ok := c.Last(llm.RoleAssistant)
	assert.False(t, ok)

	c.Append(llm.Message{Role: llm.RoleUser, Content: "q"})
	c.Append(llm.Message{Role: llm.RoleAssistant, Content: "one"})
	c.Append(llm.Message{Role: llm.RoleAssistant, Content: "two"})
	last, ok := c.Last(llm.RoleAssistant)
	require.True(t, ok)
	assert.Equal(t, "two", last.Content)

	c.Clear()
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, llm.RoleSystem, c.Messages()[0].Role)
}

func TestSystemPromptListsActions(t *testing.T) {
	p := SystemPrompt("/work/project")
	assert.Contains(t, p, "/work/project")
	for _, a := range promptActions {
		assert.Contains(t, p, a)
	}
	assert.True(t, strings.Contains(p, "```action"))
}
