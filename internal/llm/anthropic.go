package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultAnthropicBaseURL   = "https://api.anthropic.com"
	defaultAnthropicModel     = "claude-3-5-haiku-latest"
	defaultAnthropicMaxTokens = 4096

	// The Messages API accepts temperatures in [0, 1]; config allows up to 2
	// for OpenAI-compatible servers.
	maxAnthropicTemperature = 1.0
)

type anthropicBackend struct {
	cfg    Config
	client anthropic.Client
}

func newAnthropicBackend(cfg Config) *anthropicBackend {
	opts := []anthropicoption.RequestOption{
		anthropicoption.WithAPIKey(cfg.APIKey),
		anthropicoption.WithBaseURL(resolvedAnthropicBaseURL(cfg.BaseURL)),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, anthropicoption.WithHTTPClient(cfg.HTTPClient))
	}
	return &anthropicBackend{cfg: cfg, client: anthropic.NewClient(opts...)}
}

func resolvedAnthropicBaseURL(raw string) string {
	base := strings.TrimSpace(raw)
	if base == "" {
		base = defaultAnthropicBaseURL
	}
	base = strings.TrimRight(base, "/")
	base = strings.TrimSuffix(base, "/v1")
	return strings.TrimRight(base, "/") + "/"
}

func (b *anthropicBackend) send(ctx context.Context, msgs []Message) (string, error) {
	maxTokens := b.cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	system, messages := toAnthropicMessages(msgs)
	if len(messages) == 0 {
		return "", fmt.Errorf("anthropic: conversation has no user message")
	}
	params := anthropic.MessageNewParams{
		MaxTokens: int64(maxTokens),
		Model:     anthropic.Model(b.cfg.Model),
		Messages:  messages,
	}
	if len(system) > 0 {
		params.System = system
	}
	if b.cfg.Temperature > 0 {
		params.Temperature = anthropic.Float(min(b.cfg.Temperature, maxAnthropicTemperature))
	}

	resp, err := b.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}
	return anthropicText(resp), nil
}

// toAnthropicMessages lifts leading system messages into the system prompt.
// Later system messages (action reports) keep their position as user turns,
// merged with a neighbouring user turn so roles still alternate.
func toAnthropicMessages(msgs []Message) ([]anthropic.TextBlockParam, []anthropic.MessageParam) {
	var (
		systemTexts []string
		cursor      int
	)
	for cursor < len(msgs) && strings.EqualFold(strings.TrimSpace(msgs[cursor].Role), RoleSystem) {
		if strings.TrimSpace(msgs[cursor].Content) != "" {
			systemTexts = append(systemTexts, msgs[cursor].Content)
		}
		cursor++
	}
	var system []anthropic.TextBlockParam
	if len(systemTexts) > 0 {
		system = []anthropic.TextBlockParam{{Text: strings.Join(systemTexts, "\n\n")}}
	}

	type turn struct {
		assistant bool
		parts     []string
	}
	var turns []turn
	for ; cursor < len(msgs); cursor++ {
		m := msgs[cursor]
		assistant := strings.EqualFold(strings.TrimSpace(m.Role), RoleAssistant)
		text := m.Content
		if strings.EqualFold(strings.TrimSpace(m.Role), RoleSystem) {
			text = "[system]\n" + text
		}
		if n := len(turns); n > 0 && turns[n-1].assistant == assistant {
			turns[n-1].parts = append(turns[n-1].parts, text)
			continue
		}
		turns = append(turns, turn{assistant: assistant, parts: []string{text}})
	}

	out := make([]anthropic.MessageParam, 0, len(turns))
	for _, t := range turns {
		block := anthropic.NewTextBlock(strings.Join(t.parts, "\n\n"))
		if t.assistant {
			out = append(out, anthropic.NewAssistantMessage(block))
		} else {
			out = append(out, anthropic.NewUserMessage(block))
		}
	}
	return system, out
}

func anthropicText(msg *anthropic.Message) string {
	if msg == nil {
		return ""
	}
	var content strings.Builder
	for _, block := range msg.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			if content.Len() > 0 {
				content.WriteString("\n")
			}
			content.WriteString(text.Text)
		}
	}
	return content.String()
}
