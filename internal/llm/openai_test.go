package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestResolvedBaseURLs(t *testing.T) {
	cases := map[string]string{
		"":                                 "https://api.openai.com/v1/",
		"https://api.groq.com/openai/v1":   "https://api.groq.com/openai/v1/",
		"https://api.groq.com/openai/v1/":  "https://api.groq.com/openai/v1/",
		"http://localhost:11434":           "http://localhost:11434/v1/",
	}
	for in, want := range cases {
		if got := resolvedOpenAIBaseURL(in); got != want {
			t.Fatalf("resolvedOpenAIBaseURL(%q) = %q, want %q", in, got, want)
		}
	}
	if got := resolvedAnthropicBaseURL("https://api.anthropic.com/v1/"); got != "https://api.anthropic.com/" {
		t.Fatalf("unexpected anthropic base %q", got)
	}
}

func TestParseModelType(t *testing.T) {
	for in, want := range map[string]ModelType{"": ModelTypeOpenAI, "OpenAI": ModelTypeOpenAI, "anthropics": ModelTypeAnthropic, "claude": ModelTypeAnthropic} {
		got, err := ParseModelType(in)
		if err != nil || got != want {
			t.Fatalf("ParseModelType(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseModelType("llama"); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(Config{APIKey: "  "}); !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestOpenAISendsConversation(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", auth)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c1","object":"chat.completion","created":1,"model":"m","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"hi there"}}]}`)
	}))
	defer srv.Close()

	c, err := NewClient(Config{Type: ModelTypeOpenAI, APIKey: "test-key", BaseURL: srv.URL, Model: "test-model"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	reply, err := c.Send(context.Background(), []Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "hello"},
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if reply != "hi there" {
		t.Fatalf("unexpected reply %q", reply)
	}
	if got.Model != "test-model" || len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "hello" {
		t.Fatalf("unexpected request: %+v", got)
	}
}

func TestOpenAIEmptyReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c1","object":"chat.completion","created":1,"model":"m","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"  "}}]}`)
	}))
	defer srv.Close()

	c, err := NewClient(Config{APIKey: "k", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := c.Send(context.Background(), []Message{{Role: RoleUser, Content: "x"}}); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestToAnthropicMessagesMergesTurns(t *testing.T) {
	system, msgs := toAnthropicMessages([]Message{
		{Role: RoleSystem, Content: "rules"},
		{Role: RoleUser, Content: "make a file"},
		{Role: RoleAssistant, Content: "done"},
		{Role: RoleSystem, Content: "report"},
		{Role: RoleUser, Content: "thanks"},
	})
	if len(system) != 1 || system[0].Text != "rules" {
		t.Fatalf("unexpected system prompt: %+v", system)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected user/assistant/user turns, got %d", len(msgs))
	}
}
