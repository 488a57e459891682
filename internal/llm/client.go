package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var (
	ErrEmptyResponse = errors.New("empty response from model")
	ErrNoAPIKey      = errors.New("api key is required")
)

type Message struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	Time    time.Time `json:"time,omitempty"`
}

type Config struct {
	Type        ModelType
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	HTTPClient  *http.Client
}

// Client sends a whole conversation to one backend and returns the reply
// text. It holds no conversation state.
type Client struct {
	cfg     Config
	backend backend
}

type backend interface {
	send(ctx context.Context, msgs []Message) (string, error)
}

func NewClient(cfg Config) (*Client, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.Type == "" {
		cfg.Type = ModelTypeOpenAI
	}
	c := &Client{cfg: cfg}
	switch cfg.Type {
	case ModelTypeOpenAI:
		if cfg.Model == "" {
			c.cfg.Model = defaultOpenAIModel
		}
		c.backend = newOpenAIBackend(c.cfg)
	case ModelTypeAnthropic:
		if cfg.Model == "" {
			c.cfg.Model = defaultAnthropicModel
		}
		c.backend = newAnthropicBackend(c.cfg)
	default:
		return nil, errors.New("unsupported model type " + string(cfg.Type))
	}
	return c, nil
}

func (c *Client) Model() string {
	return c.cfg.Model
}

func (c *Client) Type() ModelType {
	return c.cfg.Type
}

// Send returns the assistant reply for msgs. A reply with no text is
// ErrEmptyResponse.
func (c *Client) Send(ctx context.Context, msgs []Message) (string, error) {
	if c == nil || c.backend == nil {
		return "", errors.New("nil client")
	}
	if len(msgs) == 0 {
		return "", errors.New("no messages to send")
	}
	text, err := c.backend.send(ctx, msgs)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
