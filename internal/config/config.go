package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"agentide/internal/chat"
	"agentide/internal/llm"
	"agentide/internal/notify"
	"agentide/internal/safety"
)

const FileName = "agentide.yaml"

const (
	MinSidebarWidth     = 20
	MaxSidebarWidth     = 60
	DefaultSidebarWidth = 30
	MinChatHeight       = 8
	MaxChatHeight       = 25
	DefaultChatHeight   = 12
	ResizeStep          = 2

	MaxTemperature = 2.0
)

var ErrNoAPIKey = errors.New("no API key configured")

type Config struct {
	Model         ModelConfig         `yaml:"model"`
	Project       ProjectConfig       `yaml:"project"`
	Safety        SafetyConfig        `yaml:"safety"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Chat          ChatConfig          `yaml:"chat"`
	Layout        LayoutConfig        `yaml:"layout"`
	Log           LogConfig           `yaml:"log"`
	StateDir      string              `yaml:"state_dir"`
}

type ModelConfig struct {
	Type           string  `yaml:"type"`
	APIKey         string  `yaml:"api_key,omitempty"`
	BaseURL        string  `yaml:"base_url,omitempty"`
	Model          string  `yaml:"model,omitempty"`
	Temperature    float64 `yaml:"temperature"`
	MaxTokens      int     `yaml:"max_tokens"`
	RequestTimeout string  `yaml:"request_timeout"`
}

type ProjectConfig struct {
	Root string `yaml:"root"`
}

type SafetyConfig struct {
	RestrictedPaths []string `yaml:"restricted_paths"`
	RestrictedGlobs []string `yaml:"restricted_globs"`
	DeniedCommands  []string `yaml:"denied_commands"`
	AllowCommands   bool     `yaml:"allow_commands"`
	CommandTimeout  string   `yaml:"command_timeout"`
}

type NotificationsConfig struct {
	Capacity int `yaml:"capacity"`
}

type ChatConfig struct {
	HistoryLimit int `yaml:"history_limit"`
}

type LayoutConfig struct {
	SidebarWidth int `yaml:"sidebar_width"`
	ChatHeight   int `yaml:"chat_height"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func DefaultConfig() Config {
	return Config{
		Model: ModelConfig{
			Type:           string(llm.ModelTypeOpenAI),
			Temperature:    0.7,
			MaxTokens:      4096,
			RequestTimeout: "120s",
		},
		Project: ProjectConfig{Root: "."},
		Safety: SafetyConfig{
			RestrictedPaths: append([]string(nil), safety.DefaultRestrictedPaths...),
			RestrictedGlobs: append([]string(nil), safety.DefaultRestrictedGlobs...),
			DeniedCommands:  append([]string(nil), safety.DefaultDeniedCommands...),
			CommandTimeout:  "60s",
		},
		Notifications: NotificationsConfig{Capacity: notify.DefaultCapacity},
		Chat:          ChatConfig{HistoryLimit: chat.DefaultHistoryLimit},
		Layout:        LayoutConfig{SidebarWidth: DefaultSidebarWidth, ChatHeight: DefaultChatHeight},
		Log:           LogConfig{Level: "info"},
		StateDir:      defaultStateDir(),
	}
}

// WithDefaults fills unset fields and clamps the rest into range.
func (c Config) WithDefaults() Config {
	out := c
	def := DefaultConfig()

	if strings.TrimSpace(out.Model.Type) == "" {
		out.Model.Type = def.Model.Type
	}
	out.Model.Temperature = clampFloat(0, out.Model.Temperature, MaxTemperature)
	if out.Model.MaxTokens <= 0 {
		out.Model.MaxTokens = def.Model.MaxTokens
	}
	if strings.TrimSpace(out.Model.RequestTimeout) == "" {
		out.Model.RequestTimeout = def.Model.RequestTimeout
	}
	if strings.TrimSpace(out.Project.Root) == "" {
		out.Project.Root = def.Project.Root
	}
	if out.Safety.RestrictedPaths == nil {
		out.Safety.RestrictedPaths = def.Safety.RestrictedPaths
	}
	if out.Safety.RestrictedGlobs == nil {
		out.Safety.RestrictedGlobs = def.Safety.RestrictedGlobs
	}
	if out.Safety.DeniedCommands == nil {
		out.Safety.DeniedCommands = def.Safety.DeniedCommands
	}
	if strings.TrimSpace(out.Safety.CommandTimeout) == "" {
		out.Safety.CommandTimeout = def.Safety.CommandTimeout
	}
	if out.Notifications.Capacity <= 0 {
		out.Notifications.Capacity = def.Notifications.Capacity
	}
	if out.Chat.HistoryLimit <= 0 {
		out.Chat.HistoryLimit = def.Chat.HistoryLimit
	}
	if out.Layout.SidebarWidth == 0 {
		out.Layout.SidebarWidth = def.Layout.SidebarWidth
	}
	out.Layout.SidebarWidth = clamp(MinSidebarWidth, out.Layout.SidebarWidth, MaxSidebarWidth)
	if out.Layout.ChatHeight == 0 {
		out.Layout.ChatHeight = def.Layout.ChatHeight
	}
	out.Layout.ChatHeight = clamp(MinChatHeight, out.Layout.ChatHeight, MaxChatHeight)
	if strings.TrimSpace(out.Log.Level) == "" {
		out.Log.Level = def.Log.Level
	}
	if strings.TrimSpace(out.StateDir) == "" {
		out.StateDir = def.StateDir
	}
	return out
}

// DefaultPath is $XDG_CONFIG_HOME/agentide/agentide.yaml.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return FileName
	}
	return filepath.Join(dir, "agentide", FileName)
}

func defaultStateDir() string {
	if dir := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); dir != "" {
		return filepath.Join(dir, "agentide")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".agentide"
	}
	return filepath.Join(home, ".local", "state", "agentide")
}

// Load reads path (DefaultPath when empty). A missing file yields the
// defaults. Environment overrides are applied last.
func Load(path string) (Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg = cfg.WithEnv(os.Getenv).WithDefaults()
	if _, err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", displayPath(path), err)
	}
	return cfg, nil
}

// LoadFile reads path over the defaults without consulting the environment,
// which is what an edit-and-save round trip needs.
func LoadFile(path string) (Config, error) {
	path = displayPath(path)
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, err
	default:
		// Fields absent from the file keep their default values.
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return cfg, nil
}

func displayPath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultPath()
	}
	return path
}

// WithEnv applies AGENTIDE_* overrides and falls back to the provider's
// conventional API key variable.
func (c Config) WithEnv(getenv func(string) string) Config {
	out := c
	if v := strings.TrimSpace(getenv("AGENTIDE_MODEL_TYPE")); v != "" {
		out.Model.Type = v
	}
	if v := strings.TrimSpace(getenv("AGENTIDE_MODEL")); v != "" {
		out.Model.Model = v
	}
	if v := strings.TrimSpace(getenv("AGENTIDE_BASE_URL")); v != "" {
		out.Model.BaseURL = v
	}
	if v := strings.TrimSpace(getenv("AGENTIDE_API_KEY")); v != "" {
		out.Model.APIKey = v
	}
	if strings.TrimSpace(out.Model.APIKey) == "" {
		typ, _ := llm.ParseModelType(out.Model.Type)
		switch typ {
		case llm.ModelTypeAnthropic:
			out.Model.APIKey = strings.TrimSpace(getenv("ANTHROPIC_API_KEY"))
		default:
			out.Model.APIKey = strings.TrimSpace(getenv("OPENAI_API_KEY"))
		}
	}
	return out
}

// Durations holds the parsed duration fields.
type Durations struct {
	Request time.Duration
	Command time.Duration
}

// Validate checks the fields that can only be checked after parsing.
func (c Config) Validate() (Durations, error) {
	var d Durations
	if _, err := llm.ParseModelType(c.Model.Type); err != nil {
		return d, fmt.Errorf("model.type: %w", err)
	}
	var err error
	if d.Request, err = parsePositiveDuration(c.Model.RequestTimeout); err != nil {
		return d, fmt.Errorf("model.request_timeout: %w", err)
	}
	if d.Command, err = parsePositiveDuration(c.Safety.CommandTimeout); err != nil {
		return d, fmt.Errorf("safety.command_timeout: %w", err)
	}
	return d, nil
}

func parsePositiveDuration(raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", raw)
	}
	return d, nil
}

// LLM returns the backend configuration. It fails with ErrNoAPIKey when no
// key was found in the file or the environment.
func (c Config) LLM() (llm.Config, error) {
	typ, err := llm.ParseModelType(c.Model.Type)
	if err != nil {
		return llm.Config{}, err
	}
	if strings.TrimSpace(c.Model.APIKey) == "" {
		return llm.Config{}, ErrNoAPIKey
	}
	return llm.Config{
		Type:        typ,
		APIKey:      c.Model.APIKey,
		BaseURL:     c.Model.BaseURL,
		Model:       c.Model.Model,
		MaxTokens:   c.Model.MaxTokens,
		Temperature: c.Model.Temperature,
	}, nil
}

// SafetyOptions resolves the project root against cwd.
func (c Config) SafetyOptions(cwd string) safety.Options {
	root := strings.TrimSpace(c.Project.Root)
	if root == "" {
		root = "."
	}
	if !filepath.IsAbs(root) {
		root = filepath.Join(cwd, root)
	}
	return safety.Options{
		Root:            filepath.Clean(root),
		RestrictedPaths: c.Safety.RestrictedPaths,
		RestrictedGlobs: c.Safety.RestrictedGlobs,
		DeniedCommands:  c.Safety.DeniedCommands,
		AllowCommands:   c.Safety.AllowCommands,
	}
}

// Save writes c as YAML, creating parent directories. The API key is only
// written when it was set in the file itself, so callers pass a config that
// has not been through WithEnv.
func Save(path string, c Config) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	out := c
	if key := strings.TrimSpace(out.Model.APIKey); key != "" {
		if len(key) > 8 {
			out.Model.APIKey = key[:4] + "…" + key[len(key)-4:]
		} else {
			out.Model.APIKey = "****"
		}
	}
	return out
}

func clamp(minv int, v int, maxv int) int {
	if v < minv {
		return minv
	}
	if v > maxv {
		return maxv
	}
	return v
}

func clampFloat(minv float64, v float64, maxv float64) float64 {
	if v < minv {
		return minv
	}
	if v > maxv {
		return maxv
	}
	return v
}
