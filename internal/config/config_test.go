package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentide/internal/llm"
	"agentide/internal/notify"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"AGENTIDE_MODEL_TYPE", "AGENTIDE_MODEL", "AGENTIDE_BASE_URL", "AGENTIDE_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY"} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Model.Type)
	assert.Equal(t, notify.DefaultCapacity, cfg.Notifications.Capacity)
	assert.Equal(t, 50, cfg.Chat.HistoryLimit)
	assert.Equal(t, DefaultSidebarWidth, cfg.Layout.SidebarWidth)
	assert.False(t, cfg.Safety.AllowCommands)
	assert.Contains(t, cfg.Safety.RestrictedPaths, "/etc")
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
model:
  type: anthropic
  temperature: 5
  request_timeout: 30s
safety:
  allow_commands: true
  restricted_paths: []
layout:
  sidebar_width: 100
  chat_height: 1
notifications:
  capacity: 25
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.Model.Type)
	assert.Equal(t, MaxTemperature, cfg.Model.Temperature)
	assert.Equal(t, 4096, cfg.Model.MaxTokens)
	assert.True(t, cfg.Safety.AllowCommands)
	assert.Empty(t, cfg.Safety.RestrictedPaths)
	assert.NotEmpty(t, cfg.Safety.DeniedCommands)
	assert.Equal(t, MaxSidebarWidth, cfg.Layout.SidebarWidth)
	assert.Equal(t, MinChatHeight, cfg.Layout.ChatHeight)
	assert.Equal(t, 25, cfg.Notifications.Capacity)

	d, err := cfg.Validate()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, d.Request)
	assert.Equal(t, 60*time.Second, d.Command)
}

func TestLoadRejectsBadValues(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeConfig(t, "model:\n  type: llama\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model.type")

	_, err = Load(writeConfig(t, "model:\n  request_timeout: soon\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model.request_timeout")

	_, err = Load(writeConfig(t, "model: [\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}

func TestWithEnvOverrides(t *testing.T) {
	env := map[string]string{
		"AGENTIDE_MODEL":    "gpt-test",
		"AGENTIDE_BASE_URL": "http://localhost:8080/v1",
		"OPENAI_API_KEY":    "sk-openai",
		"ANTHROPIC_API_KEY": "sk-ant",
	}
	getenv := func(k string) string { return env[k] }

	cfg := DefaultConfig().WithEnv(getenv)
	assert.Equal(t, "gpt-test", cfg.Model.Model)
	assert.Equal(t, "http://localhost:8080/v1", cfg.Model.BaseURL)
	assert.Equal(t, "sk-openai", cfg.Model.APIKey)

	c := DefaultConfig()
	c.Model.Type = "claude"
	assert.Equal(t, "sk-ant", c.WithEnv(getenv).Model.APIKey)

	env["AGENTIDE_API_KEY"] = "sk-explicit"
	assert.Equal(t, "sk-explicit", c.WithEnv(getenv).Model.APIKey)
}

func TestLLMConfig(t *testing.T) {
	cfg := DefaultConfig()
	_, err := cfg.LLM()
	require.ErrorIs(t, err, ErrNoAPIKey)

	cfg.Model.APIKey = "sk-1"
	cfg.Model.Type = "anthropic"
	lc, err := cfg.LLM()
	require.NoError(t, err)
	assert.Equal(t, llm.ModelTypeAnthropic, lc.Type)
	assert.Equal(t, "sk-1", lc.APIKey)
}

func TestSafetyOptionsResolvesRoot(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Project.Root = "sub"
	opts := cfg.SafetyOptions("/work")
	assert.Equal(t, "/work/sub", opts.Root)

	cfg.Project.Root = "/abs/project/"
	assert.Equal(t, "/abs/project", cfg.SafetyOptions("/work").Root)
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", FileName)
	want := DefaultConfig()
	want.Layout.SidebarWidth = 40
	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRedacted(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Model.APIKey = "sk-abcdefghijkl"
	assert.Equal(t, "sk-a…ijkl", cfg.Redacted().Model.APIKey)
	cfg.Model.APIKey = "short"
	assert.Equal(t, "****", cfg.Redacted().Model.APIKey)
	assert.Equal(t, "short", cfg.Model.APIKey)
}

func TestSet(t *testing.T) {
	cases := []struct {
		key, value string
		check      func(t *testing.T, c Config)
		errText    string
	}{
		{key: "model.model", value: "llama-3.1-70b", check: func(t *testing.T, c Config) { assert.Equal(t, "llama-3.1-70b", c.Model.Model) }},
		{key: "model.type", value: "claude", check: func(t *testing.T, c Config) { assert.Equal(t, "anthropic", c.Model.Type) }},
		{key: "MODEL.API_KEY", value: " gsk-123 ", check: func(t *testing.T, c Config) { assert.Equal(t, "gsk-123", c.Model.APIKey) }},
		{key: "model.temperature", value: "1.5", check: func(t *testing.T, c Config) { assert.Equal(t, 1.5, c.Model.Temperature) }},
		{key: "safety.allow_commands", value: "true", check: func(t *testing.T, c Config) { assert.True(t, c.Safety.AllowCommands) }},
		{key: "safety.restricted_globs", value: ".git/**, secrets/*", check: func(t *testing.T, c Config) {
			assert.Equal(t, []string{".git/**", "secrets/*"}, c.Safety.RestrictedGlobs)
		}},
		{key: "layout.sidebar_width", value: "40", check: func(t *testing.T, c Config) { assert.Equal(t, 40, c.Layout.SidebarWidth) }},
		{key: "layout.sidebar_width", value: "100", errText: "between 20 and 60"},
		{key: "model.temperature", value: "3", errText: "between 0 and 2"},
		{key: "model.request_timeout", value: "-1s", errText: "must be positive"},
		{key: "model.type", value: "llama", errText: "unsupported model type"},
		{key: "model.colour", value: "x", errText: "unknown key"},
	}
	for _, tc := range cases {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			c := DefaultConfig()
			err := c.Set(tc.key, tc.value)
			if tc.errText != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errText)
				return
			}
			require.NoError(t, err)
			tc.check(t, c)
		})
	}
}

func TestLoadFileIgnoresEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("AGENTIDE_API_KEY", "from-env")
	path := writeConfig(t, "model:\n  model: m1\n")

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "m1", c.Model.Model)
	assert.Empty(t, c.Model.APIKey)

	require.NoError(t, c.Set("model.model", "m2"))
	require.NoError(t, Save(path, c))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "m2", loaded.Model.Model)
	assert.Equal(t, "from-env", loaded.Model.APIKey)
}
