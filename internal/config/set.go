package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"agentide/internal/llm"
)

type setter func(c *Config, value string) error

var setters = map[string]setter{
	"model.type": func(c *Config, v string) error {
		typ, err := llm.ParseModelType(v)
		if err != nil {
			return err
		}
		c.Model.Type = string(typ)
		return nil
	},
	"model.api_key":  func(c *Config, v string) error { c.Model.APIKey = v; return nil },
	"model.base_url": func(c *Config, v string) error { c.Model.BaseURL = v; return nil },
	"model.model":    func(c *Config, v string) error { c.Model.Model = v; return nil },
	"model.temperature": func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		if f < 0 || f > MaxTemperature {
			return fmt.Errorf("must be between 0 and %g", MaxTemperature)
		}
		c.Model.Temperature = f
		return nil
	},
	"model.max_tokens": intSetter(1, 1<<20, func(c *Config) *int { return &c.Model.MaxTokens }),
	"model.request_timeout": func(c *Config, v string) error {
		if _, err := parsePositiveDuration(v); err != nil {
			return err
		}
		c.Model.RequestTimeout = v
		return nil
	},
	"project.root": func(c *Config, v string) error { c.Project.Root = v; return nil },
	"safety.allow_commands": func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		c.Safety.AllowCommands = b
		return nil
	},
	"safety.command_timeout": func(c *Config, v string) error {
		if _, err := parsePositiveDuration(v); err != nil {
			return err
		}
		c.Safety.CommandTimeout = v
		return nil
	},
	"safety.restricted_paths": listSetter(func(c *Config) *[]string { return &c.Safety.RestrictedPaths }),
	"safety.restricted_globs": listSetter(func(c *Config) *[]string { return &c.Safety.RestrictedGlobs }),
	"safety.denied_commands":  listSetter(func(c *Config) *[]string { return &c.Safety.DeniedCommands }),
	"notifications.capacity":  intSetter(1, 1000, func(c *Config) *int { return &c.Notifications.Capacity }),
	"chat.history_limit":      intSetter(2, 1000, func(c *Config) *int { return &c.Chat.HistoryLimit }),
	"layout.sidebar_width":    intSetter(MinSidebarWidth, MaxSidebarWidth, func(c *Config) *int { return &c.Layout.SidebarWidth }),
	"layout.chat_height":      intSetter(MinChatHeight, MaxChatHeight, func(c *Config) *int { return &c.Layout.ChatHeight }),
	"log.level": func(c *Config, v string) error {
		switch strings.ToLower(v) {
		case "debug", "info", "warn", "error":
			c.Log.Level = strings.ToLower(v)
			return nil
		}
		return fmt.Errorf("unknown level %q", v)
	},
	"state_dir": func(c *Config, v string) error { c.StateDir = v; return nil },
}

func intSetter(minv, maxv int, field func(*Config) *int) setter {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		if n < minv || n > maxv {
			return fmt.Errorf("must be between %d and %d", minv, maxv)
		}
		*field(c) = n
		return nil
	}
}

// listSetter takes a comma-separated list; an empty value clears the list.
func listSetter(field func(*Config) *[]string) setter {
	return func(c *Config, v string) error {
		out := []string{}
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		*field(c) = out
		return nil
	}
}

// Keys lists the settable keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set assigns one dotted key, validating the value the way Load would.
func (c *Config) Set(key, value string) error {
	set, ok := setters[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return fmt.Errorf("unknown key %q (known: %s)", key, strings.Join(Keys(), ", "))
	}
	if err := set(c, strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}
