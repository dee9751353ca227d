// Package config loads CLI settings from defaults, a YAML file, QUERYFORM_
// environment variables and command-line flags, in increasing precedence.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// FileName is the config file looked up in the working directory.
const FileName = "queryform.yaml"

// EnvPrefix namespaces environment overrides. QUERYFORM_LOG__LEVEL maps to
// log.level; a single underscore stays part of the key.
const EnvPrefix = "QUERYFORM_"

// Config holds every CLI setting.
type Config struct {
	Catalog     string      `koanf:"catalog"`
	Schema      string      `koanf:"schema"`
	Renderer    string      `koanf:"renderer"`
	Output      string      `koanf:"output"`
	SubmitLabel string      `koanf:"submit_label"`
	MaxAttempts int         `koanf:"max_attempts"`
	Log         LogConfig   `koanf:"log"`
	Theme       ThemeConfig `koanf:"theme"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// ThemeConfig picks a theme and overrides individual tokens.
type ThemeConfig struct {
	Name          string            `koanf:"name"`
	Variant       string            `koanf:"variant"`
	Tokens        map[string]string `koanf:"tokens"`
	Stylesheet    string            `koanf:"stylesheet"`
	DefaultStyles bool              `koanf:"default_styles"`
}

// Defaults returns the built-in settings.
func Defaults() map[string]any {
	return map[string]any{
		"renderer":             "vanilla",
		"output":               "json",
		"submit_label":         "Search",
		"max_attempts":         3,
		"log.level":            "info",
		"log.format":           "text",
		"theme.default_styles": false,
	}
}

// flagKeys maps flag names to config keys where they differ.
var flagKeys = map[string]string{
	"log-level":      "log.level",
	"log-format":     "log.format",
	"theme":          "theme.name",
	"variant":        "theme.variant",
	"stylesheet":     "theme.stylesheet",
	"default-styles": "theme.default_styles",
}

// Load merges defaults, the config file, environment and changed flags. An
// empty path falls back to FileName when it exists.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	if used := findFile(path); used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", used, err)
		}
	} else if path != "" {
		return nil, fmt.Errorf("config: file %s not found", path)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				key = strings.ReplaceAll(f.Name, "-", "_")
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, fmt.Errorf("config: load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values no command can act on.
func (c *Config) Validate() error {
	switch c.Output {
	case "json", "form", "pretty":
	default:
		return fmt.Errorf("config: unsupported output %q", c.Output)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("config: unsupported log format %q", c.Log.Format)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("config: max_attempts must be at least 1")
	}
	return nil
}

func findFile(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}
	if _, err := os.Stat(FileName); err == nil {
		return FileName
	}
	return ""
}

// envKey turns QUERYFORM_THEME__VARIANT into theme.variant.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// SlogLevel parses the configured level name.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(l.Level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: log level: %w", err)
	}
	return level, nil
}
