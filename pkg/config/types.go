package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config represents the persistent superbiz configuration stored as
// config.toml in the .superbiz/ directory. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Version  int            `toml:"version"`
	Client   ClientConfig   `toml:"client"`
	Timeouts TimeoutsConfig `toml:"timeouts"`
	Upload   UploadConfig   `toml:"upload"`
	History  HistoryConfig  `toml:"history"`
	Trace    TraceConfig    `toml:"trace"`
}

// ClientConfig holds settings for commands that talk to the backend.
type ClientConfig struct {
	// APIBase is the backend URL prefix, e.g. http://localhost:9900/api.
	APIBase string `toml:"api_base,omitempty"`

	// Mode is the default chat mode, ModeQuick or ModeStream.
	Mode string `toml:"mode,omitempty"`
}

// TimeoutsConfig holds per-endpoint request deadlines. Stream deadlines
// bound the whole stream, not the time between chunks.
type TimeoutsConfig struct {
	Chat       Duration `toml:"chat,omitempty"`
	ChatStream Duration `toml:"chat_stream,omitempty"`
	Upload     Duration `toml:"upload,omitempty"`
	AIOps      Duration `toml:"aiops,omitempty"`
}

// UploadConfig holds client-side document validation rules.
type UploadConfig struct {
	MaxBytes   int64    `toml:"max_bytes,omitempty"`
	Extensions []string `toml:"extensions,omitempty"`
}

// HistoryConfig holds local chat history settings.
type HistoryConfig struct {
	// SQLitePath defaults to history.db in the .superbiz/ directory.
	SQLitePath string `toml:"sqlite_path,omitempty"`
	Enabled    bool   `toml:"enabled"`
}

// TraceConfig holds raw stream recording settings.
type TraceConfig struct {
	// Dir receives one .sse file per stream. Empty disables recording.
	Dir string `toml:"dir,omitempty"`
}

// Duration is a time.Duration stored as a string ("60s", "3m") in TOML.
type Duration time.Duration

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	if d == 0 {
		return ""
	}
	return time.Duration(d).String()
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Chat modes.
const (
	ModeQuick  = "quick"
	ModeStream = "stream"
)

// ValidateMode reports whether mode is a known chat mode.
func ValidateMode(mode string) error {
	switch mode {
	case ModeQuick, ModeStream:
		return nil
	default:
		return fmt.Errorf("invalid chat mode %q (expected %q or %q)", mode, ModeQuick, ModeStream)
	}
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"client.api_base": {
		get: func(c *Config) string { return c.Client.APIBase },
		set: func(c *Config, v string) error { c.Client.APIBase = strings.TrimRight(v, "/"); return nil },
	},
	"client.mode": {
		get: func(c *Config) string { return c.Client.Mode },
		set: func(c *Config, v string) error {
			if err := ValidateMode(v); err != nil {
				return err
			}
			c.Client.Mode = v
			return nil
		},
	},
	"timeouts.chat":        durationKey("timeouts.chat", func(c *Config) *Duration { return &c.Timeouts.Chat }),
	"timeouts.chat_stream": durationKey("timeouts.chat_stream", func(c *Config) *Duration { return &c.Timeouts.ChatStream }),
	"timeouts.upload":      durationKey("timeouts.upload", func(c *Config) *Duration { return &c.Timeouts.Upload }),
	"timeouts.aiops":       durationKey("timeouts.aiops", func(c *Config) *Duration { return &c.Timeouts.AIOps }),
	"upload.max_bytes": {
		get: func(c *Config) string {
			if c.Upload.MaxBytes == 0 {
				return ""
			}
			return strconv.FormatInt(c.Upload.MaxBytes, 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid value for upload.max_bytes: %q", v)
			}
			c.Upload.MaxBytes = n
			return nil
		},
	},
	"upload.extensions": {
		get: func(c *Config) string { return strings.Join(c.Upload.Extensions, ",") },
		set: func(c *Config, v string) error {
			exts := SplitExtensions(v)
			if len(exts) == 0 {
				return fmt.Errorf("invalid value for upload.extensions: %q", v)
			}
			c.Upload.Extensions = exts
			return nil
		},
	},
	"history.sqlite_path": {
		get: func(c *Config) string { return c.History.SQLitePath },
		set: func(c *Config, v string) error { c.History.SQLitePath = v; return nil },
	},
	"history.enabled": {
		get: func(c *Config) string { return strconv.FormatBool(c.History.Enabled) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for history.enabled: %w", err)
			}
			c.History.Enabled = b
			return nil
		},
	},
	"trace.dir": {
		get: func(c *Config) string { return c.Trace.Dir },
		set: func(c *Config, v string) error { c.Trace.Dir = v; return nil },
	},
}

func durationKey(name string, field func(c *Config) *Duration) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return field(c).String() },
		set: func(c *Config, v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			if d <= 0 {
				return fmt.Errorf("invalid value for %s: must be positive", name)
			}
			*field(c) = Duration(d)
			return nil
		},
	}
}

// SplitExtensions parses a comma separated extension list into lower-case
// entries that each start with a dot.
func SplitExtensions(v string) []string {
	var exts []string
	for _, part := range strings.Split(v, ",") {
		ext := strings.ToLower(strings.TrimSpace(part))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	return exts
}
