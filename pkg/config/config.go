package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/superbiz/pkg/dotdir"
)

const (
	configFile = "config.toml"

	// HistoryFile is the default history database name inside .superbiz/.
	HistoryFile = "history.db"

	// v0 is the alpha version of the config
	v0 = 0

	// CurrentV is the currently supported version, points to v0
	CurrentV = v0
)

type Configer struct {
	ddm        *dotdir.Manager
	targetDir  string
	targetPath string
}

func NewConfiger(override string) (*Configer, error) {
	cfger := &Configer{}

	cfger.ddm = dotdir.NewManager()
	target, err := cfger.ddm.Target(override)
	if err != nil {
		return nil, err
	}

	// If no .superbiz/ directory was resolved, targetPath stays empty;
	// LoadConfig will return defaults and SaveConfig will error clearly.
	if target == "" {
		return cfger, nil
	}

	path := filepath.Join(target, configFile)
	_, err = os.Stat(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfger.targetDir = target
	cfger.targetPath = path

	return cfger, nil
}

// ValidConfigKeys returns all supported configuration key names in the
// order of the TOML section layout.
func ValidConfigKeys() []string {
	ordered := []string{
		"client.api_base",
		"client.mode",
		"timeouts.chat",
		"timeouts.chat_stream",
		"timeouts.upload",
		"timeouts.aiops",
		"upload.max_bytes",
		"upload.extensions",
		"history.sqlite_path",
		"history.enabled",
		"trace.dir",
	}

	result := make([]string, 0, len(configKeys))
	seen := make(map[string]bool, len(configKeys))
	for _, k := range ordered {
		if _, ok := configKeys[k]; ok {
			result = append(result, k)
			seen[k] = true
		}
	}

	// Append any keys in the map that we missed in the ordered list.
	for k := range configKeys {
		if !seen[k] {
			result = append(result, k)
		}
	}

	return result
}

// IsValidConfigKey returns true if the given key is a supported configuration key.
func IsValidConfigKey(key string) bool {
	_, ok := configKeys[key]
	return ok
}

func (c *Configer) GetTarget() string {
	return c.targetPath
}

// HistoryPath returns cfg.History.SQLitePath, or history.db in the resolved
// .superbiz/ directory when unset.
func (c *Configer) HistoryPath(cfg *Config) string {
	if cfg != nil && cfg.History.SQLitePath != "" {
		return cfg.History.SQLitePath
	}
	if c.targetDir == "" {
		return HistoryFile
	}
	return filepath.Join(c.targetDir, HistoryFile)
}

// LoadConfig loads the configuration from config.toml in the target
// .superbiz/ directory. If the file does not exist, returns
// NewDefaultConfig() so callers always receive a fully-populated Config.
// Fields explicitly set in the file override the defaults.
func (c *Configer) LoadConfig() (*Config, error) {
	if c.targetPath == "" {
		return NewDefaultConfig(), nil
	}

	data, err := os.ReadFile(c.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := NewDefaultConfig()
	if err := decodeConfig(data, cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	return cfg, nil
}

// applyDefaults fills fields that the file explicitly emptied.
func applyDefaults(cfg *Config) {
	defaults := NewDefaultConfig()

	if cfg.Client.APIBase == "" {
		cfg.Client.APIBase = defaults.Client.APIBase
	}
	cfg.Client.APIBase = strings.TrimRight(cfg.Client.APIBase, "/")

	if cfg.Client.Mode == "" {
		cfg.Client.Mode = defaults.Client.Mode
	}

	if cfg.Timeouts.Chat <= 0 {
		cfg.Timeouts.Chat = defaults.Timeouts.Chat
	}
	if cfg.Timeouts.ChatStream <= 0 {
		cfg.Timeouts.ChatStream = defaults.Timeouts.ChatStream
	}
	if cfg.Timeouts.Upload <= 0 {
		cfg.Timeouts.Upload = defaults.Timeouts.Upload
	}
	if cfg.Timeouts.AIOps <= 0 {
		cfg.Timeouts.AIOps = defaults.Timeouts.AIOps
	}

	if cfg.Upload.MaxBytes <= 0 {
		cfg.Upload.MaxBytes = defaults.Upload.MaxBytes
	}
	if len(cfg.Upload.Extensions) == 0 {
		cfg.Upload.Extensions = defaults.Upload.Extensions
	}
}

// SaveConfig persists the configuration to config.toml in the target .superbiz/ directory.
func (c *Configer) SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}

	if c.targetPath == "" {
		return errors.New("cannot save empty target path")
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(c.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// SetConfigValue loads the config, sets the given key to the given value, and saves it.
// Returns an error if the key is not a valid config key.
func (c *Configer) SetConfigValue(key string, value string) error {
	info, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return err
	}

	if err := info.set(cfg, value); err != nil {
		return err
	}

	return c.SaveConfig(cfg)
}

// GetConfigValue loads the config and returns the string representation of the given key.
// Returns an error if the key is not a valid config key.
func (c *Configer) GetConfigValue(key string) (string, error) {
	info, ok := configKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return "", err
	}

	return info.get(cfg), nil
}

// PresetConfig returns a Config with sane defaults for the named backend
// preset. Supported presets: "local" (the backend's own port) and "dev"
// (the backend behind a development server on :8000).
// Returns an error if the preset name is not recognized.
func PresetConfig(name string) (*Config, error) {
	switch strings.ToLower(name) {
	case "local":
		return NewDefaultConfig(), nil

	case "dev":
		cfg := NewDefaultConfig()
		cfg.Client.APIBase = "http://localhost:8000/api"
		return cfg, nil

	default:
		return nil, fmt.Errorf("unknown preset: %q (available: %s)", name, strings.Join(ValidPresetNames(), ", "))
	}
}

// ValidPresetNames returns the list of recognized preset names.
func ValidPresetNames() []string {
	return []string{"local", "dev"}
}

// ParseConfigTOML parses raw TOML bytes into a Config.
// Returns an error if the version field is present and not equal to CurrentV.
func ParseConfigTOML(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := decodeConfig(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeConfig(data []byte, cfg *Config) error {
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config TOML: %w", err)
	}

	if cfg.Version != 0 && cfg.Version != CurrentV {
		return fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}

	if cfg.Client.Mode != "" {
		if err := ValidateMode(cfg.Client.Mode); err != nil {
			return fmt.Errorf("parsing config TOML: %w", err)
		}
	}

	return nil
}
