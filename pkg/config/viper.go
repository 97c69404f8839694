package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/superbiz/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the SUPERBIZ_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (SUPERBIZ_CLIENT_API_BASE, SUPERBIZ_TIMEOUTS_CHAT, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: SUPERBIZ_CLIENT_MODE, SUPERBIZ_TRACE_DIR, etc.
	v.SetEnvPrefix("SUPERBIZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Client
	v.SetDefault("client.api_base", d.Client.APIBase)
	v.SetDefault("client.mode", d.Client.Mode)

	// Timeouts
	v.SetDefault("timeouts.chat", d.Timeouts.Chat.Std())
	v.SetDefault("timeouts.chat_stream", d.Timeouts.ChatStream.Std())
	v.SetDefault("timeouts.upload", d.Timeouts.Upload.Std())
	v.SetDefault("timeouts.aiops", d.Timeouts.AIOps.Std())

	// Upload
	v.SetDefault("upload.max_bytes", d.Upload.MaxBytes)
	v.SetDefault("upload.extensions", d.Upload.Extensions)

	// History
	v.SetDefault("history.sqlite_path", d.History.SQLitePath)
	v.SetDefault("history.enabled", d.History.Enabled)

	// Trace
	v.SetDefault("trace.dir", d.Trace.Dir)
}

// FromViper builds a Config from the resolved viper values, so flag, env
// and file layers all apply.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Version: v.GetInt("version"),
		Client: ClientConfig{
			APIBase: strings.TrimRight(v.GetString("client.api_base"), "/"),
			Mode:    v.GetString("client.mode"),
		},
		Timeouts: TimeoutsConfig{
			Chat:       Duration(v.GetDuration("timeouts.chat")),
			ChatStream: Duration(v.GetDuration("timeouts.chat_stream")),
			Upload:     Duration(v.GetDuration("timeouts.upload")),
			AIOps:      Duration(v.GetDuration("timeouts.aiops")),
		},
		Upload: UploadConfig{
			MaxBytes:   v.GetInt64("upload.max_bytes"),
			Extensions: extensionsFromViper(v),
		},
		History: HistoryConfig{
			SQLitePath: v.GetString("history.sqlite_path"),
			Enabled:    v.GetBool("history.enabled"),
		},
		Trace: TraceConfig{
			Dir: v.GetString("trace.dir"),
		},
	}

	if err := ValidateMode(cfg.Client.Mode); err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	return cfg, nil
}

// extensionsFromViper accepts both a TOML array and the comma separated
// string form used by environment variables.
func extensionsFromViper(v *viper.Viper) []string {
	var exts []string
	for _, item := range v.GetStringSlice("upload.extensions") {
		exts = append(exts, SplitExtensions(item)...)
	}
	return exts
}
