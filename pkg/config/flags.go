package config

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --api-base
// on "superbiz chat", "superbiz ask" and "superbiz upload").
type Flag struct {
	// Name is the long flag name (e.g. "api-base").
	Name string

	// Shorthand is the one-letter short flag (e.g. "a"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "client.api_base").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddDurationFlag,
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagAPIBase           = "api-base"
	FlagMode              = "mode"
	FlagTimeout           = "timeout"
	FlagChatStreamTimeout = "stream-timeout"
	FlagUploadTimeout     = "upload-timeout"
	FlagAIOpsTimeout      = "aiops-timeout"
	FlagHistorySQLite     = "history-sqlite"
	FlagTraceDir          = "trace-dir"
)

// ClientFlags is the registry shared by every command that calls the backend.
var ClientFlags = FlagSet{
	FlagAPIBase: {
		Name:        "api-base",
		Shorthand:   "a",
		ViperKey:    "client.api_base",
		Description: "Backend API base URL",
	},
	FlagMode: {
		Name:        "mode",
		Shorthand:   "m",
		ViperKey:    "client.mode",
		Description: "Chat mode: quick or stream",
	},
	FlagTimeout: {
		Name:        "timeout",
		ViperKey:    "timeouts.chat",
		Description: "Deadline for non-streaming chat requests",
	},
	FlagChatStreamTimeout: {
		Name:        "stream-timeout",
		ViperKey:    "timeouts.chat_stream",
		Description: "Deadline for a whole streamed chat answer",
	},
	FlagUploadTimeout: {
		Name:        "timeout",
		ViperKey:    "timeouts.upload",
		Description: "Deadline for the upload request",
	},
	FlagAIOpsTimeout: {
		Name:        "timeout",
		ViperKey:    "timeouts.aiops",
		Description: "Deadline for the whole analysis",
	},
	FlagHistorySQLite: {
		Name:        "history-sqlite",
		ViperKey:    "history.sqlite_path",
		Description: "Path to the local chat history database",
	},
	FlagTraceDir: {
		Name:        "trace-dir",
		ViperKey:    "trace.dir",
		Description: "Record raw stream bytes to this directory",
	},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddDurationFlag registers a duration flag on cmd from the given FlagSet.
func AddDurationFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *time.Duration) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultDuration(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().DurationVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().DurationVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// Resolve runs InitViper, binds the given registry keys on cmd, and returns
// the effective Config.
func Resolve(cmd *cobra.Command, configDir string, registryKeys ...string) (*Config, error) {
	v, err := InitViper(configDir)
	if err != nil {
		return nil, err
	}

	BindRegisteredFlags(v, cmd, ClientFlags, registryKeys)

	return FromViper(v)
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultDuration returns the default duration value for a viper key from NewDefaultConfig.
func defaultDuration(viperKey string) time.Duration {
	v := viper.New()
	setViperDefaults(v)
	return v.GetDuration(viperKey)
}
