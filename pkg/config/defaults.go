package config

import "time"

const (
	defaultAPIBase = "http://localhost:9900/api"
	defaultMode    = ModeStream

	defaultChatTimeout       = 60 * time.Second
	defaultChatStreamTimeout = 180 * time.Second
	defaultUploadTimeout     = 90 * time.Second
	defaultAIOpsTimeout      = 240 * time.Second

	defaultUploadMaxBytes = 50 * 1024 * 1024
)

var defaultUploadExtensions = []string{".txt", ".md", ".markdown"}

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Client: ClientConfig{
			APIBase: defaultAPIBase,
			Mode:    defaultMode,
		},
		Timeouts: TimeoutsConfig{
			Chat:       Duration(defaultChatTimeout),
			ChatStream: Duration(defaultChatStreamTimeout),
			Upload:     Duration(defaultUploadTimeout),
			AIOps:      Duration(defaultAIOpsTimeout),
		},
		Upload: UploadConfig{
			MaxBytes:   defaultUploadMaxBytes,
			Extensions: append([]string(nil), defaultUploadExtensions...),
		},
		History: HistoryConfig{
			Enabled: true,
		},
	}
}
