// Package sqlitepath resolves and opens the local chat history database.
package sqlitepath

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/papercomputeco/superbiz/pkg/config"
	"github.com/papercomputeco/superbiz/pkg/history"
)

// ResolveHistoryPath returns the history database path: the configured
// history.sqlite_path when set, otherwise history.db in the resolved
// .superbiz/ directory. The parent directory is created when missing.
func ResolveHistoryPath(configDir string, cfg *config.Config) (string, error) {
	path := ""
	if cfg != nil {
		path = strings.TrimSpace(cfg.History.SQLitePath)
	}

	if path == "" {
		cfger, err := config.NewConfiger(configDir)
		if err != nil {
			return "", fmt.Errorf("resolving history path: %w", err)
		}
		path = cfger.HistoryPath(cfg)
	}

	if path == ":memory:" {
		return path, nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("creating history directory: %w", err)
		}
	}

	return path, nil
}

// OpenHistory opens the history store for cfg. It returns a nil store and
// no error when history is disabled.
func OpenHistory(configDir string, cfg *config.Config) (*history.Store, error) {
	if cfg != nil && !cfg.History.Enabled {
		return nil, nil
	}

	path, err := ResolveHistoryPath(configDir, cfg)
	if err != nil {
		return nil, err
	}

	store, err := history.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening history %s: %w", path, err)
	}
	return store, nil
}
