// Package cmdenv builds what every backend-facing command needs from its
// flags: the effective config, a logger, the backend client and the local
// session and history state.
package cmdenv

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/superbiz/cmd/superbiz/sqlitepath"
	"github.com/papercomputeco/superbiz/pkg/client"
	"github.com/papercomputeco/superbiz/pkg/config"
	"github.com/papercomputeco/superbiz/pkg/dotdir"
	"github.com/papercomputeco/superbiz/pkg/history"
	"github.com/papercomputeco/superbiz/pkg/logger"
	"github.com/papercomputeco/superbiz/pkg/session"
)

// Env is the resolved environment of one command invocation.
type Env struct {
	ConfigDir string
	Debug     bool
	Config    *config.Config
	Logger    *slog.Logger
	Client    *client.Client

	dotdir  *dotdir.Manager
	logFile *os.File
}

// traceLogName is the JSON log written next to raw stream traces.
const traceLogName = "superbiz.log"

// GlobalFlags reads the root persistent flags. Missing flags read as zero
// values so commands also run outside the root command.
func GlobalFlags(cmd *cobra.Command) (configDir string, debug bool) {
	configDir, _ = cmd.Flags().GetString("config-dir")
	debug, _ = cmd.Flags().GetBool("debug")
	return configDir, debug
}

// NewLogger returns the pretty stderr logger used by commands.
func NewLogger(cmd *cobra.Command, debug bool) *slog.Logger {
	return logger.New(
		logger.WithDebug(debug),
		logger.WithPretty(true),
		logger.WithWriter(cmd.ErrOrStderr()),
	)
}

// Setup resolves config with the given flag registry keys bound, and builds
// the logger and client.
func Setup(cmd *cobra.Command, registryKeys ...string) (*Env, error) {
	configDir, debug := GlobalFlags(cmd)

	cfg, err := config.Resolve(cmd, configDir, registryKeys...)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	l := NewLogger(cmd, debug)

	var logFile *os.File
	if cfg.Trace.Dir != "" {
		logFile, err = openTraceLog(cfg.Trace.Dir)
		if err != nil {
			l.Warn("trace log disabled", "error", err)
		} else {
			l = logger.Multi(l, logger.New(
				logger.WithDebug(true),
				logger.WithJSON(true),
				logger.WithWriter(logFile),
			))
		}
	}

	l.Debug("resolved config",
		"api_base", cfg.Client.APIBase,
		"mode", cfg.Client.Mode,
		"trace_dir", cfg.Trace.Dir,
	)

	return &Env{
		ConfigDir: configDir,
		Debug:     debug,
		Config:    cfg,
		Logger:    l,
		Client:    client.FromConfig(cfg, client.WithLogger(l)),
		dotdir:    dotdir.NewManager(),
		logFile:   logFile,
	}, nil
}

// Close releases the trace log, if one was opened.
func (e *Env) Close() error {
	if e == nil || e.logFile == nil {
		return nil
	}
	err := e.logFile.Close()
	e.logFile = nil
	return err
}

// openTraceLog opens the JSON debug log inside the trace directory. With a
// trace directory set, every stream diagnostic lands there next to the raw
// bytes it describes.
func openTraceLog(dir string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating trace dir: %w", err)
	}
	return os.OpenFile(filepath.Join(dir, traceLogName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

// OpenHistory opens the local history store, or returns nil when history
// is disabled. A store that cannot be opened is logged and treated as
// disabled so a broken history file never blocks chatting.
func (e *Env) OpenHistory() *history.Store {
	store, err := sqlitepath.OpenHistory(e.ConfigDir, e.Config)
	if err != nil {
		e.Logger.Warn("history disabled", "error", err)
		return nil
	}
	return store
}

// SessionID picks the session for this invocation: explicit wins, then a
// fresh id when fresh is set, then the stored session, then a fresh id.
// The chosen id is stored for the next invocation.
func (e *Env) SessionID(explicit string, fresh bool) (string, error) {
	id := explicit
	switch {
	case id != "":
		if err := session.Validate(id); err != nil {
			return "", err
		}

	case fresh:
		id = session.NewID()

	default:
		state, err := e.dotdir.LoadSession(e.ConfigDir)
		if err != nil {
			e.Logger.Warn("ignoring stored session", "error", err)
		}
		if state != nil && session.Validate(state.ID) == nil {
			id = state.ID
		} else {
			id = session.NewID()
		}
	}

	return id, e.SaveSession(id, e.Config.Client.Mode)
}

// SaveSession stores id as the active session.
func (e *Env) SaveSession(id, mode string) error {
	err := e.dotdir.SaveSession(&dotdir.SessionState{
		ID:        id,
		Mode:      mode,
		UpdatedAt: time.Now(),
	}, e.ConfigDir)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// StoredSession returns the active session id, or "" when none is stored.
func (e *Env) StoredSession() (string, error) {
	state, err := e.dotdir.LoadSession(e.ConfigDir)
	if err != nil || state == nil {
		return "", err
	}
	return state.ID, nil
}

// ForgetSession removes the stored active session.
func (e *Env) ForgetSession() error {
	return e.dotdir.ClearSession(e.ConfigDir)
}
