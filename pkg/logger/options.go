package logger

import (
	"io"
	"log/slog"
)

// Option configures a logger created with New.
type Option func(*config)

// WithDebug lowers the level to Debug and reports the caller of every
// record, which is what --debug asks for when chasing a stream problem.
func WithDebug(debug bool) Option {
	return func(c *config) {
		c.level = slog.LevelInfo
		c.source = false
		if debug {
			c.level = slog.LevelDebug
			c.source = true
		}
	}
}

// WithPretty selects the charmbracelet/log handler used for terminal
// output.
func WithPretty(pretty bool) Option {
	return func(c *config) {
		c.pretty = pretty
	}
}

// WithJSON selects the JSON handler used for the trace log file.
func WithJSON(json bool) Option {
	return func(c *config) {
		c.json = json
	}
}

// WithWriter sets the destination. Defaults to os.Stderr.
func WithWriter(w io.Writer) Option {
	return func(c *config) {
		c.w = w
	}
}
