package infra

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the logging contract shared across packages.
type Logger = zerolog.Logger

// LogOptions selects the output of NewLogger.
type LogOptions struct {
	// Env is APP_ENV; "development" switches to a coloured console writer
	// and a debug default level.
	Env string
	// Level overrides the default level when it parses ("warn", "debug", ...).
	Level string
	// Component tags every line, e.g. "api" or "granttokens".
	Component string
	Out       io.Writer
}

// NewLogger builds the process logger.
func NewLogger(opts LogOptions) Logger {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	dev := opts.Env == "development"
	if dev {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	level := zerolog.InfoLevel
	if dev {
		level = zerolog.DebugLevel
	}
	if parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level))); err == nil && opts.Level != "" {
		level = parsed
	}

	ctx := zerolog.New(out).Level(level).With().Timestamp().Str("service", "voxscribe")
	if opts.Component != "" {
		ctx = ctx.Str("component", opts.Component)
	}
	if opts.Env != "" {
		ctx = ctx.Str("env", opts.Env)
	}
	return ctx.Logger()
}
