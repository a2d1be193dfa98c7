package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	FormatVerbose = "verbose"
	FormatJSON    = "json"
)

// Options configures a logger.
type Options struct {
	Level       string
	Format      string
	Name        string
	Environment string
	AddSource   bool
	// Output defaults to os.Stdout.
	Output io.Writer
}

func New(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     ParseLevel(opts.Level),
		AddSource: opts.AddSource,
	}

	var handler slog.Handler
	if strings.ToLower(opts.Format) == FormatJSON {
		handler = slog.NewJSONHandler(out, handlerOpts)
	} else {
		handler = slog.NewTextHandler(out, handlerOpts)
	}

	log := slog.New(handler)
	if opts.Name != "" {
		log = log.With(slog.String("logger", opts.Name))
	}
	if opts.Environment != "" {
		log = log.With(slog.String("environment", opts.Environment))
	}
	return log
}

// Sub returns a logger for a subsystem, named "<parent>.<name>", with its own level.
func Sub(opts Options, name, level string) *slog.Logger {
	sub := opts
	sub.Level = level
	if sub.Name != "" {
		sub.Name += "." + name
	} else {
		sub.Name = name
	}
	return New(sub)
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Discard returns a logger that drops everything, for tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
