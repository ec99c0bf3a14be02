// Package logging configures the process-wide slog logger for open-grc
// commands.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
)

const (
	EnvFormat = "LOG_FORMAT"
	EnvLevel  = "LOG_LEVEL"
	// EnvSource adds the calling file and line to every record when true.
	EnvSource = "LOG_SOURCE"

	appName = "open-grc"
)

var handlerFactories = map[string]func(io.Writer, *slog.HandlerOptions) slog.Handler{
	"json": func(w io.Writer, o *slog.HandlerOptions) slog.Handler { return slog.NewJSONHandler(w, o) },
	"text": func(w io.Writer, o *slog.HandlerOptions) slog.Handler { return slog.NewTextHandler(w, o) },
}

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

type Config struct {
	Format    string
	Level     slog.Level
	AddSource bool
}

type BootstrapOptions struct {
	Command string
	Writer  io.Writer
}

func DefaultConfig() Config {
	return Config{Format: "json", Level: slog.LevelInfo}
}

// LoadConfigFromEnv reads LOG_FORMAT, LOG_LEVEL and LOG_SOURCE. Unset values
// keep their defaults; unknown values are errors.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if raw := normalized(os.Getenv(EnvFormat)); raw != "" {
		if _, ok := handlerFactories[raw]; !ok {
			return Config{}, fmt.Errorf("%s must be one of: %s", EnvFormat, choices(handlerFactories))
		}
		cfg.Format = raw
	}

	if raw := normalized(os.Getenv(EnvLevel)); raw != "" {
		level, ok := levels[raw]
		if !ok {
			return Config{}, fmt.Errorf("%s must be one of: debug, info, warn, error", EnvLevel)
		}
		cfg.Level = level
	}

	if raw := normalized(os.Getenv(EnvSource)); raw != "" {
		addSource, err := strconv.ParseBool(raw)
		if err != nil {
			return Config{}, fmt.Errorf("%s must be a boolean: %w", EnvSource, err)
		}
		cfg.AddSource = addSource
	}
	return cfg, nil
}

// NewLogger builds a logger tagged with the app name and the cobra command
// path. Unknown formats fall back to JSON.
func NewLogger(cfg Config, writer io.Writer, command string) *slog.Logger {
	if writer == nil {
		writer = os.Stdout
	}
	factory, ok := handlerFactories[normalized(cfg.Format)]
	if !ok {
		factory = handlerFactories["json"]
	}
	handler := factory(writer, &slog.HandlerOptions{Level: cfg.Level, AddSource: cfg.AddSource})

	if command = strings.TrimSpace(command); command == "" {
		command = appName
	}
	return slog.New(handler).With("app", appName, "command", command)
}

// BootstrapFromEnv builds a logger from the environment and installs it as
// the slog default.
func BootstrapFromEnv(opts BootstrapOptions) (*slog.Logger, error) {
	cfg, err := LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	logger := NewLogger(cfg, opts.Writer, opts.Command)
	slog.SetDefault(logger)
	return logger, nil
}

// WithComponent tags logger with a component name. A nil logger uses the
// process default.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	if component = strings.TrimSpace(component); component == "" {
		return logger
	}
	return logger.With("component", component)
}

func normalized(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func choices[V any](m map[string]V) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}
