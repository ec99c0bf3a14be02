package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	t.Setenv(EnvFormat, "")
	t.Setenv(EnvLevel, "")
	t.Setenv(EnvSource, "")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv() error = %v", err)
	}
	if cfg.Format != "json" {
		t.Fatalf("Format = %q, want %q", cfg.Format, "json")
	}
	if cfg.Level != slog.LevelInfo {
		t.Fatalf("Level = %v, want %v", cfg.Level, slog.LevelInfo)
	}
	if cfg.AddSource {
		t.Fatal("AddSource = true, want false")
	}
}

func TestLoadConfigFromEnv_ValidValues(t *testing.T) {
	t.Setenv(EnvFormat, "text")
	t.Setenv(EnvLevel, "debug")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv() error = %v", err)
	}
	if cfg.Format != "text" {
		t.Fatalf("Format = %q, want %q", cfg.Format, "text")
	}
	if cfg.Level != slog.LevelDebug {
		t.Fatalf("Level = %v, want %v", cfg.Level, slog.LevelDebug)
	}
}

func TestLoadConfigFromEnv_InvalidFormat(t *testing.T) {
	t.Setenv(EnvFormat, "yaml")
	t.Setenv(EnvLevel, "")

	_, err := LoadConfigFromEnv()
	if err == nil {
		t.Fatal("expected invalid LOG_FORMAT error")
	}
}

func TestLoadConfigFromEnv_InvalidLevel(t *testing.T) {
	t.Setenv(EnvFormat, "")
	t.Setenv(EnvLevel, "trace")

	_, err := LoadConfigFromEnv()
	if err == nil {
		t.Fatal("expected invalid LOG_LEVEL error")
	}
}

func TestNewLogger_JSONIncludesStaticAttrs(t *testing.T) {
	var out bytes.Buffer
	logger := NewLogger(DefaultConfig(), &out, "open-grc serve")
	logger.Info("hello")

	line := strings.TrimSpace(out.String())
	if line == "" {
		t.Fatal("expected JSON log line")
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(line), &payload); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if got := payload["app"]; got != "open-grc" {
		t.Fatalf("app = %v, want %q", got, "open-grc")
	}
	if got := payload["command"]; got != "open-grc serve" {
		t.Fatalf("command = %v, want %q", got, "open-grc serve")
	}
}

func TestNewLogger_TextFormatHonorsLevel(t *testing.T) {
	var out bytes.Buffer
	logger := NewLogger(Config{Format: "text", Level: slog.LevelWarn}, &out, "")
	logger.Info("dropped")
	logger.Warn("kept")

	got := out.String()
	if strings.Contains(got, "dropped") {
		t.Fatalf("info line emitted at warn level: %q", got)
	}
	if !strings.Contains(got, "msg=kept") || !strings.Contains(got, "command=open-grc") {
		t.Fatalf("unexpected text output: %q", got)
	}
}

func TestWithComponent(t *testing.T) {
	var out bytes.Buffer
	base := NewLogger(DefaultConfig(), &out, "open-grc worker")

	WithComponent(base, "scheduler").Info("tick")

	var payload map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(out.Bytes()), &payload); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if got := payload["component"]; got != "scheduler" {
		t.Fatalf("component = %v, want %q", got, "scheduler")
	}

	if WithComponent(base, "  ") != base {
		t.Fatal("blank component should return the logger unchanged")
	}
}

func TestLoadConfigFromEnv_Source(t *testing.T) {
	t.Setenv(EnvFormat, "")
	t.Setenv(EnvLevel, "")

	t.Setenv(EnvSource, "true")
	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv() error = %v", err)
	}
	if !cfg.AddSource {
		t.Fatal("AddSource = false, want true")
	}

	t.Setenv(EnvSource, "sometimes")
	if _, err := LoadConfigFromEnv(); err == nil {
		t.Fatal("expected invalid LOG_SOURCE error")
	}
}
