package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestEmitCommandError_StructuredForScopedCommands(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_LEVEL", "info")
	setCommandExecutionContext(commandExecutionContext{
		CommandPath:       "open-grc worker",
		UsesStructuredLog: true,
	})
	t.Cleanup(resetCommandExecutionContext)

	var out bytes.Buffer
	emitCommandError(errors.New("boom"), "command failed", 1, &out)

	line := strings.TrimSpace(out.String())
	if line == "" {
		t.Fatal("expected structured log output")
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(line), &payload); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if got := payload["app"]; got != "open-grc" {
		t.Fatalf("app = %v, want %q", got, "open-grc")
	}
	if got := payload["command"]; got != "open-grc worker" {
		t.Fatalf("command = %v, want %q", got, "open-grc worker")
	}
	if got := payload["exit_code"]; got != float64(1) {
		t.Fatalf("exit_code = %v, want %v", got, 1)
	}
	if got := payload["error"]; got != "boom" {
		t.Fatalf("error = %v, want %q", got, "boom")
	}
}

func TestEmitCommandError_FallsBackToJSONWhenLoggingEnvInvalid(t *testing.T) {
	t.Setenv("LOG_FORMAT", "invalid")
	t.Setenv("LOG_LEVEL", "info")
	setCommandExecutionContext(commandExecutionContext{
		CommandPath:       "open-grc serve",
		UsesStructuredLog: true,
	})
	t.Cleanup(resetCommandExecutionContext)

	var out bytes.Buffer
	emitCommandError(errors.New("boom"), "command failed", 1, &out)

	var payload map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(out.Bytes()), &payload); err != nil {
		t.Fatalf("expected JSON fallback log, got parse error: %v", err)
	}
}

func TestEmitCommandError_PlainOutputForNonScopedCommands(t *testing.T) {
	setCommandExecutionContext(commandExecutionContext{
		CommandPath:       "open-grc run-checks",
		UsesStructuredLog: false,
	})
	t.Cleanup(resetCommandExecutionContext)

	var out bytes.Buffer
	emitCommandError(errors.New("plain boom"), "command failed", 1, &out)
	if got := out.String(); got != "plain boom\n" {
		t.Fatalf("output = %q, want %q", got, "plain boom\n")
	}
}

func TestRunMainExitCodes(t *testing.T) {
	setCommandExecutionContext(commandExecutionContext{CommandPath: "open-grc run-checks"})
	t.Cleanup(resetCommandExecutionContext)

	tests := []struct {
		name    string
		err     error
		want    int
		wantOut string
	}{
		{name: "success", err: nil, want: 0, wantOut: ""},
		{name: "plain error", err: errors.New("nope"), want: 1, wantOut: "nope\n"},
		{name: "canceled", err: fmt.Errorf("run: %w", context.Canceled), want: exitCodeCanceled, wantOut: "canceled\n"},
		{name: "usage", err: usageError(errors.New("bad flag")), want: exitCodeUsage, wantOut: "bad flag\n"},
		{name: "silent", err: &exitError{code: 1, silent: true}, want: 1, wantOut: ""},
	}
	for _, tc := range tests {
		var out bytes.Buffer
		got := runMain(func() error { return tc.err }, &out)
		if got != tc.want {
			t.Fatalf("%s: runMain() = %d, want %d", tc.name, got, tc.want)
		}
		if out.String() != tc.wantOut {
			t.Fatalf("%s: output = %q, want %q", tc.name, out.String(), tc.wantOut)
		}
	}
}
