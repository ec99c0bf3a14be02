package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/open-sspm/open-grc/internal/logging"
)

func main() {
	if code := runMain(Execute, os.Stderr); code != 0 {
		os.Exit(code)
	}
}

func runMain(execute func() error, stderr io.Writer) int {
	err := execute()
	if err == nil {
		return 0
	}
	exit := classifyError(err)
	if !exit.silent {
		emitCommandError(exit.cause, exit.message, exit.code, stderr)
	}
	return exit.code
}

// emitCommandError reports a failed command: a structured error record for
// long-running commands, one plain line for interactive ones.
func emitCommandError(err error, message string, exitCode int, stderr io.Writer) {
	ctx := currentCommandExecutionContext()
	if ctx.UsesStructuredLog {
		fatalLogger(ctx.CommandPath, stderr).Error(message, "exit_code", exitCode, "error", err)
		return
	}
	if exitCode == exitCodeCanceled {
		fmt.Fprintln(stderr, "canceled")
		return
	}
	fmt.Fprintln(stderr, err)
}

// fatalLogger writes to stderr even when the logging environment is invalid.
func fatalLogger(commandPath string, stderr io.Writer) *slog.Logger {
	cfg, err := logging.LoadConfigFromEnv()
	if err != nil {
		cfg = logging.DefaultConfig()
	}
	return logging.NewLogger(cfg, stderr, commandPath)
}
