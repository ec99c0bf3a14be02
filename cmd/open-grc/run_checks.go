package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/open-sspm/open-grc/internal/checkrunner"
	"github.com/open-sspm/open-grc/internal/config"
	"github.com/open-sspm/open-grc/internal/jobs"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	outputAuto = "auto"
	outputJSON = "json"
	outputText = "text"
)

var runChecksOpts struct {
	connectionID   string
	organizationID string
	output         string
}

var runChecksCmd = &cobra.Command{
	Use:   "run-checks",
	Short: "Run every check for one connection and print the result.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChecks(cmd.OutOrStdout())
	},
}

func init() {
	runChecksCmd.Flags().StringVar(&runChecksOpts.connectionID, "connection", "", "connection id (required)")
	runChecksCmd.Flags().StringVar(&runChecksOpts.organizationID, "organization", "", "organization id (required)")
	runChecksCmd.Flags().StringVar(&runChecksOpts.output, "output", outputAuto, "output format: auto, json, text")
}

func runChecks(stdout io.Writer) error {
	connectionID := strings.TrimSpace(runChecksOpts.connectionID)
	organizationID := strings.TrimSpace(runChecksOpts.organizationID)
	if connectionID == "" || organizationID == "" {
		return usageError(errors.New("--connection and --organization are required"))
	}
	format, err := resolveOutputFormat(runChecksOpts.output, isTerminal(stdout))
	if err != nil {
		return usageError(err)
	}

	cfg, err := config.Load()
	if err != nil {
		return usageError(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	runner, err := a.checkRunner()
	if err != nil {
		return err
	}

	res, err := jobs.RunWithRetry(ctx, runner, checkrunner.Request{
		ConnectionID:   connectionID,
		OrganizationID: organizationID,
	}, retryPolicy(cfg), a.logger)
	if err != nil {
		return err
	}

	if err := writeResult(stdout, format, res); err != nil {
		return err
	}
	if !res.Success {
		return &exitError{code: 1, silent: true}
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func resolveOutputFormat(raw string, tty bool) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", outputAuto:
		if tty {
			return outputText, nil
		}
		return outputJSON, nil
	case outputJSON:
		return outputJSON, nil
	case outputText:
		return outputText, nil
	default:
		return "", fmt.Errorf("--output must be one of: auto, json, text")
	}
}

func writeResult(w io.Writer, format string, res checkrunner.Result) error {
	if format == outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	var b strings.Builder
	switch {
	case res.Success && res.Reason != "":
		fmt.Fprintf(&b, "skipped: %s\n", res.Reason)
	case res.Success:
		fmt.Fprintf(&b, "run %s completed\n", res.RunID)
	default:
		fmt.Fprintf(&b, "failed: %s\n", res.Error)
		if res.RunID != "" {
			fmt.Fprintf(&b, "run:      %s\n", res.RunID)
		}
	}
	if res.RunID != "" && res.Success {
		fmt.Fprintf(&b, "findings: %d\n", res.TotalFindings)
		fmt.Fprintf(&b, "passing:  %d\n", res.TotalPassing)
	}
	if len(res.MissingVariables) > 0 {
		fmt.Fprintf(&b, "missing:  %s\n", strings.Join(res.MissingVariables, ", "))
	}
	_, err := io.WriteString(w, b.String())
	return err
}
