package main

import (
	"sync"

	"github.com/open-sspm/open-grc/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:               "open-grc",
	Short:             "Open-GRC runs cloud security checks and compliance background jobs.",
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: bootstrapCommand,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(
		serveCmd,
		workerCmd,
		migrateCmd,
		seedProvidersCmd,
		runChecksCmd,
		syncEmployeesCmd,
		migratePoliciesCmd,
	)
}

// structuredLogCommands install the JSON/text slog handler as the default
// logger. Other commands print human output.
var structuredLogCommands = map[string]bool{
	"serve":            true,
	"worker":           true,
	"migrate":          true,
	"seed-providers":   true,
	"sync-employees":   true,
	"migrate-policies": true,
}

func commandUsesStructuredLogging(cmd *cobra.Command) bool {
	return cmd != nil && structuredLogCommands[cmd.Name()]
}

type commandExecutionContext struct {
	CommandPath       string
	UsesStructuredLog bool
}

var (
	executionContextMu sync.RWMutex
	executionContext   commandExecutionContext
)

func setCommandExecutionContext(ctx commandExecutionContext) {
	executionContextMu.Lock()
	defer executionContextMu.Unlock()
	executionContext = ctx
}

func currentCommandExecutionContext() commandExecutionContext {
	executionContextMu.RLock()
	defer executionContextMu.RUnlock()
	return executionContext
}

func resetCommandExecutionContext() {
	setCommandExecutionContext(commandExecutionContext{})
}

func bootstrapCommand(cmd *cobra.Command, _ []string) error {
	ctx := commandExecutionContext{
		CommandPath:       cmd.CommandPath(),
		UsesStructuredLog: commandUsesStructuredLogging(cmd),
	}
	setCommandExecutionContext(ctx)
	if !ctx.UsesStructuredLog {
		return nil
	}

	if _, err := logging.BootstrapFromEnv(logging.BootstrapOptions{Command: ctx.CommandPath}); err != nil {
		return usageError(err)
	}
	return nil
}
