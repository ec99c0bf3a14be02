package main

import "testing"

func TestRootCommand_RegistersCommands(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"serve", "worker", "migrate", "seed-providers", "run-checks", "sync-employees", "migrate-policies"} {
		if cmd, _, err := rootCmd.Find([]string{name}); err != nil || cmd == nil || cmd.Name() != name {
			t.Fatalf("%s command not registered: cmd=%v err=%v", name, cmd, err)
		}
	}
}

func TestCommandUsesStructuredLogging(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want bool
	}{
		{name: "serve", args: []string{"serve"}, want: true},
		{name: "worker", args: []string{"worker"}, want: true},
		{name: "migrate", args: []string{"migrate"}, want: true},
		{name: "seed-providers", args: []string{"seed-providers"}, want: true},
		{name: "sync-employees", args: []string{"sync-employees"}, want: true},
		{name: "migrate-policies", args: []string{"migrate-policies"}, want: true},
		{name: "run-checks", args: []string{"run-checks"}, want: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cmd, _, err := rootCmd.Find(tc.args)
			if err != nil {
				t.Fatalf("Find(%v) error = %v", tc.args, err)
			}
			if got := commandUsesStructuredLogging(cmd); got != tc.want {
				t.Fatalf("commandUsesStructuredLogging(%q) = %v, want %v", cmd.CommandPath(), got, tc.want)
			}
		})
	}
}
