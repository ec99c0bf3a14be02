package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/open-sspm/open-grc/internal/checkrunner"
)

func TestResolveOutputFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		tty     bool
		want    string
		wantErr bool
	}{
		{raw: "auto", tty: true, want: outputText},
		{raw: "", tty: false, want: outputJSON},
		{raw: "JSON", tty: true, want: outputJSON},
		{raw: "text", tty: false, want: outputText},
		{raw: "yaml", wantErr: true},
	}
	for _, tc := range tests {
		got, err := resolveOutputFormat(tc.raw, tc.tty)
		if (err != nil) != tc.wantErr {
			t.Fatalf("resolveOutputFormat(%q) error = %v, wantErr %v", tc.raw, err, tc.wantErr)
		}
		if got != tc.want {
			t.Fatalf("resolveOutputFormat(%q, %v) = %q, want %q", tc.raw, tc.tty, got, tc.want)
		}
	}
}

func TestWriteResultText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		res  checkrunner.Result
		want []string
	}{
		{
			name: "completed",
			res:  checkrunner.Result{Success: true, RunID: "run_1", TotalFindings: 2, TotalPassing: 5},
			want: []string{"run run_1 completed", "findings: 2", "passing:  5"},
		},
		{
			name: "skipped",
			res:  checkrunner.Result{Success: true, Reason: "Missing required variables: region", MissingVariables: []string{"region"}},
			want: []string{"skipped: Missing required variables: region", "missing:  region"},
		},
		{
			name: "failed",
			res:  checkrunner.Result{Error: "boom", RunID: "run_2"},
			want: []string{"failed: boom", "run:      run_2"},
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer
			if err := writeResult(&out, outputText, tc.res); err != nil {
				t.Fatalf("writeResult() error = %v", err)
			}
			for _, line := range tc.want {
				if !strings.Contains(out.String(), line) {
					t.Fatalf("output %q missing %q", out.String(), line)
				}
			}
		})
	}
}

func TestWriteResultJSON(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	if err := writeResult(&out, outputJSON, checkrunner.Result{Success: true, RunID: "run_1", TotalPassing: 3}); err != nil {
		t.Fatalf("writeResult() error = %v", err)
	}
	var got checkrunner.Result
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if got.RunID != "run_1" || got.TotalPassing != 3 || !got.Success {
		t.Fatalf("decoded = %+v", got)
	}
}
