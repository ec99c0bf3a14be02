package checkrunner

// Result is the outcome of one Run invocation. Retryable is set only for
// transient failures that happened before a run row was created.
type Result struct {
	Success          bool     `json:"success"`
	Reason           string   `json:"reason,omitempty"`
	Error            string   `json:"error,omitempty"`
	RunID            string   `json:"runId,omitempty"`
	TotalFindings    int      `json:"totalFindings"`
	TotalPassing     int      `json:"totalPassing"`
	MissingVariables []string `json:"missingVariables,omitempty"`
	Retryable        bool     `json:"retryable"`
}

func skipped(reason string) Result {
	return Result{Success: true, Reason: reason}
}

func failed(msg string, retryable bool) Result {
	return Result{Success: false, Error: msg, Retryable: retryable}
}

// Outcome labels a result for metrics.
func (r Result) Outcome() string {
	switch {
	case r.Success && r.Reason != "":
		return "skipped"
	case r.Success:
		return "completed"
	case r.RunID != "":
		return "run_failed"
	case r.Retryable:
		return "retryable_error"
	default:
		return "error"
	}
}
