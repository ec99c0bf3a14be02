package main

import (
	"context"
	"errors"
	"fmt"
)

const (
	exitCodeFailure  = 1
	exitCodeUsage    = 2
	exitCodeCanceled = 130
)

// exitError carries a process exit code through cobra. A silent exitError
// has already reported itself (run-checks prints the failed result).
type exitError struct {
	code   int
	err    error
	silent bool
}

func (e *exitError) Error() string {
	if e == nil {
		return ""
	}
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("exit %d", e.code)
}

func (e *exitError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// usageError marks configuration and flag errors.
func usageError(err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: exitCodeUsage, err: err}
}

type commandExit struct {
	code    int
	message string
	cause   error
	silent  bool
}

func classifyError(err error) commandExit {
	var ee *exitError
	if errors.As(err, &ee) {
		cause := err
		if ee.err != nil {
			cause = ee.err
		}
		return commandExit{code: ee.code, message: "command failed", cause: cause, silent: ee.silent}
	}
	if errors.Is(err, context.Canceled) {
		return commandExit{code: exitCodeCanceled, message: "command canceled", cause: err}
	}
	return commandExit{code: exitCodeFailure, message: "command failed", cause: err}
}
