package service

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound means no artifact of the requested kind exists yet. Callers
	// treat it as "analysis not yet run", not as a failure.
	ErrNotFound = errors.New("artifact not found")
	// ErrInvalidInput is the kind of every InputError.
	ErrInvalidInput = errors.New("invalid input document")
	// ErrMissingArtifact is reported when all stages succeeded but a required
	// terminal artifact is absent or older than the job.
	ErrMissingArtifact = errors.New("required artifact missing")
)

// InputError reports a source document that cannot be used. No stage has run.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("input document %q: %v", e.Path, e.Err)
}

func (e *InputError) Unwrap() []error { return []error{ErrInvalidInput, e.Err} }

// StageError reports the fatal failure of one pipeline stage. Index is 1-based.
type StageError struct {
	Stage string
	Index int
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %d (%s) failed: %v", e.Index, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// StageTimeoutError reports a stage that exceeded its time budget.
type StageTimeoutError struct {
	Stage   string
	Index   int
	Timeout time.Duration
}

func (e *StageTimeoutError) Error() string {
	return fmt.Sprintf("stage %d (%s) timed out after %s", e.Index, e.Stage, e.Timeout)
}

func (e *StageTimeoutError) Unwrap() error { return context.DeadlineExceeded }

// StoreError reports an I/O failure reading or writing artifacts.
type StoreError struct {
	Op   string
	Path string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("artifact store %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// FailedStage extracts the stage name from a pipeline error, "" if none.
func FailedStage(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	var te *StageTimeoutError
	if errors.As(err, &te) {
		return te.Stage
	}
	return ""
}
