// Package report accumulates the errors of one run.
package report

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Report counts the errors encountered by a run. It is owned by the run
// orchestrator and is not safe for concurrent use.
type Report struct {
	logger *slog.Logger
	errs   []error
	fatal  error
}

// New creates an empty report that logs each error as it is added.
func New(logger *slog.Logger) *Report {
	return &Report{logger: logger}
}

// Add records a non-fatal error. Nil errors are ignored.
func (r *Report) Add(err error) {
	if err == nil {
		return
	}
	r.errs = append(r.errs, err)
	r.logger.Error("run error", "error", err, "count", len(r.errs))
}

// Errorf records a formatted non-fatal error.
func (r *Report) Errorf(format string, args ...any) {
	r.Add(fmt.Errorf(format, args...))
}

// Fatal records err as the error that stopped the run and returns it.
func (r *Report) Fatal(err error) error {
	if err == nil {
		return nil
	}
	r.errs = append(r.errs, err)
	r.fatal = err
	r.logger.Error("run aborted", "error", err, "count", len(r.errs))
	return err
}

// Count returns the number of recorded errors.
func (r *Report) Count() int { return len(r.errs) }

// Failed reports whether any error was recorded.
func (r *Report) Failed() bool { return len(r.errs) > 0 }

// Aborted returns the fatal error, if any.
func (r *Report) Aborted() error { return r.fatal }

// Errors returns the recorded errors in order.
func (r *Report) Errors() []error {
	return append([]error(nil), r.errs...)
}

// Err joins all recorded errors, or returns nil.
func (r *Report) Err() error {
	return errors.Join(r.errs...)
}

// Summary returns the final status line.
func (r *Report) Summary() string {
	if n := len(r.errs); n > 0 {
		return fmt.Sprintf("failed with %d errors", n)
	}
	return "completed with 0 errors"
}

// Finish logs the final status line with the run's elapsed time.
func (r *Report) Finish(elapsed time.Duration) {
	attrs := []any{
		"errors", len(r.errs),
		"elapsed", elapsed.String(),
	}
	if r.Failed() {
		r.logger.Error(r.Summary(), attrs...)
		return
	}
	r.logger.Info(r.Summary(), attrs...)
}
