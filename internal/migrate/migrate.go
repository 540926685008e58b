// Package migrate runs idempotent maintenance steps against the GrowNet
// database in a fixed order.
//
// Steps keep no ledger of what already ran. Each one selects only documents
// that still lack the target shape, so re-running a command after a success,
// a crash or an interrupt is always safe.
package migrate

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/giahuy0968/GrowNet-sub001/internal/data"
	"github.com/giahuy0968/GrowNet-sub001/internal/db"
)

// Result is what a step reports after applying.
type Result struct {
	Matched  int64
	Modified int64
	// Skipped counts documents the step deliberately left alone.
	Skipped int64
	// Failed counts per-record failures in steps that isolate records.
	Failed int64
	Detail string
}

func fromCounts(c data.UpdateCounts) Result {
	return Result{Matched: c.Matched, Modified: c.Modified}
}

func (r Result) String() string {
	return fmt.Sprintf("matched=%d modified=%d skipped=%d failed=%d", r.Matched, r.Modified, r.Skipped, r.Failed)
}

// Step is a named, idempotent unit of work.
type Step interface {
	Name() string
	Apply(ctx context.Context, c *db.Client) (Result, error)
}

// StepError reports which step stopped a run.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// StepReport is one completed (or failed) step of a run.
type StepReport struct {
	Name     string
	Result   Result
	Duration time.Duration
	Err      error
}

// Runner executes steps strictly in sequence.
type Runner struct {
	logger *log.Logger
}

// NewRunner returns a Runner logging to logger, or log.Default() when nil.
func NewRunner(logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{logger: logger}
}

// Run applies steps in order and stops at the first failure. Effects of
// steps that already finished stay committed. The returned reports cover
// every step that was started; the error is a *StepError.
func (r *Runner) Run(ctx context.Context, c *db.Client, steps ...Step) ([]StepReport, error) {
	reports := make([]StepReport, 0, len(steps))

	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return reports, &StepError{Step: step.Name(), Err: err}
		}

		r.logger.Printf("[%d/%d] %s", i+1, len(steps), step.Name())

		start := time.Now()
		res, err := step.Apply(ctx, c)
		rep := StepReport{Name: step.Name(), Result: res, Duration: time.Since(start), Err: err}
		reports = append(reports, rep)

		r.logger.Printf("[%d/%d] %s: %s in %s", i+1, len(steps), step.Name(), res, rep.Duration.Round(time.Millisecond))
		if res.Detail != "" {
			r.logger.Printf("[%d/%d] %s: %s", i+1, len(steps), step.Name(), res.Detail)
		}

		if err != nil {
			r.logger.Printf("[%d/%d] %s failed: %v", i+1, len(steps), step.Name(), err)
			return reports, &StepError{Step: step.Name(), Err: err}
		}
	}

	return reports, nil
}
