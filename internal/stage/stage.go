// Package stage runs pipeline stages with completion tracking. Each stage
// declares its output artifacts; a finished stage leaves a marker file next to
// its primary output so reruns over the same job directory skip completed work.
package stage

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"dubber/internal/logging"
	"dubber/internal/services"
)

// Func is the work body of a stage.
type Func func(ctx context.Context) error

// Failure identifies the stage that aborted a pipeline run.
type Failure struct {
	Stage string
	Err   error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("stage %s: %v", f.Stage, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Runner executes stages sequentially for one job.
type Runner struct {
	logger *slog.Logger
}

func NewRunner(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{logger: logging.NewComponentLogger(logger, "stage")}
}

// MarkerPath returns the completion marker path for a stage's primary output.
func MarkerPath(output string) string {
	return output + ".done"
}

// Run executes fn unless the stage already completed. A stage counts as
// complete only when its marker and every declared output exist; a marker
// without its outputs is stale and the stage reruns. On success the marker is
// written for the first output. Cancellation is checked before the body runs.
func (r *Runner) Run(ctx context.Context, name string, outputs []string, fn Func) error {
	if len(outputs) == 0 {
		return &Failure{Stage: name, Err: fmt.Errorf("stage declares no outputs")}
	}
	logger := logging.WithContext(ctx, r.logger).With(logging.String(logging.FieldStage, name))

	if complete(outputs) {
		logger.Info("stage already complete, skipping", logging.String("output", outputs[0]))
		return nil
	}
	if err := os.Remove(MarkerPath(outputs[0])); err != nil && !os.IsNotExist(err) {
		return &Failure{Stage: name, Err: fmt.Errorf("remove stale marker: %w", err)}
	}

	if err := ctx.Err(); err != nil {
		return &Failure{Stage: name, Err: err}
	}

	logger.Info("stage starting")
	if err := fn(services.WithStage(ctx, name)); err != nil {
		logger.Error("stage failed", logging.Error(err))
		return &Failure{Stage: name, Err: err}
	}

	for _, output := range outputs {
		if _, err := os.Stat(output); err != nil {
			return &Failure{Stage: name, Err: fmt.Errorf("stage finished without producing %s: %w", output, err)}
		}
	}
	if err := os.WriteFile(MarkerPath(outputs[0]), nil, 0o644); err != nil {
		return &Failure{Stage: name, Err: fmt.Errorf("write completion marker: %w", err)}
	}
	logger.Info("stage complete", logging.String("output", outputs[0]))
	return nil
}

func complete(outputs []string) bool {
	if _, err := os.Stat(MarkerPath(outputs[0])); err != nil {
		return false
	}
	for _, output := range outputs {
		if _, err := os.Stat(output); err != nil {
			return false
		}
	}
	return true
}
