package exchange

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

type undoStep struct {
	name string
	fn   func(context.Context) error
}

// journal records compensating actions for the effects of one call and
// replays them newest first when the call fails.
type journal struct {
	steps  []undoStep
	logger *zap.Logger
}

func newJournal(logger *zap.Logger) *journal {
	return &journal{logger: logger}
}

func (j *journal) push(name string, fn func(context.Context) error) {
	j.steps = append(j.steps, undoStep{name: name, fn: fn})
}

// unwind runs every step even if an earlier one fails, and returns cause
// joined with any compensation failures.
func (j *journal) unwind(ctx context.Context, cause error) error {
	ctx = context.WithoutCancel(ctx)
	errs := []error{cause}
	for i := len(j.steps) - 1; i >= 0; i-- {
		step := j.steps[i]
		if err := step.fn(ctx); err != nil {
			j.logger.Error("compensation failed", zap.String("step", step.name), zap.Error(err))
			errs = append(errs, &CompensationError{Step: step.name, Err: err})
			continue
		}
		j.logger.Debug("compensated", zap.String("step", step.name))
	}
	j.steps = nil
	if len(errs) == 1 {
		return cause
	}
	return errors.Join(errs...)
}
