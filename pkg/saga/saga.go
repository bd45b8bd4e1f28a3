package saga

import (
	"context"
	"errors"
	"fmt"
)

// Step is a single saga step: an execute function and an optional
// compensation run when a later step fails.
type Step struct {
	Name       string
	Execute    func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// Saga runs steps in order and compensates completed steps in reverse order
// when one fails.
type Saga struct {
	name  string
	steps []Step
}

// New creates a saga with the given name.
func New(name string) *Saga {
	return &Saga{name: name}
}

// AddStep appends a step.
func (s *Saga) AddStep(step Step) *Saga {
	s.steps = append(s.steps, step)
	return s
}

// Execute runs all steps sequentially. On failure it compensates completed
// steps in reverse order and returns the index of the failed step; on
// success it returns -1 and nil.
func (s *Saga) Execute(ctx context.Context) (failedStep int, err error) {
	for i, step := range s.steps {
		if err := step.Execute(ctx); err != nil {
			if compErr := s.compensate(ctx, i); compErr != nil {
				return i, fmt.Errorf("saga %s: step %q failed (%w), compensation also failed: %v", s.name, step.Name, err, compErr)
			}
			return i, fmt.Errorf("saga %s: step %q failed: %w", s.name, step.Name, err)
		}
	}
	return -1, nil
}

// compensate runs compensations for steps [0, upTo) in reverse order.
func (s *Saga) compensate(ctx context.Context, upTo int) error {
	var errs []error
	for i := upTo - 1; i >= 0; i-- {
		step := s.steps[i]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(ctx); err != nil {
			errs = append(errs, fmt.Errorf("compensate step %q: %w", step.Name, err))
		}
	}
	return errors.Join(errs...)
}
