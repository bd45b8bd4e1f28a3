package saga_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rollingbite/checkout/pkg/saga"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaga_AllStepsSucceed(t *testing.T) {
	var executed []string

	s := saga.New("release").
		AddStep(saga.Step{
			Name:    "capture",
			Execute: func(ctx context.Context) error { executed = append(executed, "capture"); return nil },
		}).
		AddStep(saga.Step{
			Name:    "commit",
			Execute: func(ctx context.Context) error { executed = append(executed, "commit"); return nil },
		})

	failedStep, err := s.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, -1, failedStep)
	assert.Equal(t, []string{"capture", "commit"}, executed)
}

func TestSaga_FailureCompensatesCompletedSteps(t *testing.T) {
	var executed []string

	s := saga.New("release").
		AddStep(saga.Step{
			Name:       "capture",
			Execute:    func(ctx context.Context) error { executed = append(executed, "capture"); return nil },
			Compensate: func(ctx context.Context) error { executed = append(executed, "refund"); return nil },
		}).
		AddStep(saga.Step{
			Name:    "commit",
			Execute: func(ctx context.Context) error { return errors.New("commit failed") },
			Compensate: func(ctx context.Context) error {
				// Must not run: the failing step never completed.
				executed = append(executed, "uncommit")
				return nil
			},
		})

	failedStep, err := s.Execute(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, failedStep)
	assert.Contains(t, err.Error(), "commit failed")
	assert.Equal(t, []string{"capture", "refund"}, executed)
}

func TestSaga_CompensatesInReverseOrder(t *testing.T) {
	var compensated []string

	s := saga.New("multi").
		AddStep(saga.Step{
			Name:       "first",
			Execute:    func(ctx context.Context) error { return nil },
			Compensate: func(ctx context.Context) error { compensated = append(compensated, "first"); return nil },
		}).
		AddStep(saga.Step{
			Name:       "second",
			Execute:    func(ctx context.Context) error { return nil },
			Compensate: func(ctx context.Context) error { compensated = append(compensated, "second"); return nil },
		}).
		AddStep(saga.Step{
			Name:    "third",
			Execute: func(ctx context.Context) error { return errors.New("third failed") },
		})

	failedStep, err := s.Execute(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 2, failedStep)
	assert.Equal(t, []string{"second", "first"}, compensated)
}

func TestSaga_CompensationErrorsCollected(t *testing.T) {
	s := saga.New("multi").
		AddStep(saga.Step{
			Name:       "first",
			Execute:    func(ctx context.Context) error { return nil },
			Compensate: func(ctx context.Context) error { return errors.New("undo first failed") },
		}).
		AddStep(saga.Step{
			Name:       "second",
			Execute:    func(ctx context.Context) error { return nil },
			Compensate: func(ctx context.Context) error { return errors.New("undo second failed") },
		}).
		AddStep(saga.Step{
			Name:    "third",
			Execute: func(ctx context.Context) error { return errors.New("third failed") },
		})

	_, err := s.Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undo first failed")
	assert.Contains(t, err.Error(), "undo second failed")
}

func TestSaga_NoSteps(t *testing.T) {
	failedStep, err := saga.New("empty").Execute(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, -1, failedStep)
}

func TestSaga_NilCompensate(t *testing.T) {
	s := saga.New("partial").
		AddStep(saga.Step{
			Name:    "first",
			Execute: func(ctx context.Context) error { return nil },
		}).
		AddStep(saga.Step{
			Name:    "second",
			Execute: func(ctx context.Context) error { return errors.New("fail") },
		})

	failedStep, err := s.Execute(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, failedStep)
}
