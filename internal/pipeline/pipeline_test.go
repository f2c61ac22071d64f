package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/nao1215/wikienrich/internal/model"
)

// mockStep is a test implementation of the Step interface.
type mockStep struct {
	name   string
	doFunc func(ctx context.Context, run *model.Run) error
}

func (m *mockStep) Name() string {
	return m.name
}

func (m *mockStep) Do(ctx context.Context, run *model.Run) error {
	if m.doFunc != nil {
		return m.doFunc(ctx, run)
	}
	return nil
}

// discardLogger returns a logger that drops everything.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestPipelineNew tests pipeline creation.
func TestPipelineNew(t *testing.T) {
	t.Parallel()

	t.Run("creates empty pipeline", func(t *testing.T) {
		t.Parallel()

		p := New()
		if p.StepCount() != 0 {
			t.Errorf("expected 0 steps, got %d", p.StepCount())
		}
		if p.logger == nil {
			t.Error("expected default logger to be set")
		}
	})

	t.Run("applies options", func(t *testing.T) {
		t.Parallel()

		logger := discardLogger()
		p := New(WithLogger(logger), WithContinueOnError(true))
		if p.logger != logger {
			t.Error("expected custom logger")
		}
		if !p.continueOnError {
			t.Error("expected continueOnError to be true")
		}
	})
}

// TestPipelineAddStep tests adding steps to the pipeline.
func TestPipelineAddStep(t *testing.T) {
	t.Parallel()

	t.Run("adds single step", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddStep(&mockStep{name: "test-step"})

		if p.StepCount() != 1 {
			t.Errorf("expected 1 step, got %d", p.StepCount())
		}
	})

	t.Run("adds multiple steps with AddSteps", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddSteps(
			&mockStep{name: "step-1"},
			&mockStep{name: "step-2"},
			&mockStep{name: "step-3"},
		)

		if p.StepCount() != 3 {
			t.Errorf("expected 3 steps, got %d", p.StepCount())
		}
	})

	t.Run("maintains step order", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddStep(&mockStep{name: "first"})
		p.AddStep(&mockStep{name: "second"})
		p.AddStep(&mockStep{name: "third"})

		names := p.StepNames()
		expected := []string{"first", "second", "third"}
		if len(names) != len(expected) {
			t.Fatalf("expected %d names, got %d", len(expected), len(names))
		}
		for i, name := range names {
			if name != expected[i] {
				t.Errorf("step %d: got %q, expected %q", i, name, expected[i])
			}
		}
	})
}

// TestPipelineExecute tests pipeline execution.
func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("executes all steps in order", func(t *testing.T) {
		t.Parallel()

		executionOrder := make([]string, 0)
		record := func(name string) func(context.Context, *model.Run) error {
			return func(_ context.Context, _ *model.Run) error {
				executionOrder = append(executionOrder, name)
				return nil
			}
		}

		p := New(WithLogger(discardLogger()))
		p.AddStep(&mockStep{name: "step-1", doFunc: record("step-1")})
		p.AddStep(&mockStep{name: "step-2", doFunc: record("step-2")})

		run := model.NewRun()
		if err := p.Execute(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(executionOrder) != 2 {
			t.Fatalf("expected 2 executions, got %d", len(executionOrder))
		}
		if executionOrder[0] != "step-1" || executionOrder[1] != "step-2" {
			t.Errorf("wrong execution order: %v", executionOrder)
		}
		if len(run.PerformedSteps) != 2 {
			t.Errorf("expected 2 performed steps, got %v", run.PerformedSteps)
		}
	})

	t.Run("stops on first error by default", func(t *testing.T) {
		t.Parallel()

		expectedErr := errors.New("step failed")
		step2Called := false

		p := New(WithLogger(discardLogger()))
		p.AddStep(&mockStep{
			name: "failing-step",
			doFunc: func(_ context.Context, _ *model.Run) error {
				return expectedErr
			},
		})
		p.AddStep(&mockStep{
			name: "should-not-run",
			doFunc: func(_ context.Context, _ *model.Run) error {
				step2Called = true
				return nil
			},
		})

		run := model.NewRun()
		err := p.Execute(context.Background(), run)

		if !errors.Is(err, expectedErr) {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if step2Called {
			t.Error("second step should not have been called")
		}
		if !errors.Is(run.Error, expectedErr) {
			t.Errorf("expected run error %v, got %v", expectedErr, run.Error)
		}
		if run.ErrorMessage != "step failed" {
			t.Errorf("expected error message %q, got %q", "step failed", run.ErrorMessage)
		}
		if len(run.PerformedSteps) != 0 {
			t.Errorf("expected no performed steps, got %v", run.PerformedSteps)
		}
	})

	t.Run("continues on error when configured", func(t *testing.T) {
		t.Parallel()

		step2Called := false

		p := New(WithLogger(discardLogger()), WithContinueOnError(true))
		p.AddStep(&mockStep{
			name: "failing-step",
			doFunc: func(_ context.Context, _ *model.Run) error {
				return errors.New("step failed")
			},
		})
		p.AddStep(&mockStep{
			name: "should-run",
			doFunc: func(_ context.Context, _ *model.Run) error {
				step2Called = true
				return nil
			},
		})

		run := model.NewRun()
		if err := p.Execute(context.Background(), run); err != nil {
			t.Errorf("expected nil error, got %v", err)
		}
		if !step2Called {
			t.Error("second step should have been called")
		}
		if run.ErrorMessage == "" {
			t.Error("expected the step error to be recorded")
		}
		if len(run.PerformedSteps) != 2 {
			t.Errorf("expected 2 performed steps, got %v", run.PerformedSteps)
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		step2Called := false

		p := New(WithLogger(discardLogger()))
		p.AddStep(&mockStep{
			name: "cancels",
			doFunc: func(_ context.Context, _ *model.Run) error {
				cancel()
				return nil
			},
		})
		p.AddStep(&mockStep{
			name: "should-not-run",
			doFunc: func(_ context.Context, _ *model.Run) error {
				step2Called = true
				return nil
			},
		})

		run := model.NewRun()
		err := p.Execute(ctx, run)

		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if step2Called {
			t.Error("second step should not have been called")
		}
		if !run.Cancelled {
			t.Error("expected run to be marked cancelled")
		}
	})

	t.Run("empty pipeline succeeds", func(t *testing.T) {
		t.Parallel()

		p := New()
		if err := p.Execute(context.Background(), model.NewRun()); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

// TestMockStep verifies the test double itself.
func TestMockStep(t *testing.T) {
	t.Parallel()

	step := &mockStep{name: "noop"}
	if step.Name() != "noop" {
		t.Errorf("expected name %q, got %q", "noop", step.Name())
	}
	if err := step.Do(context.Background(), model.NewRun()); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
}
