package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/nao1215/brandsnap/internal/bridge"
	"github.com/nao1215/brandsnap/internal/model"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, run *Run) error
	callCount int
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, run *Run) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, run)
	}
	return nil
}

// Name implements Step.Name.
func (m *mockStep) Name() string {
	return m.name
}

func newTestRun() *Run {
	return NewRun(model.NewAnalysis("https://example.com", model.VariantSimple))
}

func TestPipelineNew(t *testing.T) {
	t.Parallel()

	t.Run("creates pipeline with default settings", func(t *testing.T) {
		t.Parallel()

		p := New()

		if p.StepCount() != 0 {
			t.Errorf("expected 0 steps, got %d", p.StepCount())
		}
		if p.Variant() != model.VariantSimple {
			t.Errorf("expected simple variant, got %q", p.Variant())
		}
	})

	t.Run("applies options", func(t *testing.T) {
		t.Parallel()

		p := New(WithContinueOnError(true), WithVariant(model.VariantAdvanced))

		if !p.continueOnError {
			t.Error("expected continueOnError to be true")
		}
		if p.Variant() != model.VariantAdvanced {
			t.Errorf("expected advanced variant, got %q", p.Variant())
		}
	})

	t.Run("ignores invalid variant", func(t *testing.T) {
		t.Parallel()

		p := New(WithVariant(model.VariantUnknown))
		if p.Variant() != model.VariantSimple {
			t.Errorf("expected simple variant, got %q", p.Variant())
		}
	})
}

func TestPipelineAddStep(t *testing.T) {
	t.Parallel()

	p := New()
	p.AddStep(&mockStep{name: "first"})
	p.AddSteps(&mockStep{name: "second"}, &mockStep{name: "third"})

	if p.StepCount() != 3 {
		t.Fatalf("expected 3 steps, got %d", p.StepCount())
	}
	expected := []string{"first", "second", "third"}
	for i, name := range p.StepNames() {
		if name != expected[i] {
			t.Errorf("step %d: got %q, expected %q", i, name, expected[i])
		}
	}
}

func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("executes all steps in order", func(t *testing.T) {
		t.Parallel()

		order := make([]string, 0)
		p := New()
		for _, name := range []string{"step-1", "step-2"} {
			p.AddStep(&mockStep{
				name: name,
				doFunc: func(_ context.Context, _ *Run) error {
					order = append(order, name)
					return nil
				},
			})
		}

		run := newTestRun()
		if err := p.Execute(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(order) != 2 || order[0] != "step-1" || order[1] != "step-2" {
			t.Errorf("wrong execution order: %v", order)
		}
		if len(run.Analysis.Steps) != 2 {
			t.Errorf("expected 2 recorded steps, got %v", run.Analysis.Steps)
		}
	})

	t.Run("stops on first error by default", func(t *testing.T) {
		t.Parallel()

		expectedErr := errors.New("step failed")
		second := &mockStep{name: "should-not-run"}

		p := New()
		p.AddStep(&mockStep{
			name:   "failing-step",
			doFunc: func(context.Context, *Run) error { return expectedErr },
		})
		p.AddStep(second)

		run := newTestRun()
		err := p.Execute(context.Background(), run)

		if !errors.Is(err, expectedErr) {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if second.callCount != 0 {
			t.Error("second step should not have been called")
		}
		if run.Analysis.Error != expectedErr.Error() {
			t.Errorf("expected recorded error %q, got %q", expectedErr, run.Analysis.Error)
		}
	})

	t.Run("continues on error when configured", func(t *testing.T) {
		t.Parallel()

		second := &mockStep{name: "should-run"}
		p := New(WithContinueOnError(true))
		p.AddStep(&mockStep{
			name:   "failing-step",
			doFunc: func(context.Context, *Run) error { return errors.New("first") },
		})
		p.AddStep(&mockStep{
			name:   "failing-again",
			doFunc: func(context.Context, *Run) error { return errors.New("second") },
		})
		p.AddStep(second)

		run := newTestRun()
		if err := p.Execute(context.Background(), run); err != nil {
			t.Errorf("expected nil error with continueOnError, got %v", err)
		}
		if second.callCount != 1 {
			t.Error("last step should have been called")
		}
		if run.Analysis.Error != "first" {
			t.Errorf("expected first error to be kept, got %q", run.Analysis.Error)
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		step := &mockStep{name: "should-not-run"}
		p := New()
		p.AddStep(step)

		run := newTestRun()
		err := p.Execute(ctx, run)

		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if step.callCount != 0 {
			t.Error("step should not have been called")
		}
		if !run.Analysis.Failed() {
			t.Error("expected cancellation to be recorded")
		}
	})
}

func TestPipelineAnalyze(t *testing.T) {
	t.Parallel()

	t.Run("applies pipeline variant and closes source", func(t *testing.T) {
		t.Parallel()

		src := newFakeSource(t, `<html><body><p>Hello</p></body></html>`)
		p := New(WithVariant(model.VariantAdvanced))
		p.AddStep(&mockStep{
			name: "attach",
			doFunc: func(_ context.Context, run *Run) error {
				run.Source = src
				return nil
			},
		})

		analysis := model.NewAnalysis("https://example.com", model.VariantUnknown)
		if err := p.Analyze(context.Background(), analysis, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if analysis.Variant != model.VariantAdvanced {
			t.Errorf("expected advanced variant, got %q", analysis.Variant)
		}
		if !src.closed {
			t.Error("expected source to be closed")
		}
		if analysis.Duration <= 0 {
			t.Error("expected duration to be recorded")
		}
	})

	t.Run("passes the bridge to the run", func(t *testing.T) {
		t.Parallel()

		delivered := false
		b := bridge.Func(func(context.Context, *model.ExtractionReport) error {
			delivered = true
			return nil
		})
		p := New()
		p.AddStep(NewDeliverStep(nil))

		analysis := model.NewAnalysis("https://example.com", model.VariantSimple)
		if err := p.Analyze(context.Background(), analysis, b); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !delivered {
			t.Error("expected report to be delivered")
		}
	})
}
