package bridge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nao1215/brandsnap/internal/model"
)

func TestDeliver(t *testing.T) {
	t.Parallel()

	t.Run("nil bridge", func(t *testing.T) {
		t.Parallel()

		err := Deliver(context.Background(), nil, model.NewExtractionReport())
		if !errors.Is(err, ErrNoBridge) {
			t.Errorf("expected ErrNoBridge, got %v", err)
		}
	})

	t.Run("nil func", func(t *testing.T) {
		t.Parallel()

		var f Func
		err := Deliver(context.Background(), f, model.NewExtractionReport())
		if !errors.Is(err, ErrNoBridge) {
			t.Errorf("expected ErrNoBridge, got %v", err)
		}
	})

	t.Run("nil report", func(t *testing.T) {
		t.Parallel()

		b := Func(func(context.Context, *model.ExtractionReport) error { return nil })
		if err := Deliver(context.Background(), b, nil); !errors.Is(err, ErrNilReport) {
			t.Errorf("expected ErrNilReport, got %v", err)
		}
	})

	t.Run("delivers once", func(t *testing.T) {
		t.Parallel()

		calls := 0
		var got *model.ExtractionReport
		b := Func(func(_ context.Context, r *model.ExtractionReport) error {
			calls++
			got = r
			return nil
		})
		report := model.NewExtractionReport()
		report.Metadata.Title = "Example"

		if err := Deliver(context.Background(), b, report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls != 1 {
			t.Errorf("expected 1 call, got %d", calls)
		}
		if got != report {
			t.Error("expected the same report to be delivered")
		}
	})

	t.Run("host error is returned", func(t *testing.T) {
		t.Parallel()

		hostErr := errors.New("rejected")
		b := Func(func(context.Context, *model.ExtractionReport) error { return hostErr })
		if err := Deliver(context.Background(), b, model.NewExtractionReport()); !errors.Is(err, hostErr) {
			t.Errorf("expected host error, got %v", err)
		}
	})
}

func TestPending(t *testing.T) {
	t.Parallel()

	t.Run("complete then await", func(t *testing.T) {
		t.Parallel()

		p := NewPending()
		if err := p.Expect("a"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		report := model.NewExtractionReport()
		if err := p.Complete("a", report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// The registration is consumed by Complete, the report stays buffered.
		if err := p.Complete("a", report); !errors.Is(err, ErrNoPending) {
			t.Errorf("expected ErrNoPending for second delivery, got %v", err)
		}
	})

	t.Run("await receives report", func(t *testing.T) {
		t.Parallel()

		p := NewPending()
		if err := p.Expect("a"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		report := model.NewExtractionReport()
		go func() {
			time.Sleep(10 * time.Millisecond)
			_ = p.Complete("a", report)
		}()

		got, err := p.Await(context.Background(), "a", time.Second)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != report {
			t.Error("expected the delivered report")
		}
		if p.Len() != 0 {
			t.Errorf("expected 0 pending, got %d", p.Len())
		}
	})

	t.Run("duplicate expect", func(t *testing.T) {
		t.Parallel()

		p := NewPending()
		_ = p.Expect("a")
		if err := p.Expect("a"); !errors.Is(err, ErrAlreadyPending) {
			t.Errorf("expected ErrAlreadyPending, got %v", err)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		t.Parallel()

		p := NewPending()
		if err := p.Complete("missing", model.NewExtractionReport()); !errors.Is(err, ErrNoPending) {
			t.Errorf("expected ErrNoPending, got %v", err)
		}
		if _, err := p.Await(context.Background(), "missing", time.Second); !errors.Is(err, ErrNoPending) {
			t.Errorf("expected ErrNoPending, got %v", err)
		}
	})

	t.Run("timeout drops registration", func(t *testing.T) {
		t.Parallel()

		p := NewPending()
		_ = p.Expect("a")
		_, err := p.Await(context.Background(), "a", 20*time.Millisecond)
		if !errors.Is(err, ErrAnalysisTimeout) {
			t.Fatalf("expected ErrAnalysisTimeout, got %v", err)
		}
		if err := p.Complete("a", model.NewExtractionReport()); !errors.Is(err, ErrNoPending) {
			t.Errorf("expected late delivery to get ErrNoPending, got %v", err)
		}
	})

	t.Run("context cancel", func(t *testing.T) {
		t.Parallel()

		p := NewPending()
		_ = p.Expect("a")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := p.Await(ctx, "a", time.Second); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestHostRequest(t *testing.T) {
	t.Parallel()

	t.Run("engine delivers", func(t *testing.T) {
		t.Parallel()

		h := NewHost(WithTimeout(time.Second))
		report := model.NewExtractionReport()
		report.Metadata.Title = "Delivered"

		got, err := h.Request(context.Background(), "id-1", func(ctx context.Context, b Bridge) {
			if err := Deliver(ctx, b, report); err != nil {
				t.Errorf("unexpected deliver error: %v", err)
			}
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Metadata.Title != "Delivered" {
			t.Errorf("expected title Delivered, got %q", got.Metadata.Title)
		}
	})

	t.Run("engine never delivers", func(t *testing.T) {
		t.Parallel()

		h := NewHost(WithTimeout(20 * time.Millisecond))
		stopped := false
		_, err := h.Request(context.Background(), "id-2", func(ctx context.Context, _ Bridge) {
			<-ctx.Done()
			stopped = true
		})
		if !errors.Is(err, ErrAnalysisTimeout) {
			t.Errorf("expected ErrAnalysisTimeout, got %v", err)
		}
		if !stopped {
			t.Error("expected engine to be cancelled before Request returned")
		}
	})
}
