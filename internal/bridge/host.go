package bridge

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/brandsnap/internal/model"
)

// Engine runs one extraction pass and delivers its report to b.
type Engine func(ctx context.Context, b Bridge)

// Host starts engines and waits for their reports.
type Host struct {
	pending *Pending
	timeout time.Duration
	logger  *slog.Logger
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithTimeout sets how long Request waits for a delivery.
func WithTimeout(d time.Duration) HostOption {
	return func(h *Host) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) HostOption {
	return func(h *Host) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHost returns a Host with DefaultAnalysisTimeout.
func NewHost(opts ...HostOption) *Host {
	h := &Host{
		pending: NewPending(),
		timeout: DefaultAnalysisTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Request runs engine for analysis id and returns the report it delivers.
// When no report arrives in time the engine is cancelled and
// ErrAnalysisTimeout is returned. Request returns only after engine has
// returned.
func (h *Host) Request(ctx context.Context, id string, engine Engine) (*model.ExtractionReport, error) {
	if err := h.pending.Expect(id); err != nil {
		return nil, err
	}

	engineCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		engine(engineCtx, h.pending.Bridge(id))
	}()

	report, err := h.pending.Await(ctx, id, h.timeout)
	if err != nil {
		h.logger.Warn("analysis did not deliver a report", "id", id, "error", err)
		cancel()
	}
	<-done

	if err != nil {
		return nil, err
	}
	return report, nil
}
