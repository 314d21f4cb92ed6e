package lazyload

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Default trigger timings.
const (
	DefaultStep     = 400
	DefaultInterval = 100 * time.Millisecond
	DefaultTimeout  = 10 * time.Second
	DefaultSettle   = 500 * time.Millisecond
)

// Result describes how a trigger run finished.
type Result struct {
	// Converged is true when the scroll position reached the scroll height.
	Converged bool
	// TimedOut is true when the hard timeout stopped the run.
	TimedOut bool
	// Steps is the number of scroll increments performed.
	Steps int
	// FinalHeight is the last measured scroll height.
	FinalHeight int
}

// Trigger scrolls a Viewport to force lazy content to load.
type Trigger struct {
	step     int
	interval time.Duration
	timeout  time.Duration
	settle   time.Duration
	logger   *slog.Logger
}

// Option configures a Trigger.
type Option func(*Trigger)

// WithStep sets the scroll increment.
func WithStep(step int) Option {
	return func(t *Trigger) {
		if step > 0 {
			t.step = step
		}
	}
}

// WithInterval sets the delay between increments.
func WithInterval(d time.Duration) Option {
	return func(t *Trigger) {
		if d > 0 {
			t.interval = d
		}
	}
}

// WithTimeout sets the hard bound on scrolling.
func WithTimeout(d time.Duration) Option {
	return func(t *Trigger) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// WithSettle sets the wait after the offset is restored. Zero disables it.
func WithSettle(d time.Duration) Option {
	return func(t *Trigger) {
		if d >= 0 {
			t.settle = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Trigger) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// New returns a Trigger with the default timings.
func New(opts ...Option) *Trigger {
	t := &Trigger{
		step:     DefaultStep,
		interval: DefaultInterval,
		timeout:  DefaultTimeout,
		settle:   DefaultSettle,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Run scrolls vp down until its content stops growing or the timeout fires.
// The original offset is restored before Run returns, whatever the outcome.
// A timeout is reported in the Result, not as an error; errors come only
// from the viewport or from ctx.
func (t *Trigger) Run(ctx context.Context, vp Viewport) (res Result, err error) {
	origin, err := vp.ScrollY(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to read scroll offset: %w", err)
	}

	defer func() {
		// Restoration must happen even when ctx is already cancelled.
		if rerr := vp.ScrollTo(context.WithoutCancel(ctx), origin); rerr != nil && err == nil {
			err = fmt.Errorf("failed to restore scroll offset: %w", rerr)
		}
		if err == nil {
			err = t.wait(ctx, t.settle)
		}
	}()

	deadline := time.NewTimer(t.timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	pos := origin
	for {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		case <-deadline.C:
			res.TimedOut = true
			t.logger.Debug("lazy-load trigger timed out",
				"steps", res.Steps, "height", res.FinalHeight, "timeout", t.timeout)
			return res, nil
		case <-ticker.C:
			pos += t.step
			if err := vp.ScrollTo(ctx, pos); err != nil {
				return res, fmt.Errorf("failed to scroll: %w", err)
			}
			res.Steps++

			height, err := vp.ScrollHeight(ctx)
			if err != nil {
				return res, fmt.Errorf("failed to measure scroll height: %w", err)
			}
			res.FinalHeight = height
			if pos >= height {
				res.Converged = true
				t.logger.Debug("lazy-load trigger converged", "steps", res.Steps, "height", height)
				return res, nil
			}
		}
	}
}

func (t *Trigger) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
