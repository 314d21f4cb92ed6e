package bridge

import (
	"context"

	"github.com/nao1215/brandsnap/internal/model"
)

// Bridge receives the report of one extraction pass.
type Bridge interface {
	Deliver(ctx context.Context, report *model.ExtractionReport) error
}

// Func adapts a function to a Bridge.
type Func func(ctx context.Context, report *model.ExtractionReport) error

// Deliver calls f.
func (f Func) Deliver(ctx context.Context, report *model.ExtractionReport) error {
	return f(ctx, report)
}

// Deliver hands report to b exactly once. A nil bridge yields ErrNoBridge.
func Deliver(ctx context.Context, b Bridge, report *model.ExtractionReport) error {
	if b == nil {
		return ErrNoBridge
	}
	if f, ok := b.(Func); ok && f == nil {
		return ErrNoBridge
	}
	if report == nil {
		return ErrNilReport
	}
	return b.Deliver(ctx, report)
}
