package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/nao1215/brandsnap/internal/model"
)

// DefaultAnalysisTimeout bounds how long a host waits for a delivery.
const DefaultAnalysisTimeout = 30 * time.Second

// Pending tracks the analyses a host is waiting for.
type Pending struct {
	mu      sync.Mutex
	waiters map[string]chan *model.ExtractionReport
}

// NewPending returns an empty table.
func NewPending() *Pending {
	return &Pending{waiters: make(map[string]chan *model.ExtractionReport)}
}

// Expect registers id so that a later Complete can be awaited.
func (p *Pending) Expect(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.waiters[id]; ok {
		return ErrAlreadyPending
	}
	p.waiters[id] = make(chan *model.ExtractionReport, 1)
	return nil
}

// Complete delivers report to the waiter of id. Only the first delivery
// counts; later ones and unknown IDs yield ErrNoPending.
func (p *Pending) Complete(id string, report *model.ExtractionReport) error {
	if report == nil {
		return ErrNilReport
	}
	p.mu.Lock()
	ch, ok := p.waiters[id]
	if ok {
		delete(p.waiters, id)
	}
	p.mu.Unlock()
	if !ok {
		return ErrNoPending
	}
	ch <- report
	return nil
}

// Bridge returns a Bridge that completes id.
func (p *Pending) Bridge(id string) Bridge {
	return Func(func(_ context.Context, report *model.ExtractionReport) error {
		return p.Complete(id, report)
	})
}

// Await waits for the delivery of id. The registration is dropped when the
// wait ends without a report, so a late delivery gets ErrNoPending.
func (p *Pending) Await(ctx context.Context, id string, timeout time.Duration) (*model.ExtractionReport, error) {
	p.mu.Lock()
	ch, ok := p.waiters[id]
	p.mu.Unlock()
	if !ok {
		return nil, ErrNoPending
	}
	if timeout <= 0 {
		timeout = DefaultAnalysisTimeout
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case report := <-ch:
		return report, nil
	case <-timer.C:
		if report, ok := p.cancel(id, ch); ok {
			return report, nil
		}
		return nil, ErrAnalysisTimeout
	case <-ctx.Done():
		if report, ok := p.cancel(id, ch); ok {
			return report, nil
		}
		return nil, ctx.Err()
	}
}

// cancel drops the registration of id. A report that raced in before the
// registration was dropped is returned.
func (p *Pending) cancel(id string, ch chan *model.ExtractionReport) (*model.ExtractionReport, bool) {
	p.mu.Lock()
	if cur, ok := p.waiters[id]; ok && cur == ch {
		delete(p.waiters, id)
	}
	p.mu.Unlock()
	select {
	case report := <-ch:
		return report, true
	default:
		return nil, false
	}
}

// Len returns the number of analyses still waiting.
func (p *Pending) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.waiters)
}
