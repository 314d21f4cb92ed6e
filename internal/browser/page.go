package browser

import (
	"context"
	_ "embed"
	"fmt"
	"sync"

	"github.com/chromedp/chromedp"
	"github.com/nao1215/brandsnap/internal/dom"
	"github.com/nao1215/brandsnap/internal/model"
)

//go:embed snapshot.js
var snapshotScript string

const (
	scrollHeightScript = `Math.max(document.body ? document.body.scrollHeight : 0, document.documentElement ? document.documentElement.scrollHeight : 0)`
	scrollYScript      = `window.scrollY`
)

// Page is one browser tab.
type Page struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// run executes actions in the tab while honouring ctx.
func (p *Page) run(ctx context.Context, actions ...chromedp.Action) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return ErrClosed
	}

	runCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	if err := ctx.Err(); err != nil {
		return err
	}
	return chromedp.Run(runCtx, actions...)
}

// ScrollHeight implements lazyload.Viewport.
func (p *Page) ScrollHeight(ctx context.Context) (int, error) {
	var h float64
	if err := p.run(ctx, chromedp.Evaluate(scrollHeightScript, &h)); err != nil {
		return 0, err
	}
	return int(h), nil
}

// ScrollY implements lazyload.Viewport.
func (p *Page) ScrollY(ctx context.Context) (int, error) {
	var y float64
	if err := p.run(ctx, chromedp.Evaluate(scrollYScript, &y)); err != nil {
		return 0, err
	}
	return int(y), nil
}

// ScrollTo implements lazyload.Viewport.
func (p *Page) ScrollTo(ctx context.Context, y int) error {
	return p.run(ctx, chromedp.Evaluate(fmt.Sprintf("window.scrollTo(0, %d)", y), nil))
}

// Snapshot serializes the live DOM with computed styles.
func (p *Page) Snapshot(ctx context.Context) (*dom.Document, error) {
	var raw []byte
	if err := p.run(ctx, chromedp.Evaluate(snapshotScript, &raw)); err != nil {
		return nil, fmt.Errorf("failed to serialize page: %w", err)
	}
	return dom.FromSnapshot(raw)
}

// Mode reports ModeBrowser.
func (p *Page) Mode() model.Mode {
	return model.ModeBrowser
}

// Close closes the tab.
func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	p.cancel()
	return nil
}
