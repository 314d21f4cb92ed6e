package lazyload

import (
	"context"
	"sync"
)

// Viewport is the scrollable window of a rendered page.
type Viewport interface {
	// ScrollHeight returns the total scrollable height of the document.
	ScrollHeight(ctx context.Context) (int, error)
	// ScrollY returns the current vertical scroll offset.
	ScrollY(ctx context.Context) (int, error)
	// ScrollTo moves the vertical scroll offset to y.
	ScrollTo(ctx context.Context, y int) error
}

// StaticViewport is a Viewport over a document whose height never changes,
// such as a page that was parsed without a browser.
type StaticViewport struct {
	mu     sync.Mutex
	height int
	y      int
}

// NewStaticViewport returns a viewport of the given scroll height at offset 0.
func NewStaticViewport(height int) *StaticViewport {
	return &StaticViewport{height: max(height, 0)}
}

// ScrollHeight implements Viewport.
func (v *StaticViewport) ScrollHeight(context.Context) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.height, nil
}

// ScrollY implements Viewport.
func (v *StaticViewport) ScrollY(context.Context) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.y, nil
}

// ScrollTo implements Viewport. The offset is clamped to the document.
func (v *StaticViewport) ScrollTo(_ context.Context, y int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.y = min(max(y, 0), v.height)
	return nil
}
