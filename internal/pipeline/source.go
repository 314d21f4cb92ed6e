package pipeline

import (
	"context"

	"github.com/nao1215/brandsnap/internal/dom"
	"github.com/nao1215/brandsnap/internal/lazyload"
	"github.com/nao1215/brandsnap/internal/model"
)

// Source is a loaded page. It can be scrolled and materialized.
type Source interface {
	lazyload.Viewport

	// Snapshot materializes the current state of the page.
	Snapshot(ctx context.Context) (*dom.Document, error)

	// Mode reports how the page was loaded.
	Mode() model.Mode

	// Close releases the page.
	Close() error
}

// Loader opens pages.
type Loader interface {
	Load(ctx context.Context, target model.Target) (Source, error)
}

// LoaderFunc adapts a function to a Loader.
type LoaderFunc func(ctx context.Context, target model.Target) (Source, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, target model.Target) (Source, error) {
	return f(ctx, target)
}

// DimensionProber fills unknown image dimensions and returns how many it
// resolved.
type DimensionProber interface {
	Fill(ctx context.Context, images []model.ImageAsset) int
}
