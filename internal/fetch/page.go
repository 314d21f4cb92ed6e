package fetch

import (
	"context"

	"github.com/nao1215/brandsnap/internal/dom"
	"github.com/nao1215/brandsnap/internal/lazyload"
	"github.com/nao1215/brandsnap/internal/model"
)

// StaticPage is a parsed page with a fixed-height viewport.
type StaticPage struct {
	*lazyload.StaticViewport
	doc *dom.Document
}

// NewStaticPage wraps doc. Without layout the page has no scrollable height.
func NewStaticPage(doc *dom.Document) *StaticPage {
	return &StaticPage{
		StaticViewport: lazyload.NewStaticViewport(0),
		doc:            doc,
	}
}

// Snapshot returns the parsed document.
func (p *StaticPage) Snapshot(ctx context.Context) (*dom.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.doc, nil
}

// Mode reports ModeStatic.
func (p *StaticPage) Mode() model.Mode {
	return model.ModeStatic
}

// Close is a no-op.
func (p *StaticPage) Close() error {
	return nil
}
