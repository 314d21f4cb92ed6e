package extract

import (
	"github.com/nao1215/brandsnap/internal/dom"
	"github.com/nao1215/brandsnap/internal/model"
	"github.com/nao1215/brandsnap/internal/urlnorm"
)

// Candidate is an image address discovered by a Source before resolution.
type Candidate struct {
	URL     string
	AltText string
	Width   int
	Height  int
}

// Source is one image discovery strategy. Collect must not modify the
// document.
type Source struct {
	Name    string
	Collect func(doc *dom.Document) []Candidate
}

// DefaultSources returns the image sources in priority order. When two
// sources find the same canonical image the earlier one wins.
func DefaultSources() []Source {
	return []Source{
		{Name: "img", Collect: imgElements},
		{Name: "srcset", Collect: sourceSets},
		{Name: "background", Collect: computedBackgrounds},
		{Name: "poster", Collect: videoPosters},
		{Name: "meta", Collect: previewMeta},
		{Name: "svg", Collect: svgImages},
		{Name: "link", Collect: imageLinks},
		{Name: "inline-style", Collect: inlineStyleBackgrounds},
		{Name: "noscript", Collect: noscriptImages},
		{Name: "script", Collect: scriptPayloads},
		{Name: "json-ld", Collect: linkedData},
	}
}

// Harvester collects a deduplicated, capped list of images.
type Harvester struct {
	sources []Source
	opts    Options
}

// NewHarvester returns a Harvester over sources. With no sources it uses
// DefaultSources.
func NewHarvester(opts Options, sources ...Source) *Harvester {
	if len(sources) == 0 {
		sources = DefaultSources()
	}
	return &Harvester{sources: sources, opts: opts}
}

// Sources returns the names of the configured sources in order.
func (h *Harvester) Sources() []string {
	names := make([]string, 0, len(h.sources))
	for _, s := range h.sources {
		names = append(names, s.Name)
	}
	return names
}

// Harvest runs every source in order and returns the accepted images.
// Collection stops as soon as the cap is reached.
func (h *Harvester) Harvest(doc *dom.Document) []model.ImageAsset {
	images := []model.ImageAsset{}
	if h.opts.ImageCap <= 0 {
		return images
	}
	index := NewDedupIndex()

	for _, src := range h.sources {
		for _, c := range src.Collect(doc) {
			asset, ok := h.accept(doc, index, c)
			if !ok {
				continue
			}
			images = append(images, asset)
			if len(images) >= h.opts.ImageCap {
				return images
			}
		}
	}
	return images
}

func (h *Harvester) accept(doc *dom.Document, index *DedupIndex, c Candidate) (model.ImageAsset, bool) {
	if !urlnorm.IsFetchable(c.URL) {
		return model.ImageAsset{}, false
	}
	resolved := urlnorm.Resolve(doc.Base, c.URL)
	if !urlnorm.IsFetchable(resolved) {
		return model.ImageAsset{}, false
	}
	if h.tooSmall(c) {
		return model.ImageAsset{}, false
	}
	if !index.Insert(urlnorm.CanonicalKey(resolved)) {
		return model.ImageAsset{}, false
	}
	return model.ImageAsset{
		URL:     resolved,
		AltText: c.AltText,
		Width:   max(c.Width, 0),
		Height:  max(c.Height, 0),
	}, true
}

// tooSmall applies the minimum size filter to known dimensions only.
func (h *Harvester) tooSmall(c Candidate) bool {
	minSize := h.opts.MinImageSize
	if minSize <= 0 {
		return false
	}
	return (c.Width > 0 && c.Width < minSize) || (c.Height > 0 && c.Height < minSize)
}
