package model

// ExtractionReport is the brand signature of one rendered page.
// Its JSON shape is the contract with the host: field names must not change,
// and empty sequences serialize as [] rather than null.
type ExtractionReport struct {
	// Colors holds at most 20 computed color tokens, most frequent first.
	Colors []string `json:"colors"`

	// Fonts holds every distinct font family name in first-seen order.
	Fonts []string `json:"fonts"`

	// Images holds harvested images, unique by canonical key.
	Images []ImageAsset `json:"images"`

	// TextBlocks holds visible text, unique by exact text.
	TextBlocks []TextBlock `json:"textBlocks"`

	// Metadata holds the page title, description and favicon.
	Metadata Metadata `json:"metadata"`
}

// ImageAsset is one harvested image.
// Width and Height are zero when the dimension is unknown.
type ImageAsset struct {
	URL     string `json:"url"`
	AltText string `json:"altText"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

// HasDimensions reports whether both dimensions are known.
func (a ImageAsset) HasDimensions() bool {
	return a.Width > 0 && a.Height > 0
}

// TextBlock is one piece of visible text and the upper-cased tag that holds it.
type TextBlock struct {
	Tag  string `json:"tag"`
	Text string `json:"text"`
}

// Metadata is the document-level information of a page.
// Missing values are empty strings.
type Metadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	FaviconURL  string `json:"faviconUrl"`
}

// NewExtractionReport returns an empty report whose sequences are non-nil.
func NewExtractionReport() *ExtractionReport {
	return &ExtractionReport{
		Colors:     []string{},
		Fonts:      []string{},
		Images:     []ImageAsset{},
		TextBlocks: []TextBlock{},
	}
}

// Normalize replaces nil sequences with empty ones so the report always
// serializes with [] values. It is safe to call on a nil receiver.
func (r *ExtractionReport) Normalize() {
	if r == nil {
		return
	}
	if r.Colors == nil {
		r.Colors = []string{}
	}
	if r.Fonts == nil {
		r.Fonts = []string{}
	}
	if r.Images == nil {
		r.Images = []ImageAsset{}
	}
	if r.TextBlocks == nil {
		r.TextBlocks = []TextBlock{}
	}
}

// IsEmpty reports whether the report carries no extracted signal at all.
func (r *ExtractionReport) IsEmpty() bool {
	if r == nil {
		return true
	}
	return len(r.Colors) == 0 && len(r.Fonts) == 0 && len(r.Images) == 0 &&
		len(r.TextBlocks) == 0 && r.Metadata == (Metadata{})
}
