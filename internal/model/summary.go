package model

// summaryTopColors is the number of colors kept in a Summary.
const summaryTopColors = 5

// Summary is a compact digest of an ExtractionReport.
// It is stored next to each analysis so history listings and comparisons
// do not need to decode full reports.
type Summary struct {
	Title          string   `json:"title"`
	ColorCount     int      `json:"color_count"`
	FontCount      int      `json:"font_count"`
	ImageCount     int      `json:"image_count"`
	TextBlockCount int      `json:"text_block_count"`
	TopColors      []string `json:"top_colors"`
	Fonts          []string `json:"fonts"`
}

// NewSummary digests report. A nil report yields an empty summary.
func NewSummary(report *ExtractionReport) *Summary {
	s := &Summary{
		TopColors: []string{},
		Fonts:     []string{},
	}
	if report == nil {
		return s
	}

	s.Title = report.Metadata.Title
	s.ColorCount = len(report.Colors)
	s.FontCount = len(report.Fonts)
	s.ImageCount = len(report.Images)
	s.TextBlockCount = len(report.TextBlocks)

	n := min(len(report.Colors), summaryTopColors)
	s.TopColors = append(s.TopColors, report.Colors[:n]...)
	s.Fonts = append(s.Fonts, report.Fonts...)
	return s
}

// Total returns the number of extracted items of every kind.
func (s *Summary) Total() int {
	return s.ColorCount + s.FontCount + s.ImageCount + s.TextBlockCount
}
