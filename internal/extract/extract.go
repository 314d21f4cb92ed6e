package extract

import (
	"github.com/nao1215/brandsnap/internal/dom"
	"github.com/nao1215/brandsnap/internal/model"
)

// Extract runs every extractor over doc and returns the complete report.
func Extract(doc *dom.Document, opts Options) *model.ExtractionReport {
	report := model.NewExtractionReport()
	if doc == nil || doc.Root == nil {
		return report
	}
	report.Colors, report.Fonts = AggregateStyles(doc)
	report.Images = NewHarvester(opts).Harvest(doc)
	report.TextBlocks = ExtractText(doc, opts)
	report.Metadata = ReadMetadata(doc)
	return report
}
