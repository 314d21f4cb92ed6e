package report

import (
	"io"
	"strconv"

	"github.com/nao1215/brandsnap/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// Markdown table limits.
const (
	markdownMaxImages     = 50
	markdownMaxTextBlocks = 40
)

// MarkdownWriter outputs analyses in Markdown format.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the analysis in Markdown format.
func (w *MarkdownWriter) Write(analysis *model.Analysis) (int, error) {
	report := reportOf(analysis)
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, analysis, report)
	w.writeSummary(md, report)
	w.writePalette(md, report)
	w.writeFonts(md, report)
	w.writeImages(md, report)
	w.writeText(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, analysis *model.Analysis, report *model.ExtractionReport) {
	md.H1("Brand Snapshot")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"URL", "`" + analysis.URL + "`"},
			{"Title", orDash(report.Metadata.Title)},
			{"Description", orDash(truncateString(report.Metadata.Description, 120))},
			{"Favicon", orDash(report.Metadata.FaviconURL)},
			{"Analysis ID", "`" + analysis.ID + "`"},
			{"Date", analysis.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Variant", analysis.Variant.String()},
			{"Mode", analysis.Mode.String()},
			{"Duration", analysis.Duration.String()},
			{"Status", statusText(analysis)},
		},
	})
	md.PlainText("")

	switch {
	case analysis.Error != "":
		md.Warningf("The pass did not finish cleanly: %s", analysis.Error)
		md.PlainText("")
	case report.IsEmpty():
		md.Note("No brand signal was extracted from this page.")
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.ExtractionReport) {
	summary := model.NewSummary(report)
	if summary.Total() == 0 {
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Extracted Items"),
		piechart.WithShowData(true),
	)
	if summary.ColorCount > 0 {
		chart.LabelAndIntValue("Colors", uint64(summary.ColorCount))
	}
	if summary.FontCount > 0 {
		chart.LabelAndIntValue("Fonts", uint64(summary.FontCount))
	}
	if summary.ImageCount > 0 {
		chart.LabelAndIntValue("Images", uint64(summary.ImageCount))
	}
	if summary.TextBlockCount > 0 {
		chart.LabelAndIntValue("Text blocks", uint64(summary.TextBlockCount))
	}

	md.H2("Summary")
	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writePalette(md *markdown.Markdown, report *model.ExtractionReport) {
	md.H2("Palette")
	md.PlainText("")
	if len(report.Colors) == 0 {
		md.PlainText("No colors found.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.Colors))
	for i, c := range report.Colors {
		rows[i] = []string{strconv.Itoa(i + 1), "`" + HexColor(c) + "`", "`" + c + "`"}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Rank", "Hex", "Computed"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFonts(md *markdown.Markdown, report *model.ExtractionReport) {
	md.H2("Fonts")
	md.PlainText("")
	if len(report.Fonts) == 0 {
		md.PlainText("No fonts found.")
		md.PlainText("")
		return
	}
	md.BulletList(report.Fonts...)
	md.PlainText("")
}

func (w *MarkdownWriter) writeImages(md *markdown.Markdown, report *model.ExtractionReport) {
	md.H2("Images")
	md.PlainText("")
	if len(report.Images) == 0 {
		md.PlainText("No images found.")
		md.PlainText("")
		return
	}

	n := min(len(report.Images), markdownMaxImages)
	rows := make([][]string, n)
	for i, img := range report.Images[:n] {
		rows[i] = []string{
			truncateString(img.URL, 80),
			orDash(truncateString(img.AltText, 40)),
			dimensions(img),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Alt", "Size"},
		Rows:   rows,
	})
	md.PlainText("")
	if n < len(report.Images) {
		md.PlainTextf("*%d more images omitted.*", len(report.Images)-n)
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeText(md *markdown.Markdown, report *model.ExtractionReport) {
	md.H2("Text")
	md.PlainText("")
	if len(report.TextBlocks) == 0 {
		md.PlainText("No text blocks found.")
		md.PlainText("")
		return
	}

	n := min(len(report.TextBlocks), markdownMaxTextBlocks)
	rows := make([][]string, n)
	for i, b := range report.TextBlocks[:n] {
		rows[i] = []string{b.Tag, truncateString(b.Text, 100)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Tag", "Text"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [brandsnap](https://github.com/nao1215/brandsnap)*")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// dimensions formats the image size, using "?" for unknown axes.
func dimensions(img model.ImageAsset) string {
	axis := func(v int) string {
		if v <= 0 {
			return "?"
		}
		return strconv.Itoa(v)
	}
	return axis(img.Width) + "x" + axis(img.Height)
}
