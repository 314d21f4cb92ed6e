package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/nao1215/brandsnap/internal/dom"
	"github.com/nao1215/brandsnap/internal/model"
)

const ruleWidth = 70

// SimpleWriter outputs human-readable text reports for terminals.
// Palette entries get a colored swatch when color is enabled.
type SimpleWriter struct {
	baseWriter

	// colored enables ANSI swatches.
	colored bool

	// verbose lists every image and text block instead of a sample.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithColor forces color swatches on or off.
func WithColor(enabled bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.colored = enabled
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
// Color is enabled when output is a terminal and NO_COLOR is unset.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		colored:    isTerminal(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func isTerminal(output io.Writer) bool {
	f, ok := output.(*os.File)
	if !ok || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Write outputs the analysis in human-readable format.
func (w *SimpleWriter) Write(analysis *model.Analysis) (int, error) {
	report := reportOf(analysis)
	var sb strings.Builder

	w.writeHeader(&sb, analysis, report)
	w.writePalette(&sb, report)
	w.writeFonts(&sb, report)
	w.writeImages(&sb, report)
	w.writeText(&sb, report)
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")

	return io.WriteString(w.output, sb.String())
}

func section(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n\n")
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, analysis *model.Analysis, report *model.ExtractionReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("                         BRAND SNAPSHOT\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "URL:         %s\n", analysis.URL)
	fmt.Fprintf(sb, "Title:       %s\n", orDash(report.Metadata.Title))
	if report.Metadata.Description != "" {
		fmt.Fprintf(sb, "Description: %s\n", truncateString(report.Metadata.Description, 100))
	}
	if report.Metadata.FaviconURL != "" {
		fmt.Fprintf(sb, "Favicon:     %s\n", report.Metadata.FaviconURL)
	}
	fmt.Fprintf(sb, "Variant:     %s (%s)\n", analysis.Variant, analysis.Mode)
	fmt.Fprintf(sb, "Date:        %s\n", analysis.StartedAt.Format("2006-01-02 15:04:05 MST"))
	if w.verbose {
		fmt.Fprintf(sb, "Analysis ID: %s\n", analysis.ID)
		fmt.Fprintf(sb, "Duration:    %s\n", analysis.Duration)
		fmt.Fprintf(sb, "Lazy load:   %d steps, height %d\n", analysis.LazyLoad.Steps, analysis.LazyLoad.FinalHeight)
	}
	fmt.Fprintf(sb, "Status:      %s\n\n", statusText(analysis))
}

func (w *SimpleWriter) writePalette(sb *strings.Builder, report *model.ExtractionReport) {
	section(sb, fmt.Sprintf("PALETTE (%d)", len(report.Colors)))
	if len(report.Colors) == 0 {
		sb.WriteString("  No colors found\n\n")
		return
	}
	for i, c := range report.Colors {
		fmt.Fprintf(sb, "  %2d. %s %-9s  %s\n", i+1, w.swatch(c), HexColor(c), c)
	}
	sb.WriteString("\n")
}

// swatch renders a block of the color, or a bracketed placeholder when
// color output is off.
func (w *SimpleWriter) swatch(token string) string {
	if !w.colored {
		return "[ ]"
	}
	c, ok := dom.ParseColor(token)
	if !ok {
		return "[?]"
	}
	bg := color.BgRGB(int(c.R), int(c.G), int(c.B))
	bg.EnableColor()
	return bg.Sprint("   ")
}

func (w *SimpleWriter) writeFonts(sb *strings.Builder, report *model.ExtractionReport) {
	section(sb, fmt.Sprintf("FONTS (%d)", len(report.Fonts)))
	if len(report.Fonts) == 0 {
		sb.WriteString("  No fonts found\n\n")
		return
	}
	for _, f := range report.Fonts {
		fmt.Fprintf(sb, "  [+] %s\n", f)
	}
	sb.WriteString("\n")
}

// simpleSample is how many images and text blocks are listed without -v.
const simpleSample = 10

func (w *SimpleWriter) writeImages(sb *strings.Builder, report *model.ExtractionReport) {
	section(sb, fmt.Sprintf("IMAGES (%d)", len(report.Images)))
	if len(report.Images) == 0 {
		sb.WriteString("  No images found\n\n")
		return
	}
	images := report.Images
	if !w.verbose {
		images = images[:min(len(images), simpleSample)]
	}
	for _, img := range images {
		fmt.Fprintf(sb, "  * %s [%s]\n", img.URL, dimensions(img))
		if img.AltText != "" {
			fmt.Fprintf(sb, "    Alt: %s\n", truncateString(img.AltText, 80))
		}
	}
	if rest := len(report.Images) - len(images); rest > 0 {
		fmt.Fprintf(sb, "  ... and %d more (use -v to list all)\n", rest)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeText(sb *strings.Builder, report *model.ExtractionReport) {
	section(sb, fmt.Sprintf("TEXT (%d)", len(report.TextBlocks)))
	if len(report.TextBlocks) == 0 {
		sb.WriteString("  No text blocks found\n\n")
		return
	}
	blocks := report.TextBlocks
	if !w.verbose {
		blocks = blocks[:min(len(blocks), simpleSample)]
	}
	for _, b := range blocks {
		fmt.Fprintf(sb, "  %-10s %s\n", "<"+strings.ToLower(b.Tag)+">", truncateString(b.Text, 80))
	}
	if rest := len(report.TextBlocks) - len(blocks); rest > 0 {
		fmt.Fprintf(sb, "  ... and %d more (use -v to list all)\n", rest)
	}
	sb.WriteString("\n")
}
