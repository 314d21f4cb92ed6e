package report

import (
	"io"

	"github.com/nao1215/brandsnap/internal/model"
)

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs the analysis to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(analysis *model.Analysis) (int, error)
}

// MultiWriter writes to multiple Writers in order.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the analysis to all configured Writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(analysis *model.Analysis) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(analysis)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// reportOf returns the analysis report, installing an empty one when the
// analysis has none.
func reportOf(analysis *model.Analysis) *model.ExtractionReport {
	if analysis.Report == nil {
		analysis.Report = model.NewExtractionReport()
	}
	analysis.Report.Normalize()
	return analysis.Report
}

// statusText describes how the pass ended.
func statusText(analysis *model.Analysis) string {
	switch {
	case analysis.Error != "":
		return "Error - " + analysis.Error
	case analysis.LazyLoad.TimedOut:
		return "Complete (lazy loading timed out)"
	default:
		return "Complete"
	}
}

// truncateString truncates a string to maxLen runes with ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
