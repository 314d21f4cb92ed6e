package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/brandsnap/internal/model"
)

// JSONWriter outputs the extraction report in its wire shape.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs only the extraction report of the analysis.
func (w *JSONWriter) Write(analysis *model.Analysis) (int, error) {
	return w.writeJSON(reportOf(analysis))
}

func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')
	return w.output.Write(data)
}

// JSONReport is the analysis together with tool metadata.
type JSONReport struct {
	// Version is the brandsnap version that generated this report.
	Version string `json:"version"`

	// Analysis is the full analysis record including the report.
	Analysis *model.Analysis `json:"analysis"`

	// Summary is a digest of the report for quick access.
	Summary *model.Summary `json:"summary"`
}

// NewJSONReport wraps analysis with version information.
func NewJSONReport(analysis *model.Analysis, version string) *JSONReport {
	return &JSONReport{
		Version:  version,
		Analysis: analysis,
		Summary:  model.NewSummary(analysis.Report),
	}
}

// FullJSONWriter outputs the analysis envelope instead of the bare report.
type FullJSONWriter struct {
	*JSONWriter

	version string
}

// NewFullJSONWriter creates a writer for analyses with metadata.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write outputs the analysis wrapped with metadata.
func (w *FullJSONWriter) Write(analysis *model.Analysis) (int, error) {
	reportOf(analysis)
	return w.writeJSON(NewJSONReport(analysis, w.version))
}
