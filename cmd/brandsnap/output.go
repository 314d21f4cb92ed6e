package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/nao1215/brandsnap/internal/bridge"
	"github.com/nao1215/brandsnap/internal/config"
	"github.com/nao1215/brandsnap/internal/database"
	"github.com/nao1215/brandsnap/internal/model"
	"github.com/nao1215/brandsnap/internal/pipeline"
	"github.com/nao1215/brandsnap/internal/report"
)

// runAnalyze analyzes every target and writes one report per analysis.
// It returns an error when a target is invalid, a resource cannot be
// started, or at least one analysis failed.
func runAnalyze(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout io.Writer) error {
	eng := newEngine(cfg, logger)
	defer eng.close()

	if err := eng.parseTargets(); err != nil {
		return err
	}

	var db *database.AnalysisDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
	}

	out, closeOut, err := openOutput(cfg.ReportFile, stdout)
	if err != nil {
		return err
	}
	defer closeOut()

	if err := eng.start(ctx); err != nil {
		return err
	}

	logger.Info("starting analysis",
		"targets", len(eng.targets),
		"variant", cfg.Variant,
		"browser", cfg.Browser,
		"batch", cfg.BatchSize,
	)

	writer := newReportWriter(cfg, out)
	if cfg.ReportFile != "" && (cfg.JSONReport || cfg.FullJSON || cfg.MarkdownReport) {
		// Keep a terminal summary when the structured report goes to a file.
		writer = report.NewMultiWriter(writer, report.NewSimpleWriter(stdout))
	}
	sink := newReportSink(writer, db, logger)
	host := bridge.NewHost(
		bridge.WithTimeout(cfg.AnalysisTimeout),
		bridge.WithLogger(logger),
	)
	processor := pipeline.NewBatchProcessor(eng.pipelineFor,
		pipeline.WithBatchLogger(logger),
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithHost(host),
	)

	err = processor.ProcessBatchWithCallback(ctx, eng.urls(), func(analysis *model.Analysis, _ int) {
		sink.handle(ctx, analysis)
	})
	if err != nil {
		return fmt.Errorf("analysis interrupted: %w", err)
	}
	return sink.err()
}

// newReportWriter picks the report format. Validate has already rejected
// conflicting format flags.
func newReportWriter(cfg *config.Config, out io.Writer) report.Writer {
	switch {
	case cfg.FullJSON:
		return report.NewFullJSONWriter(out, getVersion(), report.WithPrettyPrint())
	case cfg.JSONReport:
		return report.NewJSONWriter(out, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(out)
	default:
		return report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose))
	}
}

// openOutput returns the report destination. A file is created with owner-only
// permissions since reports can carry authenticated page content.
func openOutput(path string, stdout io.Writer) (io.Writer, func(), error) {
	if path == "" {
		return stdout, func() {}, nil
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil //nolint:errcheck // Best effort cleanup
}

// reportSink serializes report writing and storage across batch workers.
type reportSink struct {
	mu     sync.Mutex
	writer report.Writer
	db     *database.AnalysisDB
	logger *slog.Logger

	total  int
	failed []string
}

func newReportSink(writer report.Writer, db *database.AnalysisDB, logger *slog.Logger) *reportSink {
	return &reportSink{writer: writer, db: db, logger: logger}
}

// handle writes and stores one finished analysis.
func (s *reportSink) handle(ctx context.Context, analysis *model.Analysis) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	if analysis.Failed() {
		s.failed = append(s.failed, analysis.URL)
		s.logger.Warn("analysis failed", "url", analysis.URL, "error", analysis.Error)
	}

	if _, err := s.writer.Write(analysis); err != nil {
		s.logger.Error("failed to write report", "url", analysis.URL, "error", err)
	}

	if s.db == nil {
		return
	}
	// A cancelled run still records what it produced.
	if err := s.db.SaveAnalysis(context.WithoutCancel(ctx), analysis); err != nil {
		s.logger.Warn("failed to save analysis", "url", analysis.URL, "error", err)
		return
	}
	s.logger.Info("analysis saved to database", "id", analysis.ID, "url", analysis.URL)
}

// err summarizes failed analyses.
func (s *reportSink) err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.failed) == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d analyses failed", len(s.failed), s.total)
}
