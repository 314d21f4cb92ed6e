package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nao1215/brandsnap/internal/bridge"
	"github.com/nao1215/brandsnap/internal/model"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of passes a BatchProcessor runs at once.
const DefaultConcurrency = 4

// BatchProcessor analyzes many pages concurrently.
// Each page gets a fresh pipeline from the factory, and its report travels
// through a bridge.Host so a stuck page is abandoned after the analysis
// timeout instead of blocking the batch.
type BatchProcessor struct {
	// pipelineFactory creates the pipeline for one target.
	pipelineFactory func(target string) *Pipeline

	host *bridge.Host

	// concurrency is the maximum number of concurrent passes.
	concurrency int

	logger *slog.Logger

	results []*model.Analysis
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent passes.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithHost sets the host that awaits report delivery.
func WithHost(h *bridge.Host) BatchOption {
	return func(b *BatchProcessor) {
		if h != nil {
			b.host = h
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(pipelineFactory func(target string) *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     DefaultConcurrency,
		results:         make([]*model.Analysis, 0),
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	if bp.host == nil {
		bp.host = bridge.NewHost(bridge.WithLogger(bp.logger))
	}

	return bp
}

// Analyze runs one pass for target and waits for its report.
// The returned analysis always carries a report; a pass that delivered
// nothing has an empty one and a recorded error.
func (bp *BatchProcessor) Analyze(ctx context.Context, target string) *model.Analysis {
	p := bp.pipelineFactory(target)
	analysis := model.NewAnalysis(target, p.Variant())

	report, err := bp.host.Request(ctx, analysis.ID, func(ctx context.Context, b bridge.Bridge) {
		_ = p.Analyze(ctx, analysis, b) //nolint:errcheck // Error is stored in the analysis
	})
	if err != nil {
		analysis.SetError(err)
		analysis.Report = model.NewExtractionReport()
		analysis.Duration = time.Since(analysis.StartedAt)
		return analysis
	}
	analysis.Report = report
	return analysis
}

// ProcessBatch analyzes targets concurrently.
// Results keep the order of targets and are returned even for failed passes.
// The error return indicates if the batch was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, targets []string) ([]*model.Analysis, error) {
	bp.logger.Info("starting batch processing",
		"total_targets", len(targets),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	bp.results = make([]*model.Analysis, len(targets))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, target := range targets {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("analyzing page",
				"url", target,
				"index", i+1,
				"total", len(targets),
			)

			analysis := bp.Analyze(ctx, target)

			bp.mu.Lock()
			bp.results[i] = analysis
			bp.mu.Unlock()

			if analysis.Failed() {
				bp.logger.Warn("analysis finished with errors",
					"url", target,
					"error", analysis.Error,
				)
				return nil
			}

			bp.logger.Info("analysis completed",
				"url", target,
				"duration", analysis.Duration,
			)
			return nil
		})
	}

	err := g.Wait()

	bp.logger.Info("batch processing complete",
		"total_targets", len(targets),
		"elapsed", time.Since(startTime),
	)

	return bp.results, err
}

// ProcessBatchWithCallback analyzes targets and calls callback for each
// finished pass with the index of its target. The callback runs on the
// worker goroutine and must be safe for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	targets []string,
	callback func(analysis *model.Analysis, index int),
) error {
	bp.logger.Info("starting batch processing with callback",
		"total_targets", len(targets),
		"concurrency", bp.concurrency,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, target := range targets {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			callback(bp.Analyze(ctx, target), i)
			return nil
		})
	}

	return g.Wait()
}
