package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/brandsnap/internal/bridge"
	"github.com/nao1215/brandsnap/internal/dom"
	"github.com/nao1215/brandsnap/internal/extract"
	"github.com/nao1215/brandsnap/internal/model"
)

// Step is one stage of an extraction pass.
// Steps run in sequence over one shared Run: the load step fills
// Run.Source, the snapshot step turns it into Run.Document and the
// extraction steps write their part of the report. A step whose input is
// missing because an earlier step failed does nothing and returns nil, so
// a report is always delivered.
type Step interface {
	// Do executes the step against run. A returned error is recorded on
	// the analysis; whether the pass continues depends on the pipeline.
	Do(ctx context.Context, run *Run) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Run is the state shared by the steps of one pass.
// It is owned by a single goroutine; passes of a batch never share a Run.
type Run struct {
	// Analysis is the host-side record; its Report is filled by the steps.
	Analysis *model.Analysis

	// Options are the extraction parameters of the variant.
	Options extract.Options

	// Source is the loaded page. It is nil until LoadStep succeeds.
	Source Source

	// Document is the materialized page. It is nil until SnapshotStep succeeds.
	Document *dom.Document

	// Bridge receives the final report.
	Bridge bridge.Bridge
}

// NewRun creates a Run for analysis with the options of its variant.
func NewRun(analysis *model.Analysis) *Run {
	if analysis.Report == nil {
		analysis.Report = model.NewExtractionReport()
	}
	return &Run{
		Analysis: analysis,
		Options:  extract.OptionsFor(analysis.Variant),
	}
}

// Report returns the report being built.
func (r *Run) Report() *model.ExtractionReport {
	return r.Analysis.Report
}

// Pipeline orchestrates the execution of multiple steps.
// A Pipeline is built per target by the caller (see DefaultPipeline) and
// may be reused for several analyses of the same target.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// continueOnError keeps the pass going after a failed step.
	continueOnError bool

	// variant is applied to analyses that do not name one.
	variant model.Variant
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, slog.Default is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to continue execution
// even when a step fails. Failed steps are logged and the first error is
// recorded on the analysis.
//
// DefaultPipeline enables it: a page that fails to load or to snapshot
// still delivers an empty report, and the analysis carries the error.
// Without it the pass stops at the first failed step.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// WithVariant sets the variant used for analyses without one.
func WithVariant(v model.Variant) Option {
	return func(p *Pipeline) {
		if v.IsValid() {
			p.variant = v
		}
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps:   make([]Step, 0),
		variant: model.VariantSimple,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Variant returns the default variant of the pipeline.
func (p *Pipeline) Variant() model.Variant {
	return p.variant
}

// Execute runs all steps in sequence. Cancellation is checked before each
// step; steps handle their own timeouts.
//
// Returns the first error encountered if continueOnError is false,
// or nil if all steps ran (errors are recorded on the analysis).
func (p *Pipeline) Execute(ctx context.Context, run *Run) error {
	analysis := run.Analysis
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"reason", ctx.Err(),
			)
			analysis.SetError(ctx.Err())
			return ctx.Err()
		default:
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"url", analysis.URL,
		)

		if err := step.Do(ctx, run); err != nil {
			p.logger.Warn("step failed",
				"step", step.Name(),
				"url", analysis.URL,
				"error", err,
			)
			analysis.SetError(err)

			if !p.continueOnError {
				return err
			}
		} else {
			p.logger.Debug("step completed",
				"step", step.Name(),
				"url", analysis.URL,
			)
		}

		analysis.AddStep(step.Name())
	}

	return nil
}

// Analyze runs a complete pass for analysis and delivers the report to b.
// Analyses without a valid variant get the pipeline's default. The loaded
// page is closed before returning and the analysis duration is set, so the
// caller can store the analysis as soon as Analyze returns.
func (p *Pipeline) Analyze(ctx context.Context, analysis *model.Analysis, b bridge.Bridge) error {
	if !analysis.Variant.IsValid() {
		analysis.Variant = p.variant
	}

	run := NewRun(analysis)
	run.Bridge = b

	err := p.Execute(ctx, run)

	if run.Source != nil {
		if cerr := run.Source.Close(); cerr != nil {
			p.logger.Debug("failed to close page", "url", analysis.URL, "error", cerr)
		}
	}
	analysis.Duration = time.Since(analysis.StartedAt)

	return err
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
