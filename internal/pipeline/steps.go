package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nao1215/brandsnap/internal/bridge"
	"github.com/nao1215/brandsnap/internal/extract"
	"github.com/nao1215/brandsnap/internal/lazyload"
	"github.com/nao1215/brandsnap/internal/model"
)

// Step names as recorded on the analysis.
const (
	StepLoad     = "load"
	StepLazyLoad = "lazy_load"
	StepSnapshot = "snapshot"
	StepStyles   = "styles"
	StepImages   = "images"
	StepText     = "text"
	StepMetadata = "metadata"
	StepProbe    = "probe"
	StepDeliver  = "deliver"
)

// LoadStep opens the page named by the analysis URL.
type LoadStep struct {
	loader Loader
}

// NewLoadStep creates a LoadStep.
func NewLoadStep(loader Loader) *LoadStep {
	return &LoadStep{loader: loader}
}

// Name returns the step name.
func (s *LoadStep) Name() string {
	return StepLoad
}

// Do loads the page and records its mode.
func (s *LoadStep) Do(ctx context.Context, run *Run) error {
	target, err := model.NewTarget(run.Analysis.URL)
	if err != nil {
		return err
	}
	src, err := s.loader.Load(ctx, target)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", target, err)
	}
	run.Source = src
	run.Analysis.Mode = src.Mode()
	return nil
}

// LazyLoadStep scrolls the page so that deferred content is materialized.
// Scroll failures are logged and never fail the pass.
type LazyLoadStep struct {
	trigger *lazyload.Trigger
	logger  *slog.Logger
}

// LazyLoadStepOption configures a LazyLoadStep.
type LazyLoadStepOption func(*LazyLoadStep)

// WithLazyLoadLogger sets a custom logger for the lazy-load step.
func WithLazyLoadLogger(logger *slog.Logger) LazyLoadStepOption {
	return func(s *LazyLoadStep) {
		s.logger = logger
	}
}

// NewLazyLoadStep creates a LazyLoadStep around trigger.
func NewLazyLoadStep(trigger *lazyload.Trigger, opts ...LazyLoadStepOption) *LazyLoadStep {
	s := &LazyLoadStep{
		trigger: trigger,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *LazyLoadStep) Name() string {
	return StepLazyLoad
}

// Do runs the trigger and records its outcome.
func (s *LazyLoadStep) Do(ctx context.Context, run *Run) error {
	if run.Source == nil {
		return nil
	}

	res, err := s.trigger.Run(ctx, run.Source)
	run.Analysis.LazyLoad = model.LazyLoadStats{
		Converged:   res.Converged,
		TimedOut:    res.TimedOut,
		Steps:       res.Steps,
		FinalHeight: res.FinalHeight,
	}
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Warn("lazy-load trigger failed", "url", run.Analysis.URL, "error", err)
	}
	return nil
}

// SnapshotStep materializes the page into a document.
type SnapshotStep struct{}

// NewSnapshotStep creates a SnapshotStep.
func NewSnapshotStep() *SnapshotStep {
	return &SnapshotStep{}
}

// Name returns the step name.
func (s *SnapshotStep) Name() string {
	return StepSnapshot
}

// Do takes the snapshot. On failure the report stays empty.
func (s *SnapshotStep) Do(ctx context.Context, run *Run) error {
	if run.Source == nil {
		return nil
	}
	doc, err := run.Source.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to snapshot page: %w", err)
	}
	run.Document = doc
	return nil
}

// StyleStep fills colors and fonts.
type StyleStep struct{}

// NewStyleStep creates a StyleStep.
func NewStyleStep() *StyleStep {
	return &StyleStep{}
}

// Name returns the step name.
func (s *StyleStep) Name() string {
	return StepStyles
}

// Do aggregates the computed styles of the document.
func (s *StyleStep) Do(_ context.Context, run *Run) error {
	if run.Document == nil {
		return nil
	}
	report := run.Report()
	report.Colors, report.Fonts = extract.AggregateStyles(run.Document)
	return nil
}

// ImageStep fills the image list.
type ImageStep struct {
	sources []extract.Source
}

// ImageStepOption configures an ImageStep.
type ImageStepOption func(*ImageStep)

// WithImageSources replaces the default discovery strategies.
func WithImageSources(sources ...extract.Source) ImageStepOption {
	return func(s *ImageStep) {
		if len(sources) > 0 {
			s.sources = sources
		}
	}
}

// NewImageStep creates an ImageStep using the default strategies.
func NewImageStep(opts ...ImageStepOption) *ImageStep {
	s := &ImageStep{sources: extract.DefaultSources()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *ImageStep) Name() string {
	return StepImages
}

// Do harvests images with the variant's cap and size filter.
func (s *ImageStep) Do(_ context.Context, run *Run) error {
	if run.Document == nil {
		return nil
	}
	run.Report().Images = extract.NewHarvester(run.Options, s.sources...).Harvest(run.Document)
	return nil
}

// TextStep fills the text blocks.
type TextStep struct{}

// NewTextStep creates a TextStep.
func NewTextStep() *TextStep {
	return &TextStep{}
}

// Name returns the step name.
func (s *TextStep) Name() string {
	return StepText
}

// Do extracts text blocks.
func (s *TextStep) Do(_ context.Context, run *Run) error {
	if run.Document == nil {
		return nil
	}
	run.Report().TextBlocks = extract.ExtractText(run.Document, run.Options)
	return nil
}

// MetadataStep fills title, description and favicon.
type MetadataStep struct{}

// NewMetadataStep creates a MetadataStep.
func NewMetadataStep() *MetadataStep {
	return &MetadataStep{}
}

// Name returns the step name.
func (s *MetadataStep) Name() string {
	return StepMetadata
}

// Do reads the page metadata.
func (s *MetadataStep) Do(_ context.Context, run *Run) error {
	if run.Document == nil {
		return nil
	}
	run.Report().Metadata = extract.ReadMetadata(run.Document)
	return nil
}

// ProbeStep resolves unknown image dimensions by reading image headers.
type ProbeStep struct {
	prober DimensionProber
	logger *slog.Logger
}

// NewProbeStep creates a ProbeStep.
func NewProbeStep(prober DimensionProber, logger *slog.Logger) *ProbeStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProbeStep{prober: prober, logger: logger}
}

// Name returns the step name.
func (s *ProbeStep) Name() string {
	return StepProbe
}

// Do probes the harvested images in place.
func (s *ProbeStep) Do(ctx context.Context, run *Run) error {
	images := run.Report().Images
	if s.prober == nil || len(images) == 0 {
		return nil
	}
	n := s.prober.Fill(ctx, images)
	s.logger.Debug("probed image dimensions", "url", run.Analysis.URL, "resolved", n)
	return nil
}

// DeliverStep hands the report to the bridge. A missing bridge is logged
// and does not fail the pass.
type DeliverStep struct {
	logger *slog.Logger
}

// NewDeliverStep creates a DeliverStep.
func NewDeliverStep(logger *slog.Logger) *DeliverStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeliverStep{logger: logger}
}

// Name returns the step name.
func (s *DeliverStep) Name() string {
	return StepDeliver
}

// Do normalizes and delivers the report.
func (s *DeliverStep) Do(ctx context.Context, run *Run) error {
	report := run.Report()
	report.Normalize()

	err := bridge.Deliver(ctx, run.Bridge, report)
	if errors.Is(err, bridge.ErrNoBridge) {
		s.logger.Warn("report not delivered", "url", run.Analysis.URL, "error", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to deliver report: %w", err)
	}
	return nil
}

// DefaultPipelineConfig holds configuration for the default pipeline.
type DefaultPipelineConfig struct {
	// LazyLoad configures the scroll trigger.
	LazyLoad []lazyload.Option

	// SkipLazyLoad drops the scroll trigger, for pages that cannot scroll.
	SkipLazyLoad bool

	// ImageSources replaces the default image discovery strategies.
	ImageSources []extract.Source

	// Prober enables the dimension probe when set.
	Prober DimensionProber
}

// DefaultPipelineOption configures DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineLazyLoad sets the scroll trigger options.
func WithPipelineLazyLoad(opts ...lazyload.Option) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.LazyLoad = append(c.LazyLoad, opts...)
	}
}

// WithPipelineSkipLazyLoad drops the scroll trigger.
func WithPipelineSkipLazyLoad(skip bool) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.SkipLazyLoad = skip
	}
}

// WithPipelineImageSources replaces the image discovery strategies.
func WithPipelineImageSources(sources ...extract.Source) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.ImageSources = sources
	}
}

// WithPipelineProber enables the dimension probe.
func WithPipelineProber(prober DimensionProber) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Prober = prober
	}
}

// DefaultPipeline creates a pipeline with all extraction steps in order.
// Steps after loading never stop the pass, so a report is always delivered.
//
// The first variadic parameter accepts pipeline options (WithLogger, etc).
// The second accepts pipeline config options (WithPipelineProber, etc).
func DefaultPipeline(loader Loader, pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	p := New(append([]Option{WithContinueOnError(true)}, pipelineOpts...)...)

	cfg := &DefaultPipelineConfig{}
	for _, opt := range configOpts {
		opt(cfg)
	}

	p.AddStep(NewLoadStep(loader))
	if !cfg.SkipLazyLoad {
		trigger := lazyload.New(append([]lazyload.Option{lazyload.WithLogger(p.logger)}, cfg.LazyLoad...)...)
		p.AddStep(NewLazyLoadStep(trigger, WithLazyLoadLogger(p.logger)))
	}
	p.AddSteps(
		NewSnapshotStep(),
		NewStyleStep(),
		NewImageStep(WithImageSources(cfg.ImageSources...)),
		NewTextStep(),
		NewMetadataStep(),
	)
	if cfg.Prober != nil {
		p.AddStep(NewProbeStep(cfg.Prober, p.logger))
	}
	p.AddStep(NewDeliverStep(p.logger))

	return p
}
