package model

import (
	"time"

	"github.com/google/uuid"
)

// Analysis is the host-side record of one extraction pass.
// It wraps the ExtractionReport with the information needed to store,
// compare and print it.
type Analysis struct {
	// ID uniquely identifies the analysis. It also keys the pending
	// delivery on the host side.
	ID string `json:"id"`

	// URL is the analyzed page address as given by the user.
	URL string `json:"url"`

	// Variant is the extraction configuration that was used.
	Variant Variant `json:"variant"`

	// Mode records whether the page was rendered by a browser.
	Mode Mode `json:"mode"`

	// StartedAt is the time the pass began.
	StartedAt time.Time `json:"started_at"`

	// Duration is the wall time of the whole pass including delivery.
	Duration time.Duration `json:"duration"`

	// LazyLoad reports how the scroll trigger finished.
	LazyLoad LazyLoadStats `json:"lazy_load"`

	// Steps lists the pipeline steps that ran, in order.
	Steps []string `json:"steps"`

	// Error is the first non-fatal problem of the pass, if any.
	// A pass that failed to materialize the page still carries an empty report.
	Error string `json:"error,omitempty"`

	// Report is the extracted brand signature.
	Report *ExtractionReport `json:"report"`
}

// LazyLoadStats summarizes one run of the scroll trigger.
type LazyLoadStats struct {
	Converged   bool `json:"converged"`
	TimedOut    bool `json:"timed_out"`
	Steps       int  `json:"steps"`
	FinalHeight int  `json:"final_height"`
}

// NewAnalysis creates an Analysis with a fresh ID and an empty report.
func NewAnalysis(url string, variant Variant) *Analysis {
	return &Analysis{
		ID:        uuid.NewString(),
		URL:       url,
		Variant:   variant,
		StartedAt: time.Now(),
		Steps:     []string{},
		Report:    NewExtractionReport(),
	}
}

// AddStep records that a pipeline step ran.
func (a *Analysis) AddStep(name string) {
	a.Steps = append(a.Steps, name)
}

// SetError records err as the problem of the pass unless one is already set.
func (a *Analysis) SetError(err error) {
	if err == nil || a.Error != "" {
		return
	}
	a.Error = err.Error()
}

// Failed reports whether the pass recorded a problem.
func (a *Analysis) Failed() bool {
	return a.Error != ""
}
