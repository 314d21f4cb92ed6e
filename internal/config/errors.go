package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and LoadConfigFile so
// callers can use errors.Is.
var (
	// ErrNoTarget is returned when no page address or file is specified.
	ErrNoTarget = errors.New("no target specified: provide a URL or an HTML file")

	// ErrInvalidTimeout is returned when the page load timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidAnalysisTimeout is returned when the delivery timeout is not positive.
	ErrInvalidAnalysisTimeout = errors.New("invalid analysis timeout: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidVariant is returned for variant names other than simple and advanced.
	ErrInvalidVariant = errors.New("invalid variant: must be simple or advanced")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidMaxProbes is returned when the probe budget is negative.
	ErrInvalidMaxProbes = errors.New("invalid max probes: must be non-negative")

	// ErrInvalidMaxStylesheets is returned when the style sheet limit is negative.
	ErrInvalidMaxStylesheets = errors.New("invalid max stylesheets: must be non-negative")

	// ErrInvalidLoadGrace is returned when the load grace is negative.
	ErrInvalidLoadGrace = errors.New("invalid load grace: must be non-negative")

	// ErrInvalidBaseURL is returned when --base-url is not an absolute URL.
	ErrInvalidBaseURL = errors.New("invalid base URL: must be an absolute http(s) URL")

	// ErrInvalidLazyLoad is returned for negative scroll timings.
	ErrInvalidLazyLoad = errors.New("invalid lazy-load settings: values must be non-negative")

	// ErrInvalidSitePattern is returned when a site key is not a valid host glob.
	ErrInvalidSitePattern = errors.New("invalid site pattern")

	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)
