// Package pipeline runs one extraction pass over a page as a sequence of
// steps.
//
// A pass loads the page from a Loader, drives the lazy-load trigger,
// materializes the document, runs the style, image, text and metadata
// extractors, optionally probes image dimensions and finally hands the
// report to the delivery bridge. Every step sees the same Run.
//
// Failures after loading are recorded on the Analysis and the pass goes on,
// so a report is always delivered, possibly empty. BatchProcessor runs many
// passes concurrently with errgroup.
package pipeline
