// Package model defines the core data structures used throughout brandsnap.
//
// This package contains the following main types:
//   - ExtractionReport: The brand signature of one rendered page (the wire contract)
//   - Analysis: The host-side envelope around one extraction pass
//   - Summary: A compact digest of a report used for history and comparison
//   - Target: A validated page address (web, onion or local file)
//
// Every type is serializable to JSON for report output and database storage.
package model
