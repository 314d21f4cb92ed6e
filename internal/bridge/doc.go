// Package bridge carries a finished ExtractionReport from the extraction
// engine to its host.
//
// The engine side sees a single Bridge: one call with the complete report,
// answered by an acknowledgement or an error. A missing bridge is reported
// with ErrNoBridge and is never fatal, and delivery is never retried.
//
// The host side keeps a Pending table keyed by analysis ID. Host.Request
// starts an engine, waits for its delivery with a timeout and always waits
// for the engine to stop before returning.
package bridge
