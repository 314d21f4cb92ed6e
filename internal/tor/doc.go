// Package tor routes page loads through the Tor network.
//
// A Client wraps a SOCKS5 proxy, either an external Tor daemon or one
// started in-process by EmbeddedTor (tornago). It provides HTTP clients for
// static loads and the proxy URL handed to the browser. Onion hosts are
// checksum-validated before any connection is attempted.
package tor
