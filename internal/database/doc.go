// Package database provides SQLite-based storage for brandsnap analyses.
//
// Each analysis is stored as one row holding the full analysis as JSON plus
// a small summary, so history listings and comparisons do not need to
// decode whole reports. The database is a single brandsnap.db file in the
// XDG data directory, opened through the CGO-free modernc.org/sqlite driver
// in WAL mode.
package database
