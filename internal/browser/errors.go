package browser

import "errors"

var (
	// ErrNotStarted is returned when a page is opened before Start.
	ErrNotStarted = errors.New("browser is not started")

	// ErrClosed is returned when a closed page is used.
	ErrClosed = errors.New("page is closed")

	// ErrLocalFile is returned for file targets, which are analyzed statically.
	ErrLocalFile = errors.New("local files are not opened in the browser")
)
