package fetch

import (
	"errors"
	"fmt"
)

var (
	// ErrNotHTML is returned when a response is clearly not an HTML document.
	ErrNotHTML = errors.New("response is not an HTML document")

	// ErrBodyTooLarge is returned when a local file exceeds the body limit.
	ErrBodyTooLarge = errors.New("document exceeds the maximum body size")

	// ErrUnsupportedTarget is returned for targets the loader cannot open.
	ErrUnsupportedTarget = errors.New("unsupported target")
)

// StatusError is returned for HTTP responses with an error status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}
