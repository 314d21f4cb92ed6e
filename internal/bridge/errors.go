package bridge

import "errors"

var (
	// ErrNoBridge is returned when the engine has nowhere to deliver its report.
	ErrNoBridge = errors.New("no invocation bridge available")

	// ErrNoPending is returned when a report arrives for an analysis nobody is waiting for.
	ErrNoPending = errors.New("no pending analysis found")

	// ErrAlreadyPending is returned when the same analysis ID is expected twice.
	ErrAlreadyPending = errors.New("analysis is already pending")

	// ErrAnalysisTimeout is returned when no report arrives within the timeout.
	ErrAnalysisTimeout = errors.New("analysis timed out waiting for report delivery")

	// ErrNilReport is returned when a nil report is delivered.
	ErrNilReport = errors.New("report is nil")
)
