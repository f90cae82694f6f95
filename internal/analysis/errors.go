package analysis

import "errors"

var (
	// ErrConfig marks invalid recognizer or analyzer configuration.
	// Fatal at construction time, never a per-request failure.
	ErrConfig = errors.New("invalid configuration")

	// ErrNoUsableRecognizers is returned when every recognizer that
	// applied to a request failed to evaluate.
	ErrNoUsableRecognizers = errors.New("all applicable recognizers failed")

	// ErrInput marks a caller contract violation on a request parameter.
	ErrInput = errors.New("invalid input")
)
