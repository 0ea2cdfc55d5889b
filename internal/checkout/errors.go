package checkout

import "errors"

var (
	// ErrSubmissionInFlight guards against the double-tap: a second
	// Submit while the first is still processing is rejected.
	ErrSubmissionInFlight = errors.New("order submission already in progress")
	ErrAlreadySubmitted   = errors.New("order already submitted")
	ErrNotSummarized      = errors.New("checkout has not been summarized")
)
