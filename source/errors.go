package source

import "errors"

var (
	// ErrMaxItemUnavailable is returned when the upstream max id cannot be read.
	ErrMaxItemUnavailable = errors.New("max item unavailable")

	// ErrInvalidInterval is returned when the polling interval is not positive.
	ErrInvalidInterval = errors.New("polling interval must be positive")

	// ErrInvalidConfig is returned for negative start ids or batch caps.
	ErrInvalidConfig = errors.New("invalid source config")

	// ErrClientRequired is returned when no upstream client is supplied.
	ErrClientRequired = errors.New("upstream client required")
)
