package webpage

import "errors"

var (
	// ErrNoURL is returned when there is nothing to fetch.
	ErrNoURL = errors.New("no url")

	// ErrUnavailable is returned when every fetch attempt failed.
	ErrUnavailable = errors.New("webpage unavailable")
)
