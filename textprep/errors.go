package textprep

import "errors"

var (
	// ErrNoContent is returned when there is no raw content to parse.
	ErrNoContent = errors.New("no content")

	// ErrNoText is returned when cleaning leaves no usable text.
	ErrNoText = errors.New("no text after cleaning")
)
