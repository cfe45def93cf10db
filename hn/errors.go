package hn

import "errors"

var (
	// ErrEmptyPayload is returned when the API has no data for an item yet.
	ErrEmptyPayload = errors.New("empty payload")

	// ErrUnexpectedStatus is returned for non-200 responses.
	ErrUnexpectedStatus = errors.New("unexpected status")
)
