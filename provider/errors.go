package provider

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is not positive.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrNoFeeds is returned when a feed provider is created without any feed URL.
	ErrNoFeeds = errors.New("at least one feed URL required")
)
