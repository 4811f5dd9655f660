package domain

import "go.trai.ch/zerr"

var (
	// ErrMissingCredentials is returned when a stage needs remote
	// credentials that were not configured.
	ErrMissingCredentials = zerr.New("missing credentials")

	// ErrMissingAPIKey is returned when the completion service is invoked
	// without an API key.
	ErrMissingAPIKey = zerr.New("missing API key")

	// ErrEmptyContent is returned when a caller tries to cache or generate
	// from empty source text.
	ErrEmptyContent = zerr.New("empty content")

	// ErrRendererUnavailable is returned when a document rendering
	// capability is required but not configured.
	ErrRendererUnavailable = zerr.New("renderer unavailable")

	// ErrUnsupportedFormat is returned for source files the extractor
	// cannot handle.
	ErrUnsupportedFormat = zerr.New("unsupported format")
)
