package app

import "errors"

var (
	// ErrUsage marks caller mistakes: bad mode combinations or malformed
	// input. HTTP maps it to 400.
	ErrUsage = errors.New("invalid request")

	// ErrUnknownComponent marks a dispatch key outside the catalog.
	ErrUnknownComponent = errors.New("unknown component")

	// ErrUpstreamFetch marks a failed telemetry or asset metadata fetch.
	ErrUpstreamFetch = errors.New("upstream fetch failed")
)
