package allowlist

import "errors"

// Error kinds the dispatcher and reconciler recover from locally. None of
// these ever propagate to the configuration-database client: the
// dispatcher always reports an event as handled.
var (
	// ErrInvalidEvent covers a malformed key, missing/empty prefixes, or a
	// prefix that fails family validation.
	ErrInvalidEvent = errors.New("invalid allow-list event")

	// ErrFeatureDisabled names the case where constants disable the
	// allow-list feature entirely. The dispatcher logs and drops such
	// events without returning this error.
	ErrFeatureDisabled = errors.New("allow-list feature disabled")

	// ErrSequenceSpaceExhausted is returned when no free route-map
	// sequence number remains in the required band.
	ErrSequenceSpaceExhausted = errors.New("route-map sequence space exhausted")

	// ErrEngineFailure wraps a non-success push or soft-reload against the
	// routing engine.
	ErrEngineFailure = errors.New("routing engine operation failed")
)
