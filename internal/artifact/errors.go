package artifact

import "errors"

// Sentinel kinds for artifact errors. Wrapped errors always name the
// offending file path.
var (
	// ErrModelMissing marks a required model file absent on disk. Fatal per
	// component load; never substituted with a default prediction.
	ErrModelMissing = errors.New("model artifact missing")

	// ErrModelIncompatible marks an artifact that loads but embeds an
	// unsupported serialization (e.g. an unknown loss definition) even after
	// the substitution retry.
	ErrModelIncompatible = errors.New("model artifact incompatible")

	// ErrModelMalformed marks an artifact that cannot be decoded at all.
	ErrModelMalformed = errors.New("model artifact malformed")
)
