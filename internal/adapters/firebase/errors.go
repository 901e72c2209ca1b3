package firebase

import "errors"

// Sentinel kinds for upstream data-store errors.
var (
	// ErrNotConfigured means no service account credentials are available.
	// Raised on first use, not pre-validated at startup.
	ErrNotConfigured = errors.New("firebase service account not configured; set FIREBASE_SERVICE_ACCOUNT_PATH or FIREBASE_SERVICE_ACCOUNT")

	// ErrFetch wraps transport or decoding failures from either store.
	ErrFetch = errors.New("upstream fetch failed")
)
