// Package config defines service configuration structures and loading hooks.
//
// Conventions follow the rest of the codebase: defaults live in New, Load
// layers file and environment sources on top, and external errors are
// wrapped via this package's sentinels.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address for serve mode, e.g. ":9080".
	Addr string `koanf:"addr"`

	// ModelRoot is the directory holding per-component model artifacts.
	ModelRoot string `koanf:"model_root"`

	// ReferenceYear anchors asset aging calculations.
	ReferenceYear int `koanf:"reference_year"`

	// TimelineHours sets the synthetic forecast horizon.
	TimelineHours int `koanf:"timeline_hours"`

	// FirebaseDatabaseURL addresses the realtime telemetry store.
	FirebaseDatabaseURL string `koanf:"firebase_database_url"`

	// FirebaseCredentialsPath points at a service account JSON file;
	// FirebaseCredentialsJSON carries the credentials inline. Either one
	// is sufficient.
	FirebaseCredentialsPath string `koanf:"firebase_service_account_path"`
	FirebaseCredentialsJSON string `koanf:"firebase_service_account"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:      "info",
		Addr:          ":9080",
		ModelRoot:     "model_files",
		ReferenceYear: 2025,
		TimelineHours: 24,
	}
}
