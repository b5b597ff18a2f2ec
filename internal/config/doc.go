// Package config loads the harbormaster configuration file.
//
// # Resolution order
//
//  1. Defaults()
//  2. The TOML file at the given path, or ~/.config/harbormaster/config.toml
//  3. HARBOR_* environment variables (envconfig), e.g. HARBOR_API_BIND
//
// A missing file is not an error. Empty string fields fall back to their
// defaults; durations are Go duration strings ("8s", "1m").
//
// # Fields
//
// Console:
//
//	api_bind          back-office API host:port (127.0.0.1:8087)
//	log_path          console log file; the terminal belongs to the UI
//	log_level         debug | info | warn | error
//	metrics_addr      optional Prometheus listener, empty disables it
//	settings_path     operator settings file (mode, lock, frequency)
//	probe_timeout     connectivity probe timeout (8s)
//	feed_timeout      per-feed sync timeout (8s)
//	offline_interval  minimum probe cadence while offline (10s)
//	restored_notice   how long "connectivity restored" stays up (5s)
//
// Server (harbord):
//
//	listen            HTTP listen address (127.0.0.1:8087)
//	database_dsn      PostgreSQL DSN
//	demo              serve the embedded demo dataset instead of PostgreSQL
//
// Example:
//
//	api_bind = "backoffice.marina.lan:8087"
//	log_level = "debug"
//	offline_interval = "30s"
//
// # Errors
//
// Load fails on unreadable files, TOML syntax errors, malformed durations,
// non-positive durations and malformed environment values. Tilde paths are
// expanded against the user's home directory.
package config
