// Package app holds the composition roots of the console and of harbord.
//
// Run loads the config file (with HARBOR_* environment overrides), opens the
// log file and the persisted settings, builds the provider factory from the
// back-office client and the embedded demo dataset, and starts three things:
//
//   - the monitor.Runner, which probes connectivity and drives sync ticks
//   - an optional Prometheus endpoint when metrics_addr is set
//   - the Bubble Tea console, which blocks until the operator quits
//
// Quitting the console cancels the shared context; Run waits for the runner
// and the metrics server to stop before returning.
//
// Serve is the harbord side: it picks a repository (in-memory demo data, or
// Postgres migrated and seeded on first start) and serves the back-office API.
package app
