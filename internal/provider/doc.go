// Package provider maps the active data-source mode to the component that
// answers page-level reads and writes.
//
// Two implementations exist. Mock serves the embedded demo dataset and
// always reports the back office as reachable. Live forwards to the
// back-office HTTP API through an api.Backend and classifies every failure
// into one of three kinds:
//
//   - KindUnavailable: transport errors, timeouts, 5xx, success=false
//   - KindNotFound: 404
//   - KindInvalid: 400, 422 and profile patches rejected by the schema
//
// Live never substitutes demo data when the backend is down. Demo data is
// only chosen for a mode that is not database: settings degrade an unreadable
// persisted mode to mock, and Factory.New maps unknown modes to Mock.
package provider
