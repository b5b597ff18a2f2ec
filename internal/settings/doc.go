// Package settings is the operator's durable configuration: the data source
// mode, the forced-mode lock, the connection-check frequency, the offline
// simulation switch and the UI theme.
//
// State lives in a Persistence backend (a TOML file in production, memory in
// tests) and every mutation is saved before it is broadcast, so a Store
// opened over the same backend always sees the same values. Consumers that
// need to react to changes Subscribe; they must not hold on to a *Store to
// share state.
//
// While a forced mode is set, Mode always equals the forced mode: SetMode
// with the other value returns a *LockedError and SetForced switches the mode
// itself.
package settings
