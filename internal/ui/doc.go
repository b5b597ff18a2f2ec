// Package ui is the harbormaster operator console, a Bubble Tea program.
//
// The model polls state.Store once per second for the latest connectivity
// observation and sync tick, and subscribes to settings.Store so theme and
// mode changes made elsewhere show up without waiting for the runner.
// Key actions (mode toggle, lock, offline simulation, frequency, reset,
// theme) mutate settings.Store directly; a rejected change, such as a mode
// switch while locked, becomes a footer notice.
//
// Three views share the header, banner and command bar:
//
//   - Dashboard: statistics, marina overview and profile loaded from the
//     provider for the current mode. Each section fails on its own.
//   - Feeds: the outcome of each feed of the last tick, the pending
//     operations and the notifications, with stub data labelled.
//   - Logs: the tail of the console's own log file.
//
// The banner line shows, in order of precedence, the transient
// "connectivity restored" notice, then the persistent state.Banner for the
// snapshot.
package ui
