// Package syncer coordinates the three back-office feeds (status,
// operations, notifications) on a shared timer.
//
// Orchestrator.Tick is guarded by a single-slot cycle handle: a tick that
// starts while another is running returns immediately without calling the
// provider. Inside a tick the feeds are fetched concurrently, each under its
// own timeout, and the result is assembled only after all of them settled.
// A failed feed carries a stub payload with Stub set so the console can show
// degraded data. The tick counts as successful when at least one feed
// succeeded; when all three fail, TickResult.Err holds one AggregateError.
//
// Run drives timer ticks. They are skipped while the connectivity gate
// reports offline; SyncNow and OnReconnect are not. A tick that ran while the
// timer was armed re-arms it from that tick, and OnReconnect skips when a tick
// already started after the outage ended, so a recovery yields one tick.
package syncer
