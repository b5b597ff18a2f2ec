// Package state holds the snapshot shared between the monitor and the
// console UI.
//
// # Overview
//
// The monitor publishes into a Store: every settled probe
// (PublishObservation), the start and end of every sync tick (SetSyncing,
// PublishTick) and every settings change (ApplySettings). The UI reads a
// copy with Snapshot on its own refresh schedule.
//
//	Producer (monitor):               Consumer (UI):
//	┌──────────────────────┐         ┌──────────────────┐
//	│ prober.Probe()       │         │                  │
//	│ PublishObservation() │────────→│ store.Snapshot() │
//	│ orchestrator.Tick()  │ (mutex) │       ↓          │
//	│ PublishTick()        │         │   render view    │
//	└──────────────────────┘         └──────────────────┘
//
// # Restored banner
//
// A probe observation with Restored set arms the banner until now plus the
// notice window (DefaultRestoredNotice unless configured). Any offline
// observation clears it. Snapshot.ShowRestored answers for a given instant
// so the UI can dismiss the banner without another publish.
//
// # Banners
//
// Snapshot.Banner returns the most severe persistent banner:
//
//	BannerSimulated   offline because the simulation switch is on
//	BannerOffline     last probe failed
//	BannerAggregate   every feed of the last tick failed
//	BannerDegraded    some feeds of the last tick fell back to stubs
//
// # Copying
//
// Snapshot clones the tick result, including payload slices, so the UI can
// never mutate stored data. Connectivity snapshots are plain values.
//
// The zero Store is ready to use.
package state
