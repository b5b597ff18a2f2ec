// Package connectivity decides whether the back office is reachable.
//
// A Prober starts in StateUnknown and moves to Online or Offline after each
// settled probe. The probe goes through the provider for the current mode,
// so in mock mode the back office is always reachable unless the offline
// simulation switch is on. A probe that fails, times out or runs while the
// simulation is on produces an offline Snapshot; Probe itself never fails.
//
// Observation.Restored is the edge signal for the "connectivity restored"
// notice. It is set on the Offline to Online edge only, never on the first
// Unknown to Online transition and never on repeated online results.
package connectivity
