package state

import (
	"sync"
	"time"

	"github.com/harborline/harbormaster/internal/connectivity"
	"github.com/harborline/harbormaster/internal/settings"
	"github.com/harborline/harbormaster/internal/syncer"
)

// DefaultRestoredNotice is how long the "connectivity restored" banner stays up.
const DefaultRestoredNotice = 5 * time.Second

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Connectivity    connectivity.Snapshot
	HasConnectivity bool
	Tick            *syncer.TickResult

	Mode             settings.Mode
	Forced           settings.ForcedMode
	SimulatedOffline bool
	Frequency        time.Duration
	Theme            string

	// LastSync is when the console's last tick completed, NextSync when
	// the timer fires next.
	LastSync time.Time
	NextSync time.Time

	RestoredUntil time.Time
	Syncing       bool
	SyncTrigger   syncer.Trigger
	LastUpdated   time.Time
}

// IsOffline reports whether the last probe found the back office unreachable.
func (s Snapshot) IsOffline() bool {
	return s.HasConnectivity && s.Connectivity.State == connectivity.StateOffline
}

// Locked reports whether a forced mode pins the data source.
func (s Snapshot) Locked() bool {
	return s.Forced != "" && s.Forced != settings.ForcedNone
}

// ShowRestored reports whether the restored banner is visible at now.
func (s Snapshot) ShowRestored(now time.Time) bool {
	return !s.IsOffline() && now.Before(s.RestoredUntil)
}

// Store coordinates concurrent updates to the snapshot. The zero value is
// ready to use.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
	notice   time.Duration
	now      func() time.Time
}

// NewStore returns a Store whose restored banner lasts notice.
func NewStore(notice time.Duration) *Store {
	return &Store{notice: notice}
}

func (s *Store) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func (s *Store) noticeWindow() time.Duration {
	if s.notice <= 0 {
		return DefaultRestoredNotice
	}
	return s.notice
}

// PublishObservation records a settled probe. The restored banner is armed on
// the Offline to Online edge and cleared when the back office goes offline.
func (s *Store) PublishObservation(obs connectivity.Observation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	s.snapshot.Connectivity = obs.Snapshot
	s.snapshot.HasConnectivity = true
	switch {
	case obs.Restored:
		s.snapshot.RestoredUntil = now.Add(s.noticeWindow())
	case obs.Snapshot.State == connectivity.StateOffline:
		s.snapshot.RestoredUntil = time.Time{}
	}
	s.snapshot.LastUpdated = now
}

// SetSyncing marks a tick as in flight.
func (s *Store) SetSyncing(trigger syncer.Trigger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Syncing = true
	s.snapshot.SyncTrigger = trigger
}

// PublishTick records a completed tick and clears the syncing flag.
func (s *Store) PublishTick(r syncer.TickResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tick := r.Clone()
	s.snapshot.Tick = &tick
	s.snapshot.Syncing = false
	s.snapshot.LastSync = r.CompletedAt
	if r.NextSync.After(s.snapshot.NextSync) {
		s.snapshot.NextSync = r.NextSync
	}
	s.snapshot.LastUpdated = s.clock()
}

// PublishSchedule records the sync timer after it is armed.
func (s *Store) PublishSchedule(last, next time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if last.After(s.snapshot.LastSync) {
		s.snapshot.LastSync = last
	}
	s.snapshot.NextSync = next
}

// ApplySettings copies the settings the UI displays.
func (s *Store) ApplySettings(v settings.Values) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Mode = v.Mode
	s.snapshot.Forced = v.Forced
	s.snapshot.SimulatedOffline = v.SimulateOffline
	s.snapshot.Frequency = v.Frequency()
	s.snapshot.Theme = v.Theme
}

// DismissRestored hides the restored banner early.
func (s *Store) DismissRestored() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.RestoredUntil = time.Time{}
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	if s.snapshot.Tick != nil {
		tick := s.snapshot.Tick.Clone()
		snap.Tick = &tick
	}
	return snap
}
