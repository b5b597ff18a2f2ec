// Package memory is an in-process store.Repository seeded from a demo
// dataset.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/harborline/harbormaster/internal/api"
	"github.com/harborline/harbormaster/internal/demo"
	"github.com/harborline/harbormaster/internal/store"
)

var _ store.Repository = (*Store)(nil)

// Store keeps the dataset in memory. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	data    *demo.Dataset
	pingErr error
	closed  bool
}

// New returns a Store holding a copy of ds. A nil ds uses the embedded demo
// dataset.
func New(ds *demo.Dataset) *Store {
	if ds == nil {
		ds = demo.MustDefault()
	}
	return &Store{data: ds.Clone()}
}

// SetPingError makes Ping fail with err, simulating a database outage.
// Passing nil restores it.
func (s *Store) SetPingError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pingErr = err
}

func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errClosed
	}
	return s.pingErr
}

func (s *Store) Profile(ctx context.Context) (api.Profile, error) {
	if err := ctx.Err(); err != nil {
		return api.Profile{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Profile, nil
}

func (s *Store) UpdateProfile(ctx context.Context, patch api.ProfilePatch) (api.Profile, error) {
	if err := ctx.Err(); err != nil {
		return api.Profile{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Profile = patch.Apply(s.data.Profile)
	return s.data.Profile, nil
}

func (s *Store) DashboardStats(ctx context.Context) (api.DashboardStats, error) {
	if err := ctx.Err(); err != nil {
		return api.DashboardStats{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Stats, nil
}

func (s *Store) MarinaOverview(ctx context.Context) (api.MarinaOverview, error) {
	if err := ctx.Err(); err != nil {
		return api.MarinaOverview{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.data.Overview
	out.Docks = append([]api.DockSummary(nil), out.Docks...)
	return out, nil
}

func (s *Store) Operations(ctx context.Context) ([]api.Operation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]api.Operation, 0, len(s.data.Operations))
	for _, op := range s.data.Operations {
		if store.IsPending(op.Status) {
			out = append(out, op)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ParsedCreatedAt().After(out[j].ParsedCreatedAt())
	})
	return out, nil
}

func (s *Store) Notifications(ctx context.Context) ([]api.Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]api.Notification(nil), s.data.Notifications...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ParsedCreatedAt().After(out[j].ParsedCreatedAt())
	})
	return out, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
