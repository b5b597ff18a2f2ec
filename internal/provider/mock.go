package provider

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/harborline/harbormaster/internal/api"
	"github.com/harborline/harbormaster/internal/demo"
	"github.com/harborline/harbormaster/internal/settings"
)

// Mock serves the demo dataset. Profile edits are validated and kept in
// memory for the lifetime of the value.
type Mock struct {
	mu      sync.RWMutex
	dataset *demo.Dataset
	now     func() time.Time
}

var _ Provider = (*Mock)(nil)

// NewMock returns a Mock over a private copy of dataset. A nil dataset
// falls back to the embedded one.
func NewMock(dataset *demo.Dataset) *Mock {
	if dataset == nil {
		dataset = demo.MustDefault()
	}
	return &Mock{dataset: dataset.Clone(), now: time.Now}
}

func (m *Mock) Mode() settings.Mode { return settings.ModeMock }

func (m *Mock) UserProfile(ctx context.Context) (api.Profile, error) {
	if err := ctx.Err(); err != nil {
		return api.Profile{}, classify("user profile", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dataset.Profile, nil
}

func (m *Mock) UpdateUserProfile(ctx context.Context, patch api.ProfilePatch) (api.Profile, error) {
	if err := ctx.Err(); err != nil {
		return api.Profile{}, classify("update user profile", err)
	}
	if err := api.ValidateProfilePatch(patch); err != nil {
		return api.Profile{}, &Error{Kind: KindInvalid, Op: "update user profile", Err: err}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dataset.Profile = patch.Apply(m.dataset.Profile)
	return m.dataset.Profile, nil
}

func (m *Mock) DashboardStats(ctx context.Context) (api.DashboardStats, error) {
	if err := ctx.Err(); err != nil {
		return api.DashboardStats{}, classify("dashboard stats", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dataset.Stats, nil
}

func (m *Mock) MarinaOverview(ctx context.Context) (api.MarinaOverview, error) {
	if err := ctx.Err(); err != nil {
		return api.MarinaOverview{}, classify("marina overview", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := m.dataset.Overview
	out.Docks = slices.Clone(out.Docks)
	return out, nil
}

// SyncStatus always reports online; the demo backend cannot go away.
func (m *Mock) SyncStatus(ctx context.Context) (api.SyncStatus, error) {
	if err := ctx.Err(); err != nil {
		return api.SyncStatus{}, classify("sync status", err)
	}
	return api.SyncStatus{
		IsOnline:      true,
		LastCheckedAt: m.now().UTC(),
		Source:        "demo",
	}, nil
}

func (m *Mock) Operations(ctx context.Context) ([]api.Operation, error) {
	if err := ctx.Err(); err != nil {
		return nil, classify("operations", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.dataset.Operations), nil
}

func (m *Mock) Notifications(ctx context.Context) ([]api.Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, classify("notifications", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.dataset.Notifications), nil
}
