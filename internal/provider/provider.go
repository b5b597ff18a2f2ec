package provider

import (
	"context"

	"github.com/harborline/harbormaster/internal/api"
	"github.com/harborline/harbormaster/internal/demo"
	"github.com/harborline/harbormaster/internal/settings"
)

// Provider is the read/write contract every page-level fetch goes through.
// All methods fail with *Error.
type Provider interface {
	Mode() settings.Mode
	UserProfile(ctx context.Context) (api.Profile, error)
	UpdateUserProfile(ctx context.Context, patch api.ProfilePatch) (api.Profile, error)
	DashboardStats(ctx context.Context) (api.DashboardStats, error)
	MarinaOverview(ctx context.Context) (api.MarinaOverview, error)
	SyncStatus(ctx context.Context) (api.SyncStatus, error)
	Operations(ctx context.Context) ([]api.Operation, error)
	Notifications(ctx context.Context) ([]api.Notification, error)
}

// Factory maps a mode to a Provider. It neither probes nor caches: every
// call to New is independent.
type Factory struct {
	live Provider
	mock Provider
}

// NewFactory builds a Factory over the live backend and the demo dataset.
// A nil backend makes every live call fail as unavailable.
func NewFactory(backend api.Backend, dataset *demo.Dataset) *Factory {
	return &Factory{
		live: NewLive(backend),
		mock: NewMock(dataset),
	}
}

// New returns the provider for mode. Unknown modes get the mock provider.
func (f *Factory) New(mode settings.Mode) Provider {
	if mode == settings.ModeDatabase {
		return f.live
	}
	return f.mock
}
