package provider

import (
	"context"
	"errors"

	"github.com/harborline/harbormaster/internal/api"
	"github.com/harborline/harbormaster/internal/settings"
)

var errNoBackend = errors.New("no back-office backend configured")

// Live reads from the back-office API. It never substitutes demo data:
// when the backend cannot be reached every call fails as unavailable.
type Live struct {
	backend api.Backend
}

var _ Provider = (*Live)(nil)

func NewLive(backend api.Backend) *Live {
	return &Live{backend: backend}
}

func (l *Live) Mode() settings.Mode { return settings.ModeDatabase }

func (l *Live) UserProfile(ctx context.Context) (api.Profile, error) {
	if l.backend == nil {
		return api.Profile{}, &Error{Kind: KindUnavailable, Op: "user profile", Err: errNoBackend}
	}
	p, err := l.backend.FetchProfile(ctx)
	return p, classify("user profile", err)
}

func (l *Live) UpdateUserProfile(ctx context.Context, patch api.ProfilePatch) (api.Profile, error) {
	if err := api.ValidateProfilePatch(patch); err != nil {
		return api.Profile{}, &Error{Kind: KindInvalid, Op: "update user profile", Err: err}
	}
	if l.backend == nil {
		return api.Profile{}, &Error{Kind: KindUnavailable, Op: "update user profile", Err: errNoBackend}
	}
	p, err := l.backend.UpdateProfile(ctx, patch)
	return p, classify("update user profile", err)
}

func (l *Live) DashboardStats(ctx context.Context) (api.DashboardStats, error) {
	if l.backend == nil {
		return api.DashboardStats{}, &Error{Kind: KindUnavailable, Op: "dashboard stats", Err: errNoBackend}
	}
	s, err := l.backend.FetchDashboardStats(ctx)
	return s, classify("dashboard stats", err)
}

func (l *Live) MarinaOverview(ctx context.Context) (api.MarinaOverview, error) {
	if l.backend == nil {
		return api.MarinaOverview{}, &Error{Kind: KindUnavailable, Op: "marina overview", Err: errNoBackend}
	}
	o, err := l.backend.FetchMarinaOverview(ctx)
	return o, classify("marina overview", err)
}

// SyncStatus treats a 2xx answer with isOnline=false as unavailable too, so
// callers only need to look at the error.
func (l *Live) SyncStatus(ctx context.Context) (api.SyncStatus, error) {
	if l.backend == nil {
		return api.SyncStatus{}, &Error{Kind: KindUnavailable, Op: "sync status", Err: errNoBackend}
	}
	s, err := l.backend.FetchStatus(ctx)
	if err != nil {
		return s, classify("sync status", err)
	}
	if !s.IsOnline {
		return s, &Error{Kind: KindUnavailable, Op: "sync status", Err: errors.New("back office reports offline")}
	}
	return s, nil
}

func (l *Live) Operations(ctx context.Context) ([]api.Operation, error) {
	if l.backend == nil {
		return nil, &Error{Kind: KindUnavailable, Op: "operations", Err: errNoBackend}
	}
	ops, err := l.backend.FetchOperations(ctx)
	return ops, classify("operations", err)
}

func (l *Live) Notifications(ctx context.Context) ([]api.Notification, error) {
	if l.backend == nil {
		return nil, &Error{Kind: KindUnavailable, Op: "notifications", Err: errNoBackend}
	}
	notes, err := l.backend.FetchNotifications(ctx)
	return notes, classify("notifications", err)
}
