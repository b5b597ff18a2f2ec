// Package store is the persistence boundary of the back-office server.
//
// Repository is implemented by store/memory (seeded from the demo dataset,
// used by tests and `harbord -demo`) and store/postgres (GORM on
// PostgreSQL). Implementations return api types so handlers never see
// database models.
package store

import (
	"context"
	"errors"

	"github.com/harborline/harbormaster/internal/api"
)

// ErrNotFound is returned when the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Repository is the data the back-office API serves.
type Repository interface {
	// Ping reports whether the backing database answers.
	Ping(ctx context.Context) error

	Profile(ctx context.Context) (api.Profile, error)
	UpdateProfile(ctx context.Context, patch api.ProfilePatch) (api.Profile, error)

	DashboardStats(ctx context.Context) (api.DashboardStats, error)
	MarinaOverview(ctx context.Context) (api.MarinaOverview, error)

	// Operations lists operations that are not done, newest first.
	Operations(ctx context.Context) ([]api.Operation, error)
	// Notifications lists notifications, newest first.
	Notifications(ctx context.Context) ([]api.Notification, error)

	Close() error
}

// IsPending reports whether an operation status still needs attention.
func IsPending(status string) bool {
	switch status {
	case "done", "completed", "cancelled":
		return false
	}
	return true
}
