package api

import (
	"encoding/json"
	"strings"
	"time"
)

const legacyTimestampLayout = "2006-01-02 15:04:05"

// Envelope is the generic response wrapper used by the back-office API.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error,omitempty"`
}

// SyncStatus mirrors the connectivity snapshot returned by /api/sync/status.
type SyncStatus struct {
	IsOnline            bool      `json:"isOnline"`
	LastCheckedAt       time.Time `json:"lastCheckedAt"`
	LastSync            time.Time `json:"lastSync"`
	NextSync            time.Time `json:"nextSync"`
	LatencyMs           int64     `json:"latencyMs"`
	ConsecutiveFailures int       `json:"consecutiveFailures"`
	Source              string    `json:"source,omitempty"`
}

// OperationsResponse mirrors /api/sync/operations.
type OperationsResponse struct {
	Success    bool        `json:"success"`
	Operations []Operation `json:"operations"`
	Error      string      `json:"error,omitempty"`
}

// NotificationsResponse mirrors /api/sync/notifications.
type NotificationsResponse struct {
	Success       bool           `json:"success"`
	Notifications []Notification `json:"notifications"`
	Error         string         `json:"error,omitempty"`
}

// Operation is a pending back-office operation (invoice run, berth move, work order...).
type Operation struct {
	ID          string          `json:"id" yaml:"id"`
	Kind        string          `json:"kind" yaml:"kind"`
	Description string          `json:"description" yaml:"description"`
	Status      string          `json:"status" yaml:"status"`
	CreatedAt   string          `json:"createdAt" yaml:"created_at"`
	Details     json.RawMessage `json:"details,omitempty" yaml:"-"`
}

// ParsedCreatedAt returns the parsed CreatedAt timestamp.
func (o Operation) ParsedCreatedAt() time.Time {
	return parseTime(o.CreatedAt)
}

// Notification is an operator-facing message produced by the back office.
type Notification struct {
	ID        string `json:"id" yaml:"id"`
	Level     string `json:"level" yaml:"level"`
	Title     string `json:"title" yaml:"title"`
	Message   string `json:"message" yaml:"message"`
	Read      bool   `json:"read" yaml:"read"`
	CreatedAt string `json:"createdAt" yaml:"created_at"`
}

// ParsedCreatedAt returns the parsed CreatedAt timestamp.
func (n Notification) ParsedCreatedAt() time.Time {
	return parseTime(n.CreatedAt)
}

// IsUrgent reports whether the notification should be highlighted.
func (n Notification) IsUrgent() bool {
	switch strings.ToLower(strings.TrimSpace(n.Level)) {
	case "error", "critical", "urgent":
		return true
	}
	return false
}

// Profile is the signed-in harbour master's profile.
type Profile struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	Email      string `json:"email" yaml:"email"`
	Phone      string `json:"phone" yaml:"phone"`
	Role       string `json:"role" yaml:"role"`
	MarinaName string `json:"marinaName" yaml:"marina_name"`
	Timezone   string `json:"timezone" yaml:"timezone"`
}

// ProfilePatch is a partial profile update. Nil fields are left untouched.
type ProfilePatch struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Timezone *string `json:"timezone,omitempty"`
}

// Apply returns a copy of p with the patch applied.
func (patch ProfilePatch) Apply(p Profile) Profile {
	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Email != nil {
		p.Email = strings.TrimSpace(*patch.Email)
	}
	if patch.Phone != nil {
		p.Phone = strings.TrimSpace(*patch.Phone)
	}
	if patch.Timezone != nil {
		p.Timezone = strings.TrimSpace(*patch.Timezone)
	}
	return p
}

// DashboardStats aggregates the headline numbers for the dashboard.
type DashboardStats struct {
	ActiveContracts    int     `json:"activeContracts" yaml:"active_contracts"`
	OpenInvoices       int     `json:"openInvoices" yaml:"open_invoices"`
	OverdueInvoices    int     `json:"overdueInvoices" yaml:"overdue_invoices"`
	OutstandingBalance float64 `json:"outstandingBalance" yaml:"outstanding_balance"`
	Boats              int     `json:"boats" yaml:"boats"`
	TotalBerths        int     `json:"totalBerths" yaml:"total_berths"`
	OccupiedBerths     int     `json:"occupiedBerths" yaml:"occupied_berths"`
	OpenWorkOrders     int     `json:"openWorkOrders" yaml:"open_work_orders"`
}

// Occupancy returns the berth occupancy ratio in [0,1].
func (s DashboardStats) Occupancy() float64 {
	if s.TotalBerths <= 0 {
		return 0
	}
	return float64(s.OccupiedBerths) / float64(s.TotalBerths)
}

// MarinaOverview describes the marina layout at a glance.
type MarinaOverview struct {
	Name            string        `json:"name" yaml:"name"`
	Docks           []DockSummary `json:"docks" yaml:"docks"`
	ArrivalsToday   int           `json:"arrivalsToday" yaml:"arrivals_today"`
	DeparturesToday int           `json:"departuresToday" yaml:"departures_today"`
}

// DockSummary reports berth occupancy for one dock.
type DockSummary struct {
	Name     string `json:"name" yaml:"name"`
	Berths   int    `json:"berths" yaml:"berths"`
	Occupied int    `json:"occupied" yaml:"occupied"`
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	if t, err := time.ParseInLocation(legacyTimestampLayout, value, time.Local); err == nil {
		return t
	}
	return time.Time{}
}
