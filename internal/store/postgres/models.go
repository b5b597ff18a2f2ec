package postgres

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborline/harbormaster/internal/api"
)

// Dock groups berths.
type Dock struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	Name      string    `gorm:"not null;uniqueIndex"`
	Position  int       `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Berth is one mooring place.
type Berth struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key"`
	DockID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	Dock      *Dock      `gorm:"foreignKey:DockID"`
	Code      string     `gorm:"not null;uniqueIndex"`
	BoatID    *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Boat is a vessel known to the marina.
type Boat struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	Name      string    `gorm:"not null"`
	OwnerName string
	LengthM   float64
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// Contract is a berth rental agreement.
type Contract struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	BoatID    uuid.UUID `gorm:"type:uuid;not null;index"`
	BerthID   uuid.UUID `gorm:"type:uuid;not null;index"`
	StartsOn  time.Time `gorm:"not null;index"`
	EndsOn    time.Time `gorm:"not null;index"`
	Status    string    `gorm:"not null;default:active;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Invoice is a bill raised against a contract.
type Invoice struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key"`
	ContractID uuid.UUID  `gorm:"type:uuid;not null;index"`
	Amount     float64    `gorm:"not null"`
	DueOn      time.Time  `gorm:"not null;index"`
	PaidAt     *time.Time `gorm:"index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// WorkOrder is a maintenance job on a boat.
type WorkOrder struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	BoatID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Description string    `gorm:"not null"`
	Status      string    `gorm:"not null;default:open;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Operation is a queued back-office job surfaced to the console.
type Operation struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	Kind        string    `gorm:"not null"`
	Description string
	Status      string    `gorm:"not null;index"`
	CreatedAt   time.Time `gorm:"index"`
	UpdatedAt   time.Time
}

// Notification is an operator-facing message.
type Notification struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	Level     string    `gorm:"not null"`
	Title     string    `gorm:"not null"`
	Message   string
	Read      bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"index"`
}

// Profile is the single harbour master profile row.
type Profile struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	Name       string    `gorm:"not null"`
	Email      string
	Phone      string
	Role       string
	MarinaName string
	Timezone   string
	UpdatedAt  time.Time
}

func allModels() []any {
	return []any{
		&Dock{}, &Berth{}, &Boat{}, &Contract{}, &Invoice{},
		&WorkOrder{}, &Operation{}, &Notification{}, &Profile{},
	}
}

func (p Profile) toAPI() api.Profile {
	return api.Profile{
		ID:         p.ID.String(),
		Name:       p.Name,
		Email:      p.Email,
		Phone:      p.Phone,
		Role:       p.Role,
		MarinaName: p.MarinaName,
		Timezone:   p.Timezone,
	}
}

func (o Operation) toAPI() api.Operation {
	return api.Operation{
		ID:          o.ID.String(),
		Kind:        o.Kind,
		Description: o.Description,
		Status:      o.Status,
		CreatedAt:   o.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (n Notification) toAPI() api.Notification {
	return api.Notification{
		ID:        n.ID.String(),
		Level:     n.Level,
		Title:     n.Title,
		Message:   n.Message,
		Read:      n.Read,
		CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// profileUpdates lists the columns a patch touches.
func profileUpdates(patch api.ProfilePatch) map[string]any {
	updated := api.ProfilePatch.Apply(patch, api.Profile{})
	out := map[string]any{}
	if patch.Name != nil {
		out["name"] = updated.Name
	}
	if patch.Email != nil {
		out["email"] = updated.Email
	}
	if patch.Phone != nil {
		out["phone"] = updated.Phone
	}
	if patch.Timezone != nil {
		out["timezone"] = updated.Timezone
	}
	return out
}
