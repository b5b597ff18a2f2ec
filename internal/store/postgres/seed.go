package postgres

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harborline/harbormaster/internal/demo"
)

// seedRows is the demo marina expressed as table rows.
type seedRows struct {
	profile       Profile
	docks         []Dock
	berths        []Berth
	boats         []Boat
	contracts     []Contract
	operations    []Operation
	notifications []Notification
}

// batches returns the rows in foreign-key order, skipping empty tables.
func (r seedRows) batches() []any {
	out := []any{&r.profile}
	if len(r.docks) > 0 {
		out = append(out, &r.docks)
	}
	if len(r.boats) > 0 {
		out = append(out, &r.boats)
	}
	if len(r.berths) > 0 {
		out = append(out, &r.berths)
	}
	if len(r.contracts) > 0 {
		out = append(out, &r.contracts)
	}
	if len(r.operations) > 0 {
		out = append(out, &r.operations)
	}
	if len(r.notifications) > 0 {
		out = append(out, &r.notifications)
	}
	return out
}

// buildSeed turns the dataset into rows. Every occupied berth gets a boat
// and an active one-year contract.
func buildSeed(ds *demo.Dataset, now time.Time) (seedRows, error) {
	if ds == nil {
		return seedRows{}, fmt.Errorf("seed: no dataset")
	}
	profileID, err := uuid.Parse(ds.Profile.ID)
	if err != nil {
		return seedRows{}, fmt.Errorf("seed profile id: %w", err)
	}
	rows := seedRows{profile: Profile{
		ID:         profileID,
		Name:       ds.Profile.Name,
		Email:      ds.Profile.Email,
		Phone:      ds.Profile.Phone,
		Role:       ds.Profile.Role,
		MarinaName: ds.Profile.MarinaName,
		Timezone:   ds.Profile.Timezone,
	}}

	start := startOfDay(now).AddDate(0, -6, 0)
	for di, d := range ds.Overview.Docks {
		dock := Dock{ID: uuid.New(), Name: d.Name, Position: di}
		rows.docks = append(rows.docks, dock)
		for bi := 0; bi < d.Berths; bi++ {
			berth := Berth{ID: uuid.New(), DockID: dock.ID, Code: berthCode(di, bi)}
			if bi < d.Occupied {
				boat := Boat{ID: uuid.New(), Name: fmt.Sprintf("Vessel %s", berth.Code)}
				berth.BoatID = &boat.ID
				rows.boats = append(rows.boats, boat)
				rows.contracts = append(rows.contracts, Contract{
					ID:       uuid.New(),
					BoatID:   boat.ID,
					BerthID:  berth.ID,
					StartsOn: start,
					EndsOn:   start.AddDate(1, 0, 0),
					Status:   "active",
				})
			}
			rows.berths = append(rows.berths, berth)
		}
	}

	for _, op := range ds.Operations {
		id, err := uuid.Parse(op.ID)
		if err != nil {
			return seedRows{}, fmt.Errorf("seed operation id %q: %w", op.ID, err)
		}
		created := op.ParsedCreatedAt()
		if created.IsZero() {
			created = now
		}
		rows.operations = append(rows.operations, Operation{
			ID:          id,
			Kind:        op.Kind,
			Description: op.Description,
			Status:      op.Status,
			CreatedAt:   created,
		})
	}
	for _, n := range ds.Notifications {
		id, err := uuid.Parse(n.ID)
		if err != nil {
			return seedRows{}, fmt.Errorf("seed notification id %q: %w", n.ID, err)
		}
		created := n.ParsedCreatedAt()
		if created.IsZero() {
			created = now
		}
		rows.notifications = append(rows.notifications, Notification{
			ID:        id,
			Level:     n.Level,
			Title:     n.Title,
			Message:   n.Message,
			Read:      n.Read,
			CreatedAt: created,
		})
	}
	return rows, nil
}

// berthCode numbers berths per dock: D1-001, D1-002, ...
func berthCode(dock, berth int) string {
	return fmt.Sprintf("D%d-%03d", dock+1, berth+1)
}
