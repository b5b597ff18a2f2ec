// Package postgres implements store.Repository on PostgreSQL with GORM.
//
// Migrate creates the marina tables with AutoMigrate. Seed fills an empty
// database from the demo dataset so a fresh deployment has something to
// show. Dashboard numbers are computed from the tables on every call.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/harborline/harbormaster/internal/api"
	"github.com/harborline/harbormaster/internal/demo"
	"github.com/harborline/harbormaster/internal/store"
)

var _ store.Repository = (*Store)(nil)

const (
	maxOpenConns       = 10
	maxIdleConns       = 5
	connMaxLifetime    = 30 * time.Minute
	notificationsLimit = 100
)

var closedOperationStatuses = []string{"done", "completed", "cancelled"}

// Store is a store.Repository backed by PostgreSQL.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// Open connects to the database at dsn.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	return &Store{db: db, now: time.Now}, nil
}

// Migrate creates missing tables, columns and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(allModels()...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Seed loads ds into an empty database. It does nothing when a profile
// already exists.
func (s *Store) Seed(ctx context.Context, ds *demo.Dataset) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Profile{}).Count(&count).Error; err != nil {
			return fmt.Errorf("count profiles: %w", err)
		}
		if count > 0 {
			return nil
		}
		rows, err := buildSeed(ds, s.now())
		if err != nil {
			return err
		}
		for _, batch := range rows.batches() {
			if err := tx.CreateInBatches(batch, 100).Error; err != nil {
				return fmt.Errorf("seed: %w", err)
			}
		}
		return nil
	})
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Profile(ctx context.Context) (api.Profile, error) {
	var p Profile
	if err := s.db.WithContext(ctx).Order("updated_at DESC").First(&p).Error; err != nil {
		return api.Profile{}, notFound(err)
	}
	return p.toAPI(), nil
}

func (s *Store) UpdateProfile(ctx context.Context, patch api.ProfilePatch) (api.Profile, error) {
	var p Profile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Order("updated_at DESC").First(&p).Error; err != nil {
			return notFound(err)
		}
		if updates := profileUpdates(patch); len(updates) > 0 {
			if err := tx.Model(&p).Updates(updates).Error; err != nil {
				return fmt.Errorf("update profile: %w", err)
			}
		}
		return tx.First(&p, "id = ?", p.ID).Error
	})
	if err != nil {
		return api.Profile{}, err
	}
	return p.toAPI(), nil
}

func (s *Store) DashboardStats(ctx context.Context) (api.DashboardStats, error) {
	db := s.db.WithContext(ctx)
	now := s.now()
	var stats api.DashboardStats
	var contracts, open, overdue, boats, berths, occupied, works int64
	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&contracts, db.Model(&Contract{}).Where("status = ?", "active")},
		{&open, db.Model(&Invoice{}).Where("paid_at IS NULL")},
		{&overdue, db.Model(&Invoice{}).Where("paid_at IS NULL AND due_on < ?", now)},
		{&boats, db.Model(&Boat{})},
		{&berths, db.Model(&Berth{})},
		{&occupied, db.Model(&Berth{}).Where("boat_id IS NOT NULL")},
		{&works, db.Model(&WorkOrder{}).Where("status <> ?", "done")},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return api.DashboardStats{}, fmt.Errorf("dashboard stats: %w", err)
		}
	}
	if err := db.Model(&Invoice{}).
		Where("paid_at IS NULL").
		Select("COALESCE(SUM(amount), 0)").
		Scan(&stats.OutstandingBalance).Error; err != nil {
		return api.DashboardStats{}, fmt.Errorf("outstanding balance: %w", err)
	}

	stats.ActiveContracts = int(contracts)
	stats.OpenInvoices = int(open)
	stats.OverdueInvoices = int(overdue)
	stats.Boats = int(boats)
	stats.TotalBerths = int(berths)
	stats.OccupiedBerths = int(occupied)
	stats.OpenWorkOrders = int(works)
	return stats, nil
}

func (s *Store) MarinaOverview(ctx context.Context) (api.MarinaOverview, error) {
	db := s.db.WithContext(ctx)
	var out api.MarinaOverview

	var profile Profile
	if err := db.Order("updated_at DESC").First(&profile).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return out, fmt.Errorf("marina name: %w", err)
	}
	out.Name = profile.MarinaName

	var docks []api.DockSummary
	if err := db.Table("docks").
		Select("docks.name AS name, COUNT(berths.id) AS berths, COUNT(berths.boat_id) AS occupied").
		Joins("LEFT JOIN berths ON berths.dock_id = docks.id").
		Group("docks.id, docks.name, docks.position").
		Order("docks.position, docks.name").
		Scan(&docks).Error; err != nil {
		return out, fmt.Errorf("dock summary: %w", err)
	}
	out.Docks = docks

	start := startOfDay(s.now())
	end := start.AddDate(0, 0, 1)
	var arrivals, departures int64
	if err := db.Model(&Contract{}).Where("starts_on >= ? AND starts_on < ?", start, end).Count(&arrivals).Error; err != nil {
		return out, fmt.Errorf("arrivals: %w", err)
	}
	if err := db.Model(&Contract{}).Where("ends_on >= ? AND ends_on < ?", start, end).Count(&departures).Error; err != nil {
		return out, fmt.Errorf("departures: %w", err)
	}
	out.ArrivalsToday = int(arrivals)
	out.DeparturesToday = int(departures)
	return out, nil
}

func (s *Store) Operations(ctx context.Context) ([]api.Operation, error) {
	var rows []Operation
	if err := s.db.WithContext(ctx).
		Where("status NOT IN ?", closedOperationStatuses).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list operations: %w", err)
	}
	out := make([]api.Operation, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toAPI())
	}
	return out, nil
}

func (s *Store) Notifications(ctx context.Context) ([]api.Notification, error) {
	var rows []Notification
	if err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(notificationsLimit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	out := make([]api.Notification, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toAPI())
	}
	return out, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	return err
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
