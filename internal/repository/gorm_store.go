package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/officeflow/attendance-bot/internal/domain"
)

type userRow struct {
	UserID       int64  `gorm:"column:user_id;primaryKey;autoIncrement:false"`
	FullName     string `gorm:"column:full_name"`
	Department   string `gorm:"column:department"`
	IsAdmin      bool   `gorm:"column:is_admin"`
	RegisteredAt int64  `gorm:"column:registered_at"`
}

func (userRow) TableName() string { return "users" }

type departureRow struct {
	ID         int64  `gorm:"column:id;primaryKey"`
	UserID     int64  `gorm:"column:user_id"`
	Reason     string `gorm:"column:reason"`
	OccurredAt int64  `gorm:"column:occurred_at"`
}

func (departureRow) TableName() string { return "departures" }

type gormStore struct {
	db   *gorm.DB
	opts Options
}

// NewGormStore returns a Store over an already migrated gorm handle.
func NewGormStore(db *gorm.DB, opts Options) Store {
	return &gormStore{db: db, opts: opts.withDefaults()}
}

func (s *gormStore) tx(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	return s.db.WithContext(ctx), cancel
}

func (s *gormStore) UpsertUser(ctx context.Context, user *domain.UserProfile) error {
	if user.RegisteredAt.IsZero() {
		user.RegisteredAt = time.Now()
	}
	row := userRow{
		UserID:       user.UserID,
		FullName:     user.FullName,
		Department:   user.Department,
		IsAdmin:      user.IsAdmin,
		RegisteredAt: toMicros(user.RegisteredAt),
	}

	db, cancel := s.tx(ctx)
	defer cancel()

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(&row).Error
	return storeError("upsert user", err)
}

func (s *gormStore) GetUser(ctx context.Context, userID int64) (*domain.UserProfile, error) {
	db, cancel := s.tx(ctx)
	defer cancel()

	var row userRow
	if err := db.Where("user_id = ?", userID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storeError("get user", err)
	}
	profile := s.toProfile(row)
	return &profile, nil
}

func (s *gormStore) DeleteUser(ctx context.Context, userID int64) error {
	db, cancel := s.tx(ctx)
	defer cancel()
	return storeError("delete user", db.Where("user_id = ?", userID).Delete(&userRow{}).Error)
}

func (s *gormStore) ListUsers(ctx context.Context) ([]domain.UserProfile, error) {
	db, cancel := s.tx(ctx)
	defer cancel()

	var rows []userRow
	if err := db.Order("registered_at ASC").Order("user_id ASC").Find(&rows).Error; err != nil {
		return nil, storeError("list users", err)
	}
	out := make([]domain.UserProfile, 0, len(rows))
	for _, row := range rows {
		out = append(out, s.toProfile(row))
	}
	return out, nil
}

func (s *gormStore) AppendDeparture(ctx context.Context, record *domain.DepartureRecord) (int64, error) {
	row := departureRow{
		UserID:     record.UserID,
		Reason:     record.Reason,
		OccurredAt: toMicros(record.Timestamp),
	}

	db, cancel := s.tx(ctx)
	defer cancel()

	if err := db.Create(&row).Error; err != nil {
		return 0, storeError("append departure", err)
	}
	record.ID = row.ID
	return row.ID, nil
}

func (s *gormStore) DeleteDeparturesFor(ctx context.Context, userID int64) error {
	db, cancel := s.tx(ctx)
	defer cancel()
	return storeError("delete departures", db.Where("user_id = ?", userID).Delete(&departureRow{}).Error)
}

func (s *gormStore) ListDepartures(ctx context.Context, userID int64, since, until time.Time) ([]domain.DepartureRecord, error) {
	db, cancel := s.tx(ctx)
	defer cancel()

	var rows []departureRow
	err := db.
		Where("user_id = ? AND occurred_at BETWEEN ? AND ?", userID, toMicros(since), toMicros(until)).
		Order("occurred_at ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, storeError("list departures", err)
	}

	out := make([]domain.DepartureRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.DepartureRecord{
			ID:        row.ID,
			UserID:    row.UserID,
			Reason:    row.Reason,
			Timestamp: fromMicros(row.OccurredAt, s.opts.Location),
		})
	}
	return out, nil
}

func (s *gormStore) CountDepartures(ctx context.Context, userID int64) (int64, error) {
	db, cancel := s.tx(ctx)
	defer cancel()

	var count int64
	if err := db.Model(&departureRow{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, storeError("count departures", err)
	}
	return count, nil
}

func (s *gormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return storeError("ping", err)
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	return storeError("ping", sqlDB.PingContext(ctx))
}

func (s *gormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *gormStore) toProfile(row userRow) domain.UserProfile {
	return domain.UserProfile{
		UserID:       row.UserID,
		FullName:     row.FullName,
		Department:   row.Department,
		IsAdmin:      row.IsAdmin,
		RegisteredAt: fromMicros(row.RegisteredAt, s.opts.Location),
	}
}
