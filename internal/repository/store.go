package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/officeflow/attendance-bot/internal/domain"
	"github.com/officeflow/attendance-bot/pkg/util/errorutil"
)

// ErrUserNotFound is returned by GetUser when no profile exists.
var ErrUserNotFound = errors.New("user not found")

// UserRepository persists employee profiles.
type UserRepository interface {
	// UpsertUser inserts or replaces the profile keyed by UserID.
	UpsertUser(ctx context.Context, user *domain.UserProfile) error
	GetUser(ctx context.Context, userID int64) (*domain.UserProfile, error)
	// DeleteUser succeeds when nothing exists.
	DeleteUser(ctx context.Context, userID int64) error
	// ListUsers returns profiles in registration order.
	ListUsers(ctx context.Context) ([]domain.UserProfile, error)
}

// DepartureRepository persists the append-only departure ledger.
type DepartureRepository interface {
	// AppendDeparture stores record, assigns record.ID and returns it.
	AppendDeparture(ctx context.Context, record *domain.DepartureRecord) (int64, error)
	// DeleteDeparturesFor succeeds when nothing exists.
	DeleteDeparturesFor(ctx context.Context, userID int64) error
	// ListDepartures returns the user's records with since <= timestamp <= until,
	// oldest first.
	ListDepartures(ctx context.Context, userID int64, since, until time.Time) ([]domain.DepartureRecord, error)
	CountDepartures(ctx context.Context, userID int64) (int64, error)
}

// Store is the durable source of truth. Every write is committed before the
// call returns; every call is bounded by the configured timeout and fails
// with a STORE_UNAVAILABLE error instead of hanging.
type Store interface {
	UserRepository
	DepartureRepository
	Ping(ctx context.Context) error
	Close() error
}

// Options tunes a Store implementation.
type Options struct {
	// Timeout bounds every call. Zero means 5 seconds.
	Timeout time.Duration
	// Location is applied to timestamps read back from storage.
	Location *time.Location
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 5 * time.Second
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	return o
}

func toMicros(t time.Time) int64 {
	return t.UnixMicro()
}

func fromMicros(us int64, loc *time.Location) time.Time {
	return time.UnixMicro(us).In(loc)
}

// storeError maps driver failures and deadlines onto STORE_UNAVAILABLE.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUserNotFound) {
		return err
	}
	return errorutil.NewStoreUnavailable(fmt.Errorf("%s: %w", op, err))
}
