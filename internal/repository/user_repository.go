package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/officeflow/attendance-bot/internal/domain"
)

func (s *pgxStore) UpsertUser(ctx context.Context, user *domain.UserProfile) error {
	const query = `
        INSERT INTO users (user_id, full_name, department, is_admin, registered_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (user_id) DO UPDATE SET
            full_name = EXCLUDED.full_name,
            department = EXCLUDED.department,
            is_admin = EXCLUDED.is_admin,
            registered_at = EXCLUDED.registered_at`

	if user.RegisteredAt.IsZero() {
		user.RegisteredAt = time.Now()
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	_, err := s.pool.Exec(ctx, query,
		user.UserID,
		user.FullName,
		user.Department,
		user.IsAdmin,
		toMicros(user.RegisteredAt),
	)
	return storeError("upsert user", err)
}

func (s *pgxStore) GetUser(ctx context.Context, userID int64) (*domain.UserProfile, error) {
	const query = `
        SELECT user_id, full_name, department, is_admin, registered_at
        FROM users WHERE user_id=$1`

	ctx, cancel := s.bound(ctx)
	defer cancel()

	var (
		user         domain.UserProfile
		registeredAt int64
	)
	if err := s.pool.QueryRow(ctx, query, userID).Scan(
		&user.UserID,
		&user.FullName,
		&user.Department,
		&user.IsAdmin,
		&registeredAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, storeError("get user", err)
	}
	user.RegisteredAt = fromMicros(registeredAt, s.opts.Location)
	return &user, nil
}

func (s *pgxStore) DeleteUser(ctx context.Context, userID int64) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	_, err := s.pool.Exec(ctx, `DELETE FROM users WHERE user_id=$1`, userID)
	return storeError("delete user", err)
}

func (s *pgxStore) ListUsers(ctx context.Context) ([]domain.UserProfile, error) {
	const query = `
        SELECT user_id, full_name, department, is_admin, registered_at
        FROM users ORDER BY registered_at ASC, user_id ASC`

	ctx, cancel := s.bound(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, storeError("list users", err)
	}
	defer rows.Close()

	var result []domain.UserProfile
	for rows.Next() {
		var (
			user         domain.UserProfile
			registeredAt int64
		)
		if err := rows.Scan(&user.UserID, &user.FullName, &user.Department, &user.IsAdmin, &registeredAt); err != nil {
			return nil, storeError("scan user", err)
		}
		user.RegisteredAt = fromMicros(registeredAt, s.opts.Location)
		result = append(result, user)
	}
	return result, storeError("list users", rows.Err())
}
