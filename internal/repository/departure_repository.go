package repository

import (
	"context"
	"time"

	"github.com/officeflow/attendance-bot/internal/domain"
)

func (s *pgxStore) AppendDeparture(ctx context.Context, record *domain.DepartureRecord) (int64, error) {
	const query = `
        INSERT INTO departures (user_id, reason, occurred_at)
        VALUES ($1, $2, $3)
        RETURNING id`

	ctx, cancel := s.bound(ctx)
	defer cancel()

	if err := s.pool.QueryRow(ctx, query,
		record.UserID,
		record.Reason,
		toMicros(record.Timestamp),
	).Scan(&record.ID); err != nil {
		return 0, storeError("append departure", err)
	}
	return record.ID, nil
}

func (s *pgxStore) DeleteDeparturesFor(ctx context.Context, userID int64) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	_, err := s.pool.Exec(ctx, `DELETE FROM departures WHERE user_id=$1`, userID)
	return storeError("delete departures", err)
}

func (s *pgxStore) ListDepartures(ctx context.Context, userID int64, since, until time.Time) ([]domain.DepartureRecord, error) {
	const query = `
        SELECT id, user_id, reason, occurred_at
        FROM departures
        WHERE user_id=$1 AND occurred_at BETWEEN $2 AND $3
        ORDER BY occurred_at ASC, id ASC`

	ctx, cancel := s.bound(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, query, userID, toMicros(since), toMicros(until))
	if err != nil {
		return nil, storeError("list departures", err)
	}
	defer rows.Close()

	var result []domain.DepartureRecord
	for rows.Next() {
		var (
			rec        domain.DepartureRecord
			occurredAt int64
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Reason, &occurredAt); err != nil {
			return nil, storeError("scan departure", err)
		}
		rec.Timestamp = fromMicros(occurredAt, s.opts.Location)
		result = append(result, rec)
	}
	return result, storeError("list departures", rows.Err())
}

func (s *pgxStore) CountDepartures(ctx context.Context, userID int64) (int64, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	var count int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM departures WHERE user_id=$1`, userID).Scan(&count); err != nil {
		return 0, storeError("count departures", err)
	}
	return count, nil
}
