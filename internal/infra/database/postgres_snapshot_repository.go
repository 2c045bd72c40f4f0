package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"substitution_bot/internal/domain/schedule"
)

type PostgresSnapshotRepository struct {
	db *sql.DB
}

func NewPostgresSnapshotRepository(db *sql.DB) *PostgresSnapshotRepository {
	return &PostgresSnapshotRepository{db: db}
}

func (r *PostgresSnapshotRepository) Load(ctx context.Context, weekday schedule.Weekday) (*schedule.Schedule, error) {
	query := `SELECT payload FROM schedule_snapshots WHERE weekday = $1`

	var payload []byte
	err := r.db.QueryRowContext(ctx, query, weekday.String()).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, schedule.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("error loading snapshot for %s: %w", weekday, err)
	}

	s, err := schedule.DecodeSnapshot(payload, weekday)
	if err != nil {
		return nil, fmt.Errorf("row for %s: %w", weekday, err)
	}
	return s, nil
}

// Save replaces the weekday's row in a single statement, so concurrent
// readers see either the previous or the new payload.
func (r *PostgresSnapshotRepository) Save(ctx context.Context, weekday schedule.Weekday, s *schedule.Schedule) error {
	if s == nil || s.Weekday != weekday {
		return fmt.Errorf("snapshot for %s must hold a %s schedule", weekday, weekday)
	}

	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("error marshalling snapshot: %w", err)
	}

	query := `INSERT INTO schedule_snapshots (weekday, payload, updated_at)
               VALUES ($1, $2, NOW())
               ON CONFLICT (weekday) DO UPDATE SET payload = EXCLUDED.payload, updated_at = NOW()`
	if _, err := r.db.ExecContext(ctx, query, weekday.String(), payload); err != nil {
		return fmt.Errorf("error saving snapshot for %s: %w", weekday, err)
	}
	return nil
}
