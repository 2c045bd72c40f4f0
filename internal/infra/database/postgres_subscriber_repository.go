package database

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresSubscriberRepository stores one row per registration. Rows are
// never merged, so repeated registrations stay visible as duplicates.
type PostgresSubscriberRepository struct {
	db *sql.DB
}

func NewPostgresSubscriberRepository(db *sql.DB) *PostgresSubscriberRepository {
	return &PostgresSubscriberRepository{db: db}
}

func (r *PostgresSubscriberRepository) Register(ctx context.Context, group string, subscriberID int64) error {
	query := `INSERT INTO group_subscribers (group_name, subscriber_id) VALUES ($1, $2)`
	if _, err := r.db.ExecContext(ctx, query, group, subscriberID); err != nil {
		return fmt.Errorf("error registering subscriber %d for group %s: %w", subscriberID, group, err)
	}
	return nil
}

func (r *PostgresSubscriberRepository) Groups(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT group_name FROM group_subscribers ORDER BY group_name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing groups: %w", err)
	}
	defer rows.Close()

	groups := make([]string, 0)
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, fmt.Errorf("error scanning group: %w", err)
		}
		groups = append(groups, g)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating groups: %w", err)
	}
	return groups, nil
}

func (r *PostgresSubscriberRepository) SubscribersOf(ctx context.Context, group string) ([]int64, error) {
	query := `SELECT subscriber_id FROM group_subscribers WHERE group_name = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, group)
	if err != nil {
		return nil, fmt.Errorf("error listing subscribers of %s: %w", group, err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning subscriber: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscribers: %w", err)
	}
	return ids, nil
}
