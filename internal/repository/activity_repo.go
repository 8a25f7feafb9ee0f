package repository

import (
	"context"
	"encoding/json"

	"taskflow/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ActivityRepository stores per-task history entries.
type ActivityRepository struct {
	db *pgxpool.Pool
}

func NewActivityRepository(db *pgxpool.Pool) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Create(ctx context.Context, a *domain.Activity) error {
	detailsJSON, err := json.Marshal(a.Details)
	if err != nil {
		detailsJSON = []byte("{}")
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO task_activity (task_id, user_id, action, details)
		VALUES ($1, $2, $3, $4)
	`, a.TaskID, a.UserID, a.Action, detailsJSON)
	return err
}

// GetByTaskID returns a task's history, newest first.
func (r *ActivityRepository) GetByTaskID(ctx context.Context, taskID int64, limit int) ([]*domain.Activity, error) {
	rows, err := r.db.Query(ctx, `
		SELECT ta.id, ta.task_id, ta.user_id, ta.action, ta.details, ta.created_at, COALESCE(u.name, '')
		FROM task_activity ta
		LEFT JOIN users u ON u.id = ta.user_id
		WHERE ta.task_id = $1
		ORDER BY ta.created_at DESC
		LIMIT $2
	`, taskID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanActivities(rows)
}

func scanActivities(rows pgx.Rows) ([]*domain.Activity, error) {
	var entries []*domain.Activity
	for rows.Next() {
		var a domain.Activity
		var detailsJSON []byte
		if err := rows.Scan(&a.ID, &a.TaskID, &a.UserID, &a.Action, &detailsJSON, &a.CreatedAt, &a.UserName); err != nil {
			return nil, err
		}
		if len(detailsJSON) > 0 {
			_ = json.Unmarshal(detailsJSON, &a.Details)
		}
		entries = append(entries, &a)
	}
	return entries, rows.Err()
}
