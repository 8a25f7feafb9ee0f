package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"taskflow/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TaskRepository struct {
	db *pgxpool.Pool
}

func NewTaskRepository(db *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = `t.id, t.title, COALESCE(t.description, ''), t.status, t.priority, t.due_date,
	t.assigned_to, t.created_by, COALESCE(t.tags, '{}'), t.created_at, t.updated_at,
	COALESCE(a.name, ''), COALESCE(c.name, '')`

const taskJoins = `FROM tasks t
	LEFT JOIN users a ON a.id = t.assigned_to
	LEFT JOIN users c ON c.id = t.created_by`

func scanTask(row pgx.Row) (*domain.Task, error) {
	var t domain.Task
	if err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&t.Status,
		&t.Priority,
		&t.DueDate,
		&t.AssignedTo,
		&t.CreatedBy,
		&t.Tags,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.AssigneeName,
		&t.CreatorName,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	return &t, nil
}

func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO tasks (title, description, status, priority, due_date, assigned_to, created_by, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		t.Title, t.Description, t.Status, t.Priority, t.DueDate, t.AssignedTo, t.CreatedBy, t.Tags,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+taskColumns+` `+taskJoins+` WHERE t.id = $1`, id)
	return scanTask(row)
}

// Update writes every mutable field of the row. Concurrent updates to the
// same task are last-write-wins at commit order; the row stays a valid
// task because the whole statement is atomic.
func (r *TaskRepository) Update(ctx context.Context, t *domain.Task) error {
	err := r.db.QueryRow(ctx, `
		UPDATE tasks
		SET title = $1, description = $2, status = $3, priority = $4,
		    due_date = $5, assigned_to = $6, tags = $7, updated_at = now()
		WHERE id = $8
		RETURNING updated_at`,
		t.Title, t.Description, t.Status, t.Priority, t.DueDate, t.AssignedTo, t.Tags, t.ID,
	).Scan(&t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

func (r *TaskRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List returns one page of tasks plus the total row count for the filter.
// Ordering is created_at DESC with id as tiebreaker so pagination stays
// deterministic under concurrent inserts.
func (r *TaskRepository) List(ctx context.Context, f domain.TaskFilter) ([]*domain.Task, int64, error) {
	where, args := buildTaskWhere(f)

	var total int64
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) `+taskJoins+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(`SELECT %s %s%s ORDER BY t.created_at DESC, t.id DESC LIMIT $%d OFFSET $%d`,
		taskColumns, taskJoins, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tasks := []*domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, err
		}
		tasks = append(tasks, t)
	}
	return tasks, total, rows.Err()
}

func buildTaskWhere(f domain.TaskFilter) (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, val any) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Status != "" {
		add("t.status = $%d", f.Status)
	}
	if f.Priority != "" {
		add("t.priority = $%d", f.Priority)
	}
	if f.AssignedTo != 0 {
		add("t.assigned_to = $%d", f.AssignedTo)
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		conds = append(conds, fmt.Sprintf("(t.title ILIKE $%d OR t.description ILIKE $%d)", len(args), len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// CountByStatus groups tasks by status. assignedTo = 0 counts every task
// (manager view); otherwise only tasks assigned to that user.
func (r *TaskRepository) CountByStatus(ctx context.Context, assignedTo int64) ([]domain.StatusCount, error) {
	rows, err := r.db.Query(ctx, `
		SELECT status, COUNT(*)
		FROM tasks
		WHERE $1 = 0 OR assigned_to = $1
		GROUP BY status`, assignedTo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := []domain.StatusCount{}
	for rows.Next() {
		var sc domain.StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, sc)
	}
	return counts, rows.Err()
}
