package service

import (
	"context"

	"taskflow/internal/domain"
	"taskflow/internal/logger"
	"taskflow/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ActivityService records and reads per-task history.
type ActivityService struct {
	repo *repository.ActivityRepository
}

func NewActivityService(db *pgxpool.Pool) *ActivityService {
	return &ActivityService{
		repo: repository.NewActivityRepository(db),
	}
}

// Record appends an activity entry. Errors are logged and swallowed: the
// mutation this entry describes has already committed.
func (s *ActivityService) Record(ctx context.Context, taskID, userID int64, action string, details map[string]interface{}) {
	entry := &domain.Activity{
		TaskID:  taskID,
		UserID:  userID,
		Action:  action,
		Details: details,
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		logger.Error("failed to record task activity", "error", err, "action", action, "task_id", taskID)
	}
}

// GetByTaskID returns a task's history, newest first.
func (s *ActivityService) GetByTaskID(ctx context.Context, taskID int64, limit int) ([]*domain.Activity, error) {
	return s.repo.GetByTaskID(ctx, taskID, limit)
}
