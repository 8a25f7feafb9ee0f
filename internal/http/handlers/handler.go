package handlers

import (
	"context"

	"taskflow/internal/domain"
	"taskflow/internal/repository"
	"taskflow/internal/security"
	"taskflow/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Handler struct {
	DB       *pgxpool.Pool
	Tasks    *service.TaskService
	Activity *service.ActivityService
	Users    *repository.UserRepository
	Hasher   *security.BcryptHasher
}

func NewHandler(db *pgxpool.Pool, tasks *service.TaskService, activity *service.ActivityService) *Handler {
	return &Handler{
		DB:       db,
		Tasks:    tasks,
		Activity: activity,
		Users:    repository.NewUserRepository(db),
		Hasher:   security.NewBcryptHasher(0),
	}
}

// getUserID pulls the authenticated user id set by the JWT middleware.
func getUserID(c interface{ Get(string) (any, bool) }) (int64, bool) {
	uidVal, ok := c.Get("user_id")
	if !ok {
		return 0, false
	}
	switch v := uidVal.(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

// currentUser loads the full acting user record for policy decisions.
func (h *Handler) currentUser(ctx context.Context, c interface{ Get(string) (any, bool) }) (*domain.User, error) {
	userID, ok := getUserID(c)
	if !ok {
		return nil, domain.ErrForbidden
	}
	return h.Users.GetByID(ctx, userID)
}
