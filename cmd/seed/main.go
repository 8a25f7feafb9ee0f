package main

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"taskflow/internal/db"
	"taskflow/internal/domain"
	"taskflow/internal/repository"
	"taskflow/internal/security"
)

// Seeds the demo accounts and a handful of tasks. Safe to run twice:
// existing users are reused and tasks are only inserted on first run.
func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	pool := db.Connect(dsn)
	defer pool.Close()

	users := repository.NewUserRepository(pool)
	tasks := repository.NewTaskRepository(pool)
	hasher := security.NewBcryptHasher(0)
	ctx := context.Background()

	ensure := func(name, email string, role domain.Role) *domain.User {
		existing, err := users.GetByEmail(ctx, email)
		if err == nil {
			log.Printf("user %s already exists id=%d", email, existing.ID)
			return existing
		}
		if !errors.Is(err, domain.ErrNotFound) {
			log.Fatalf("lookup %s: %v", email, err)
		}

		hash, err := hasher.Hash("password123")
		if err != nil {
			log.Fatalf("hash password: %v", err)
		}
		u := &domain.User{Name: name, Email: email, Role: role, PasswordHash: hash}
		if err := users.Create(ctx, u); err != nil {
			log.Fatalf("create %s: %v", email, err)
		}
		log.Printf("created %s id=%d role=%s", email, u.ID, role)
		return u
	}

	manager := ensure("John Manager", "manager@demo.com", domain.RoleManager)
	user1 := ensure("Jane User", "user@demo.com", domain.RoleUser)
	user2 := ensure("Bob Developer", "developer@demo.com", domain.RoleUser)

	existing, total, err := tasks.List(ctx, domain.TaskFilter{Limit: 1})
	if err != nil {
		log.Fatalf("list tasks: %v", err)
	}
	if total > 0 || len(existing) > 0 {
		log.Printf("tasks already seeded (%d present), skipping", total)
		return
	}

	due := func(day string) *time.Time {
		t, _ := time.Parse("2006-01-02", day)
		return &t
	}

	demo := []*domain.Task{
		{
			Title:       "Setup Development Environment",
			Description: "Install Go, Postgres, and configure the project",
			Status:      domain.StatusCompleted,
			Priority:    domain.PriorityHigh,
			DueDate:     due("2024-01-15"),
			AssignedTo:  user1.ID,
			Tags:        []string{"setup", "environment"},
		},
		{
			Title:       "Design Database Schema",
			Description: "Create the database schema for users, tasks, and activity logs",
			Status:      domain.StatusCompleted,
			Priority:    domain.PriorityHigh,
			DueDate:     due("2024-01-16"),
			AssignedTo:  user1.ID,
			Tags:        []string{"database", "design"},
		},
		{
			Title:       "Implement Authentication API",
			Description: "Build JWT-based authentication with login and signup endpoints",
			Status:      domain.StatusInProgress,
			Priority:    domain.PriorityUrgent,
			DueDate:     due("2024-01-20"),
			AssignedTo:  user1.ID,
			Tags:        []string{"backend", "auth", "api"},
		},
		{
			Title:       "Create Task Management UI",
			Description: "Build frontend components for task creation, editing, and viewing",
			Status:      domain.StatusInProgress,
			Priority:    domain.PriorityHigh,
			DueDate:     due("2024-01-22"),
			AssignedTo:  user2.ID,
			Tags:        []string{"frontend", "ui"},
		},
		{
			Title:       "Implement Real-time Updates",
			Description: "Push task updates to connected clients over websockets",
			Status:      domain.StatusPending,
			Priority:    domain.PriorityMedium,
			DueDate:     due("2024-01-25"),
			AssignedTo:  user1.ID,
			Tags:        []string{"backend", "websocket", "realtime"},
		},
		{
			Title:       "Write API Documentation",
			Description: "Document all API endpoints with request/response examples",
			Status:      domain.StatusPending,
			Priority:    domain.PriorityMedium,
			DueDate:     due("2024-01-28"),
			AssignedTo:  user2.ID,
			Tags:        []string{"documentation", "api"},
		},
	}

	for _, t := range demo {
		t.CreatedBy = manager.ID
		if err := tasks.Create(ctx, t); err != nil {
			log.Fatalf("create task %q: %v", t.Title, err)
		}
		log.Printf("created task %q id=%d", t.Title, t.ID)
	}

	log.Println("seed complete")
}
