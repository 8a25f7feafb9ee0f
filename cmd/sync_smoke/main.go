package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"taskflow/internal/db"
	"taskflow/internal/domain"
	"taskflow/internal/repository"
	"taskflow/internal/security"
	"taskflow/internal/service"
	"taskflow/internal/syncclient"
)

// End-to-end smoke for the push path against a running server: subscribe
// a user's sync client, create a task for them over HTTP as a manager,
// and wait for the client to refetch it.
func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}
	if os.Getenv("JWT_SECRET") == "" {
		log.Fatal("JWT_SECRET not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	base := "http://localhost:" + port

	pool := db.Connect(dsn)
	defer pool.Close()

	users := repository.NewUserRepository(pool)
	hasher := security.NewBcryptHasher(0)
	ctx := context.Background()

	ensure := func(name, email string, role domain.Role) *domain.User {
		u, err := users.GetByEmail(ctx, email)
		if err == nil {
			return u
		}
		if !errors.Is(err, domain.ErrNotFound) {
			log.Fatalf("lookup %s: %v", email, err)
		}
		hash, err := hasher.Hash("smoke-password")
		if err != nil {
			log.Fatalf("hash: %v", err)
		}
		u = &domain.User{Name: name, Email: email, Role: role, PasswordHash: hash}
		if err := users.Create(ctx, u); err != nil {
			log.Fatalf("create %s: %v", email, err)
		}
		return u
	}

	manager := ensure("Smoke Manager", "smoke-manager@example.com", domain.RoleManager)
	worker := ensure("Smoke Worker", "smoke-worker@example.com", domain.RoleUser)

	service.InitJWT()
	managerToken, err := service.GenerateJWT(manager.ID, manager.Role)
	if err != nil {
		log.Fatalf("manager token: %v", err)
	}
	workerToken, err := service.GenerateJWT(worker.ID, worker.Role)
	if err != nil {
		log.Fatalf("worker token: %v", err)
	}

	updates := make(chan syncclient.Snapshot, 8)
	client := syncclient.New(syncclient.Config{
		ServerURL: base,
		Token:     workerToken,
		UserID:    worker.ID,
		OnUpdate:  func(s syncclient.Snapshot) { updates <- s },
		OnStateChange: func(s syncclient.State) {
			log.Printf("sync state: %s", s)
		},
	})

	runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	go client.Run(runCtx)

	// wait for the initial refetch triggered by join
	select {
	case <-updates:
	case <-time.After(10 * time.Second):
		log.Fatal("timeout waiting for initial sync")
	}

	title := fmt.Sprintf("smoke task %d", time.Now().UnixNano())
	body, _ := json.Marshal(map[string]any{
		"title":      title,
		"priority":   "high",
		"assignedTo": worker.ID,
	})

	req, _ := http.NewRequestWithContext(runCtx, http.MethodPost, base+"/api/tasks", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+managerToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("create task: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		log.Fatalf("create task: unexpected status %d", resp.StatusCode)
	}

	deadline := time.After(10 * time.Second)
	for {
		select {
		case snap := <-updates:
			for _, t := range snap.Tasks {
				if t.Title == title {
					log.Printf("push sync confirmed: task %d visible after %d total", t.ID, snap.Total)
					return
				}
			}
		case <-deadline:
			log.Fatal("timeout: task never appeared in the synced view")
		}
	}
}
