package database

import (
	"context"
	"database/sql"
	"testing"

	"buddy-sessions-go/internal/models"
	"buddy-sessions-go/internal/schedule"
	"buddy-sessions-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDb opens an in-memory database with the real schema. A single
// connection keeps every query on the same in-memory instance.
func setupTestDb(t *testing.T) (*Service, func()) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	service := &Service{db: db}
	if err := service.initSchema(); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	cleanup := func() {
		db.Close()
	}

	return service, cleanup
}

func createTestAccount(t *testing.T, service *Service, id, nickname string, role models.Role, credits int64, grid schedule.Grid) *models.Account {
	t.Helper()

	account, err := service.CreateAccount(context.Background(), store.CreateAccountParams{
		Id:       id,
		Nickname: nickname,
		Role:     role,
		Credits:  credits,
		Grid:     grid,
	})
	if err != nil {
		t.Fatalf("Failed to create test account %s: %v", nickname, err)
	}
	return account
}
