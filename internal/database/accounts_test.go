package database

import (
	"context"
	"errors"
	"testing"

	"buddy-sessions-go/internal/models"
	"buddy-sessions-go/internal/schedule"
	"buddy-sessions-go/internal/store"
)

func TestCreateAccount_RoundTrip(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	grid := schedule.NewGrid()
	if err := grid.Set(schedule.Monday, schedule.Morning); err != nil {
		t.Fatalf("Failed to set grid: %v", err)
	}
	if err := grid.Set(schedule.Friday, schedule.Evening); err != nil {
		t.Fatalf("Failed to set grid: %v", err)
	}

	createTestAccount(t, service, "buddy1", "hana", models.RoleBuddy, 0, grid)

	account, err := service.GetAccount(ctx, "buddy1")
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if account.Nickname != "hana" {
		t.Errorf("Expected nickname hana, got %s", account.Nickname)
	}
	if account.Role != models.RoleBuddy {
		t.Errorf("Expected role buddy, got %s", account.Role)
	}
	if !account.Grid.Has(schedule.Monday, schedule.Morning) {
		t.Error("Expected grid to keep monday morning")
	}
	if !account.Grid.Has(schedule.Friday, schedule.Evening) {
		t.Error("Expected grid to keep friday evening")
	}
	if account.Grid.Has(schedule.Tuesday, schedule.Morning) {
		t.Error("Grid has a bucket that was never set")
	}
}

func TestCreateAccount_NicknameTaken(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	createTestAccount(t, service, "acc1", "mina", models.RoleLearner, 2, nil)

	_, err := service.CreateAccount(ctx, store.CreateAccountParams{
		Id:       "acc2",
		Nickname: "mina",
		Role:     models.RoleBuddy,
	})
	if !errors.Is(err, store.ErrNicknameTaken) {
		t.Errorf("Expected ErrNicknameTaken, got %v", err)
	}
}

func TestCreateAccount_NicknameTakenCaseInsensitive(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	createTestAccount(t, service, "acc1", "Mina", models.RoleLearner, 2, nil)

	_, err := service.CreateAccount(ctx, store.CreateAccountParams{
		Id:       "acc2",
		Nickname: "mina",
		Role:     models.RoleLearner,
	})
	if !errors.Is(err, store.ErrNicknameTaken) {
		t.Errorf("Expected ErrNicknameTaken for case variant, got %v", err)
	}
}

func TestGetAccount_NotFound(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	_, err := service.GetAccount(context.Background(), "missing")
	if !errors.Is(err, store.ErrAccountNotFound) {
		t.Errorf("Expected ErrAccountNotFound, got %v", err)
	}
}

func TestListBuddies_FiltersByRole(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	createTestAccount(t, service, "b1", "hana", models.RoleBuddy, 0, nil)
	createTestAccount(t, service, "b2", "junho", models.RoleBuddy, 0, nil)
	createTestAccount(t, service, "l1", "mina", models.RoleLearner, 2, nil)

	buddies, err := service.ListBuddies(context.Background())
	if err != nil {
		t.Fatalf("ListBuddies failed: %v", err)
	}
	if len(buddies) != 2 {
		t.Fatalf("Expected 2 buddies, got %d", len(buddies))
	}
	for _, buddy := range buddies {
		if buddy.Role != models.RoleBuddy {
			t.Errorf("Expected only buddies, got role %s", buddy.Role)
		}
	}
}

func TestUpdateGrid_ReplacesGrid(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	grid := schedule.NewGrid()
	if err := grid.Set(schedule.Monday, schedule.Morning); err != nil {
		t.Fatalf("Failed to set grid: %v", err)
	}
	createTestAccount(t, service, "b1", "hana", models.RoleBuddy, 0, grid)

	replacement := schedule.NewGrid()
	if err := replacement.Set(schedule.Sunday, schedule.Evening); err != nil {
		t.Fatalf("Failed to set grid: %v", err)
	}
	if err := service.UpdateGrid(ctx, "b1", replacement); err != nil {
		t.Fatalf("UpdateGrid failed: %v", err)
	}

	account, err := service.GetAccount(ctx, "b1")
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if account.Grid.Has(schedule.Monday, schedule.Morning) {
		t.Error("Expected old grid entry to be gone")
	}
	if !account.Grid.Has(schedule.Sunday, schedule.Evening) {
		t.Error("Expected new grid entry to be present")
	}
}

func TestUpdateGrid_AccountNotFound(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	err := service.UpdateGrid(context.Background(), "missing", schedule.NewGrid())
	if !errors.Is(err, store.ErrAccountNotFound) {
		t.Errorf("Expected ErrAccountNotFound, got %v", err)
	}
}
