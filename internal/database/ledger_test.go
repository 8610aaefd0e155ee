package database

import (
	"context"
	"errors"
	"sync"
	"testing"

	"buddy-sessions-go/internal/models"
	"buddy-sessions-go/internal/store"
)

func TestDebitCredits_Success(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	createTestAccount(t, service, "l1", "mina", models.RoleLearner, 2, nil)

	balance, err := service.DebitCredits(ctx, "l1", 1, "booking-1")
	if err != nil {
		t.Fatalf("DebitCredits failed: %v", err)
	}
	if balance != 1 {
		t.Errorf("Expected balance 1, got %d", balance)
	}
}

func TestDebitCredits_Insufficient(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	createTestAccount(t, service, "l1", "mina", models.RoleLearner, 1, nil)

	_, err := service.DebitCredits(ctx, "l1", 2, "booking-1")
	if !errors.Is(err, store.ErrInsufficientCredit) {
		t.Fatalf("Expected ErrInsufficientCredit, got %v", err)
	}

	// The failed debit must not leave any trace.
	balance, err := service.GetBalance(ctx, "l1")
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if balance != 1 {
		t.Errorf("Expected untouched balance 1, got %d", balance)
	}
	history, err := service.GetCreditHistory(ctx, "l1", 10, 0)
	if err != nil {
		t.Fatalf("GetCreditHistory failed: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("Expected empty history after failed debit, got %d entries", len(history))
	}
}

func TestDebitCredits_AccountNotFound(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	_, err := service.DebitCredits(context.Background(), "missing", 1, "ref")
	if !errors.Is(err, store.ErrAccountNotFound) {
		t.Errorf("Expected ErrAccountNotFound, got %v", err)
	}
}

func TestCreditCredits_RecordsAuditEntry(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	createTestAccount(t, service, "l1", "mina", models.RoleLearner, 0, nil)

	balance, err := service.CreditCredits(ctx, "l1", 3, "topup-1")
	if err != nil {
		t.Fatalf("CreditCredits failed: %v", err)
	}
	if balance != 3 {
		t.Errorf("Expected balance 3, got %d", balance)
	}

	history, err := service.GetCreditHistory(ctx, "l1", 10, 0)
	if err != nil {
		t.Fatalf("GetCreditHistory failed: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("Expected 1 history entry, got %d", len(history))
	}
	entry := history[0]
	if entry.Amount != 3 {
		t.Errorf("Expected amount 3, got %d", entry.Amount)
	}
	if entry.BalanceBefore != 0 || entry.BalanceAfter != 3 {
		t.Errorf("Expected balance snapshot 0 -> 3, got %d -> %d", entry.BalanceBefore, entry.BalanceAfter)
	}
	if entry.Reference != "topup-1" {
		t.Errorf("Expected reference topup-1, got %s", entry.Reference)
	}
}

func TestGetCreditHistory_DebitsAreNegative(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	createTestAccount(t, service, "l1", "mina", models.RoleLearner, 5, nil)

	if _, err := service.DebitCredits(ctx, "l1", 2, "booking-1"); err != nil {
		t.Fatalf("DebitCredits failed: %v", err)
	}

	history, err := service.GetCreditHistory(ctx, "l1", 10, 0)
	if err != nil {
		t.Fatalf("GetCreditHistory failed: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("Expected 1 history entry, got %d", len(history))
	}
	if history[0].Amount != -2 {
		t.Errorf("Expected amount -2, got %d", history[0].Amount)
	}
	if history[0].BalanceBefore != 5 || history[0].BalanceAfter != 3 {
		t.Errorf("Expected balance snapshot 5 -> 3, got %d -> %d",
			history[0].BalanceBefore, history[0].BalanceAfter)
	}
}

// Two concurrent debits against a balance of 1 must not both succeed.
func TestDebitCredits_ConcurrentExhaustion(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	createTestAccount(t, service, "l1", "mina", models.RoleLearner, 1, nil)

	const attempts = 8
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.DebitCredits(ctx, "l1", 1, "race")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, insufficient int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, store.ErrInsufficientCredit):
			insufficient++
		default:
			t.Errorf("Unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Errorf("Expected exactly 1 successful debit, got %d", successes)
	}
	if insufficient != attempts-1 {
		t.Errorf("Expected %d insufficient-credit failures, got %d", attempts-1, insufficient)
	}

	balance, err := service.GetBalance(ctx, "l1")
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if balance != 0 {
		t.Errorf("Expected final balance 0, got %d", balance)
	}
}
