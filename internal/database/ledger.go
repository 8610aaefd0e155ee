package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"buddy-sessions-go/internal/models"
	"buddy-sessions-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *Service) GetBalance(ctx context.Context, accountId string) (int64, error) {
	var credits int64
	err := s.db.QueryRowContext(ctx, querySelectCredits, accountId).Scan(&credits)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: %s", store.ErrAccountNotFound, accountId)
		}
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return credits, nil
}

// DebitCredits atomically decrements the account balance and records the
// audit entry. The guarded update fails to match any row when the balance
// would go negative, so two concurrent debits against a balance of 1 cannot
// both succeed.
func (s *Service) DebitCredits(ctx context.Context, accountId string, amount int64, reference string) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("debit amount must be positive, got %d", amount)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	balanceAfter, err := debitInTx(ctx, tx, accountId, amount, reference)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Credits debited",
		zap.String("account_id", accountId),
		zap.Int64("amount", amount),
		zap.Int64("balance", balanceAfter),
		zap.String("reference", reference))
	return balanceAfter, nil
}

// CreditCredits atomically increments the account balance and records the
// audit entry. Used for refunds and top-ups.
func (s *Service) CreditCredits(ctx context.Context, accountId string, amount int64, reference string) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("credit amount must be positive, got %d", amount)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	balanceAfter, err := creditInTx(ctx, tx, accountId, amount, reference)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Credits credited",
		zap.String("account_id", accountId),
		zap.Int64("amount", amount),
		zap.Int64("balance", balanceAfter),
		zap.String("reference", reference))
	return balanceAfter, nil
}

func (s *Service) GetCreditHistory(ctx context.Context, accountId string, limit, offset int) ([]models.CreditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx, querySelectCreditHistory, accountId, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get credit history: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var entries []models.CreditEntry
	for rows.Next() {
		var entry models.CreditEntry
		err := rows.Scan(&entry.Id, &entry.AccountId, &entry.Amount,
			&entry.BalanceBefore, &entry.BalanceAfter, &entry.Reference, &entry.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan credit entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating credit entries: %w", err)
	}
	return entries, nil
}

// debitInTx runs the guarded debit inside an open transaction and writes the
// audit row. Shared by the standalone ledger operation and the booking unit.
func debitInTx(ctx context.Context, tx *sql.Tx, accountId string, amount int64, reference string) (int64, error) {
	now := time.Now().UTC()

	var balanceAfter int64
	err := tx.QueryRowContext(ctx, queryDebitCredits, amount, now, accountId, amount).Scan(&balanceAfter)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("failed to debit credits: %w", err)
		}
		// The guard matched nothing: missing account or not enough credit.
		var balance int64
		checkErr := tx.QueryRowContext(ctx, querySelectCredits, accountId).Scan(&balance)
		if errors.Is(checkErr, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: %s", store.ErrAccountNotFound, accountId)
		}
		if checkErr != nil {
			return 0, fmt.Errorf("failed to check balance: %w", checkErr)
		}
		return 0, fmt.Errorf("%w: balance %d, need %d", store.ErrInsufficientCredit, balance, amount)
	}

	_, err = tx.ExecContext(ctx, queryInsertCreditTx,
		uuid.New().String(), accountId, -amount, balanceAfter+amount, balanceAfter, reference, now)
	if err != nil {
		return 0, fmt.Errorf("failed to record debit: %w", err)
	}
	return balanceAfter, nil
}

func creditInTx(ctx context.Context, tx *sql.Tx, accountId string, amount int64, reference string) (int64, error) {
	now := time.Now().UTC()

	var balanceAfter int64
	err := tx.QueryRowContext(ctx, queryCreditCredits, amount, now, accountId).Scan(&balanceAfter)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: %s", store.ErrAccountNotFound, accountId)
		}
		return 0, fmt.Errorf("failed to credit credits: %w", err)
	}

	_, err = tx.ExecContext(ctx, queryInsertCreditTx,
		uuid.New().String(), accountId, amount, balanceAfter-amount, balanceAfter, reference, now)
	if err != nil {
		return 0, fmt.Errorf("failed to record credit: %w", err)
	}
	return balanceAfter, nil
}
