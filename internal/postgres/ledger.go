package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"buddy-sessions-go/internal/models"
	"buddy-sessions-go/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

func (s *Service) GetBalance(ctx context.Context, accountId string) (int64, error) {
	var credits int64
	err := s.pool.QueryRow(ctx, querySelectCredits, accountId).Scan(&credits)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: %s", store.ErrAccountNotFound, accountId)
		}
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return credits, nil
}

func (s *Service) DebitCredits(ctx context.Context, accountId string, amount int64, reference string) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("debit amount must be positive, got %d", amount)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	balanceAfter, err := debitInTx(ctx, tx, accountId, amount, reference)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Credits debited",
		zap.String("account_id", accountId),
		zap.Int64("amount", amount),
		zap.Int64("balance", balanceAfter),
		zap.String("reference", reference))
	return balanceAfter, nil
}

func (s *Service) CreditCredits(ctx context.Context, accountId string, amount int64, reference string) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("credit amount must be positive, got %d", amount)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	balanceAfter, err := creditInTx(ctx, tx, accountId, amount, reference)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
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

	rows, err := s.pool.Query(ctx, querySelectCreditHistory, accountId, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get credit history: %w", err)
	}
	defer rows.Close()

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

// debitInTx runs the guarded debit inside an open transaction and records
// the audit row. Shared by the standalone ledger operation and the booking
// unit.
func debitInTx(ctx context.Context, tx pgx.Tx, accountId string, amount int64, reference string) (int64, error) {
	now := time.Now().UTC()

	var balanceAfter int64
	err := tx.QueryRow(ctx, queryDebitCredits, amount, now, accountId, amount).Scan(&balanceAfter)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("failed to debit credits: %w", err)
		}
		// The guard matched nothing: missing account or not enough credit.
		var balance int64
		checkErr := tx.QueryRow(ctx, querySelectCredits, accountId).Scan(&balance)
		if errors.Is(checkErr, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: %s", store.ErrAccountNotFound, accountId)
		}
		if checkErr != nil {
			return 0, fmt.Errorf("failed to check balance: %w", checkErr)
		}
		return 0, fmt.Errorf("%w: balance %d, need %d", store.ErrInsufficientCredit, balance, amount)
	}

	_, err = tx.Exec(ctx, queryInsertCreditTx,
		uuid.New().String(), accountId, -amount, balanceAfter+amount, balanceAfter, reference, now)
	if err != nil {
		return 0, fmt.Errorf("failed to record debit: %w", err)
	}
	return balanceAfter, nil
}

func creditInTx(ctx context.Context, tx pgx.Tx, accountId string, amount int64, reference string) (int64, error) {
	now := time.Now().UTC()

	var balanceAfter int64
	err := tx.QueryRow(ctx, queryCreditCredits, amount, now, accountId).Scan(&balanceAfter)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: %s", store.ErrAccountNotFound, accountId)
		}
		return 0, fmt.Errorf("failed to credit credits: %w", err)
	}

	_, err = tx.Exec(ctx, queryInsertCreditTx,
		uuid.New().String(), accountId, amount, balanceAfter-amount, balanceAfter, reference, now)
	if err != nil {
		return 0, fmt.Errorf("failed to record credit: %w", err)
	}
	return balanceAfter, nil
}
