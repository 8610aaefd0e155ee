package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"buddy-sessions-go/internal/models"
	"buddy-sessions-go/internal/schedule"
	"buddy-sessions-go/internal/store"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

func (s *Service) CreateAccount(ctx context.Context, params store.CreateAccountParams) (*models.Account, error) {
	if params.Id == "" {
		return nil, fmt.Errorf("account id cannot be empty")
	}
	if params.Nickname == "" {
		return nil, fmt.Errorf("nickname cannot be empty")
	}
	if !params.Role.Valid() {
		return nil, fmt.Errorf("invalid role %q", params.Role)
	}
	if params.Credits < 0 {
		return nil, fmt.Errorf("initial credits cannot be negative, got %d", params.Credits)
	}

	grid := params.Grid
	if grid == nil {
		grid = schedule.NewGrid()
	}
	gridJSON, err := json.Marshal(grid)
	if err != nil {
		return nil, fmt.Errorf("failed to encode grid: %w", err)
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, queryInsertAccount,
		params.Id, params.Nickname, string(params.Role), params.Credits, string(gridJSON), now, now)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			if strings.Contains(err.Error(), "accounts.nickname") {
				return nil, fmt.Errorf("%w: %s", store.ErrNicknameTaken, params.Nickname)
			}
		}
		return nil, fmt.Errorf("failed to insert account: %w", err)
	}

	zap.L().Info("Account created",
		zap.String("id", params.Id),
		zap.String("nickname", params.Nickname),
		zap.String("role", string(params.Role)),
		zap.Int64("credits", params.Credits))

	return &models.Account{
		Id:        params.Id,
		Nickname:  params.Nickname,
		Role:      params.Role,
		Credits:   params.Credits,
		Grid:      grid,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *Service) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	row := s.db.QueryRowContext(ctx, querySelectAccount, id)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrAccountNotFound, id)
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

func (s *Service) ListAccounts(ctx context.Context) ([]models.Account, error) {
	return s.listAccounts(ctx, querySelectAccounts)
}

func (s *Service) ListBuddies(ctx context.Context) ([]models.Account, error) {
	return s.listAccounts(ctx, querySelectBuddies)
}

func (s *Service) listAccounts(ctx context.Context, query string) ([]models.Account, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var accounts []models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account rows: %w", err)
	}
	return accounts, nil
}

func (s *Service) UpdateGrid(ctx context.Context, accountId string, grid schedule.Grid) error {
	if grid == nil {
		grid = schedule.NewGrid()
	}
	gridJSON, err := json.Marshal(grid)
	if err != nil {
		return fmt.Errorf("failed to encode grid: %w", err)
	}

	result, err := s.db.ExecContext(ctx, queryUpdateGrid, string(gridJSON), time.Now().UTC(), accountId)
	if err != nil {
		return fmt.Errorf("failed to update grid: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", store.ErrAccountNotFound, accountId)
	}

	zap.L().Info("Availability grid updated", zap.String("account_id", accountId))
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (*models.Account, error) {
	var account models.Account
	var role, gridJSON string
	err := row.Scan(&account.Id, &account.Nickname, &role, &account.Credits, &gridJSON,
		&account.TotalSessions, &account.ReviewsCount, &account.AverageRating,
		&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return nil, err
	}
	account.Role = models.Role(role)
	if err := json.Unmarshal([]byte(gridJSON), &account.Grid); err != nil {
		return nil, fmt.Errorf("failed to decode grid for account %s: %w", account.Id, err)
	}
	return &account, nil
}

// seedDemoAccounts inserts a demo buddy and learner pair for local testing.
// Existing nicknames are left untouched.
func (s *Service) seedDemoAccounts(ctx context.Context) {
	buddyGrid := schedule.NewGrid()
	for _, day := range []schedule.Weekday{schedule.Monday, schedule.Wednesday, schedule.Friday} {
		_ = buddyGrid.Set(day, schedule.Morning)
		_ = buddyGrid.Set(day, schedule.Evening)
	}

	demos := []store.CreateAccountParams{
		{Id: uuid.New().String(), Nickname: "hana", Role: models.RoleBuddy, Grid: buddyGrid},
		{Id: uuid.New().String(), Nickname: "mina", Role: models.RoleLearner, Credits: 2},
	}
	for _, params := range demos {
		if _, err := s.CreateAccount(ctx, params); err != nil {
			if errors.Is(err, store.ErrNicknameTaken) {
				continue
			}
			zap.L().Error("Failed to seed demo account",
				zap.String("nickname", params.Nickname), zap.Error(err))
			continue
		}
		zap.L().Info("Demo account created", zap.String("nickname", params.Nickname))
	}
}
