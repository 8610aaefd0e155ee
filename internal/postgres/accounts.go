package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"buddy-sessions-go/internal/models"
	"buddy-sessions-go/internal/schedule"
	"buddy-sessions-go/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// pgUniqueViolation is the SQLSTATE for unique constraint violations.
const pgUniqueViolation = "23505"

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
	_, err = s.pool.Exec(ctx, queryInsertAccount,
		params.Id, params.Nickname, string(params.Role), params.Credits, string(gridJSON), now, now)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == "idx_accounts_nickname" {
			return nil, fmt.Errorf("%w: %s", store.ErrNicknameTaken, params.Nickname)
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
	row := s.pool.QueryRow(ctx, querySelectAccount, id)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

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

	tag, err := s.pool.Exec(ctx, queryUpdateGrid, string(gridJSON), time.Now().UTC(), accountId)
	if err != nil {
		return fmt.Errorf("failed to update grid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", store.ErrAccountNotFound, accountId)
	}

	zap.L().Info("Availability grid updated", zap.String("account_id", accountId))
	return nil
}

// scanner covers pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (*models.Account, error) {
	var account models.Account
	var role string
	var gridJSON []byte
	err := row.Scan(&account.Id, &account.Nickname, &role, &account.Credits, &gridJSON,
		&account.TotalSessions, &account.ReviewsCount, &account.AverageRating,
		&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return nil, err
	}
	account.Role = models.Role(role)
	if err := json.Unmarshal(gridJSON, &account.Grid); err != nil {
		return nil, fmt.Errorf("failed to decode grid for account %s: %w", account.Id, err)
	}
	return &account, nil
}

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
