// Package database implements the SQLite backend of the booking store.
// SQLite serializes writers, so the booking transaction's atomicity rests on
// a single BEGIN..COMMIT unit plus a partial unique index over active
// sessions as a backstop.
package database

import (
	"context"
	"database/sql"
	"fmt"

	"buddy-sessions-go/internal/models"
	"buddy-sessions-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Compile-time check: *Service must satisfy store.BookingStore.
var _ store.BookingStore = (*Service)(nil)

type Service struct {
	db *sql.DB
}

func NewService(ctx context.Context, cfg models.DatabaseConfig) (*Service, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns < 0 {
		return nil, fmt.Errorf("max idle connections cannot be negative, got %d", cfg.MaxIdleConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}

	zap.L().Info("Opening SQLite database", zap.String("file", cfg.Path))
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	service := &Service{db: db}
	if err := service.initSchema(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}

	if cfg.SeedDemoAccounts {
		service.seedDemoAccounts(ctx)
	}

	zap.L().Info("Database service initialized successfully")
	return service, nil
}

func (s *Service) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close database connection", zap.Error(err))
	}
}

func (s *Service) initSchema() error {
	schema := `
	-- Accounts: identity, role, credit balance and availability grid
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		nickname TEXT NOT NULL COLLATE NOCASE UNIQUE,
		role TEXT NOT NULL CHECK (role IN ('learner', 'buddy')),
		credits INTEGER NOT NULL DEFAULT 0 CHECK (credits >= 0),
		grid TEXT NOT NULL DEFAULT '{}',
		total_sessions INTEGER NOT NULL DEFAULT 0,
		reviews_count INTEGER NOT NULL DEFAULT 0,
		average_rating REAL NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_accounts_role ON accounts(role);

	-- Sessions: bookings are never deleted, only transitioned
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		buddy_id TEXT NOT NULL REFERENCES accounts(id),
		learner_id TEXT NOT NULL REFERENCES accounts(id),
		slot_start TEXT NOT NULL,
		slot_bucket INTEGER NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('requested', 'confirmed', 'declined', 'completed', 'cancelled')),
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	-- At most one active reservation per (buddy, slot instant)
	CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_active_slot
		ON sessions(buddy_id, slot_start)
		WHERE status IN ('requested', 'confirmed');

	CREATE INDEX IF NOT EXISTS idx_sessions_buddy ON sessions(buddy_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_learner ON sessions(learner_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions(status);
	CREATE INDEX IF NOT EXISTS idx_sessions_slot_start ON sessions(slot_start);

	-- Credit audit trail (cold data; accounts.credits is the hot balance)
	CREATE TABLE IF NOT EXISTS credit_transactions (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL REFERENCES accounts(id),
		amount INTEGER NOT NULL,
		balance_before INTEGER NOT NULL,
		balance_after INTEGER NOT NULL,
		reference TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_credit_tx_account ON credit_transactions(account_id);
	CREATE INDEX IF NOT EXISTS idx_credit_tx_created_at ON credit_transactions(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}
