// Package postgres implements the Postgres backend of the booking store on
// top of pgx. The same partial unique index over active sessions that guards
// the SQLite backend guards this one; unique violations surface as
// store.ErrSlotTaken.
package postgres

import (
	"context"
	"fmt"

	"buddy-sessions-go/internal/models"
	"buddy-sessions-go/internal/store"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Compile-time check: *Service must satisfy store.BookingStore.
var _ store.BookingStore = (*Service)(nil)

type Service struct {
	pool *pgxpool.Pool
}

func NewService(ctx context.Context, cfg models.DatabaseConfig) (*Service, error) {
	if cfg.PostgresDSN == "" {
		return nil, fmt.Errorf("postgres dsn cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("unable to parse postgres dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	poolCfg.MaxConnIdleTime = cfg.ConnMaxIdleTime

	zap.L().Info("Connecting to Postgres", zap.String("database", poolCfg.ConnConfig.Database))
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	service := &Service{pool: pool}
	if err := service.initSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}

	if cfg.SeedDemoAccounts {
		service.seedDemoAccounts(ctx)
	}

	zap.L().Info("Postgres service initialized successfully")
	return service, nil
}

func (s *Service) Close() {
	s.pool.Close()
}

func (s *Service) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		nickname TEXT NOT NULL,
		role TEXT NOT NULL CHECK (role IN ('learner', 'buddy')),
		credits BIGINT NOT NULL DEFAULT 0 CHECK (credits >= 0),
		grid JSONB NOT NULL DEFAULT '{}',
		total_sessions BIGINT NOT NULL DEFAULT 0,
		reviews_count BIGINT NOT NULL DEFAULT 0,
		average_rating DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_accounts_nickname
		ON accounts(LOWER(nickname));
	CREATE INDEX IF NOT EXISTS idx_accounts_role ON accounts(role);

	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		buddy_id TEXT NOT NULL REFERENCES accounts(id),
		learner_id TEXT NOT NULL REFERENCES accounts(id),
		slot_start TEXT NOT NULL,
		slot_bucket INTEGER NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('requested', 'confirmed', 'declined', 'completed', 'cancelled')),
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_active_slot
		ON sessions(buddy_id, slot_start)
		WHERE status IN ('requested', 'confirmed');

	CREATE INDEX IF NOT EXISTS idx_sessions_buddy ON sessions(buddy_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_learner ON sessions(learner_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions(status);
	CREATE INDEX IF NOT EXISTS idx_sessions_slot_start ON sessions(slot_start);

	CREATE TABLE IF NOT EXISTS credit_transactions (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL REFERENCES accounts(id),
		amount BIGINT NOT NULL,
		balance_before BIGINT NOT NULL,
		balance_after BIGINT NOT NULL,
		reference TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_credit_tx_account ON credit_transactions(account_id);
	CREATE INDEX IF NOT EXISTS idx_credit_tx_created_at ON credit_transactions(created_at);
	`

	_, err := s.pool.Exec(ctx, schema)
	return err
}
