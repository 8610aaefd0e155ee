package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"buddy-sessions-go/internal/models"
	"buddy-sessions-go/internal/schedule"
	"buddy-sessions-go/internal/store"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// BookSession creates a session in requested status and debits the learner
// inside one transaction. Fixed order: slot-uniqueness check first, then the
// ledger debit; the partial unique index on active sessions backstops the
// check against racing writers.
func (s *Service) BookSession(ctx context.Context, params store.BookSessionParams) (*store.BookingResult, error) {
	zap.L().Info("Booking session",
		zap.String("session_id", params.SessionId),
		zap.String("learner_id", params.LearnerId),
		zap.String("buddy_id", params.BuddyId),
		zap.String("slot", params.Slot.Key()),
		zap.Int64("cost", params.Cost))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	slotKey := params.Slot.Key()
	var taken bool
	if err := tx.QueryRowContext(ctx, queryActiveSlotExists, params.BuddyId, slotKey).Scan(&taken); err != nil {
		return nil, fmt.Errorf("failed to check slot: %w", err)
	}
	if taken {
		return nil, fmt.Errorf("%w: buddy %s at %s", store.ErrSlotTaken, params.BuddyId, slotKey)
	}

	balanceAfter, err := debitInTx(ctx, tx, params.LearnerId, params.Cost, params.SessionId)
	if err != nil {
		return nil, err
	}

	now := params.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	_, err = tx.ExecContext(ctx, queryInsertSession,
		params.SessionId, params.BuddyId, params.LearnerId,
		slotKey, int(params.Slot.Bucket), string(models.SessionRequested), now, now)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, fmt.Errorf("%w: buddy %s at %s", store.ErrSlotTaken, params.BuddyId, slotKey)
		}
		return nil, fmt.Errorf("failed to insert session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Session booked",
		zap.String("session_id", params.SessionId),
		zap.Int64("learner_balance", balanceAfter))

	return &store.BookingResult{
		Session: &models.Session{
			Id:        params.SessionId,
			BuddyId:   params.BuddyId,
			LearnerId: params.LearnerId,
			Slot:      params.Slot,
			Status:    models.SessionRequested,
			CreatedAt: now,
			UpdatedAt: now,
		},
		BalanceBefore: balanceAfter + params.Cost,
		BalanceAfter:  balanceAfter,
	}, nil
}

func (s *Service) GetSession(ctx context.Context, id string) (*models.Session, error) {
	row := s.db.QueryRowContext(ctx, querySelectSession, id)
	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrSessionNotFound, id)
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

func (s *Service) ListSessions(ctx context.Context, filter store.SessionFilter) ([]models.Session, error) {
	query := `
		SELECT id, buddy_id, learner_id, slot_start, slot_bucket, status, created_at, updated_at
		FROM sessions`
	var conditions []string
	var args []any
	if filter.BuddyId != "" {
		conditions = append(conditions, "buddy_id = ?")
		args = append(args, filter.BuddyId)
	}
	if filter.LearnerId != "" {
		conditions = append(conditions, "learner_id = ?")
		args = append(args, filter.LearnerId)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}
	for i, condition := range conditions {
		if i == 0 {
			query += " WHERE " + condition
		} else {
			query += " AND " + condition
		}
	}
	query += " ORDER BY slot_start ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var sessions []models.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session rows: %w", err)
	}
	return sessions, nil
}

// TransitionSession validates actor authority and edge legality against the
// current status and applies the transition, all inside one transaction.
// When Refund is set, the learner is credited back in the same unit.
func (s *Service) TransitionSession(ctx context.Context, params store.TransitionParams) (*store.TransitionResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, querySelectSession, params.SessionId)
	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrSessionNotFound, params.SessionId)
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	if !session.AuthorizedActor(params.ActorId) {
		return nil, fmt.Errorf("%w: actor %s on session %s", store.ErrUnauthorized, params.ActorId, session.Id)
	}
	if !session.Status.CanTransitionTo(params.Target) {
		return nil, fmt.Errorf("%w: %s -> %s", store.ErrInvalidTransition, session.Status, params.Target)
	}

	now := params.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	if _, err := tx.ExecContext(ctx, queryUpdateSessionStatus, string(params.Target), now, session.Id); err != nil {
		return nil, fmt.Errorf("failed to update session status: %w", err)
	}

	if params.Target == models.SessionCompleted {
		if _, err := tx.ExecContext(ctx, queryBumpTotalSessions, now, session.BuddyId); err != nil {
			return nil, fmt.Errorf("failed to update buddy stats: %w", err)
		}
	}

	result := &store.TransitionResult{Previous: session.Status}
	if params.Refund > 0 {
		balanceAfter, err := creditInTx(ctx, tx, session.LearnerId, params.Refund, session.Id)
		if err != nil {
			return nil, err
		}
		result.Refunded = params.Refund
		result.BalanceBefore = balanceAfter - params.Refund
		result.BalanceAfter = balanceAfter
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	session.Status = params.Target
	session.UpdatedAt = now
	result.Session = session

	zap.L().Info("Session transitioned",
		zap.String("session_id", session.Id),
		zap.String("previous", string(result.Previous)),
		zap.String("new", string(params.Target)),
		zap.Int64("refunded", result.Refunded))
	return result, nil
}

func scanSession(row scanner) (*models.Session, error) {
	var session models.Session
	var slotStart, status string
	var bucket int
	err := row.Scan(&session.Id, &session.BuddyId, &session.LearnerId,
		&slotStart, &bucket, &status, &session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		return nil, err
	}

	start, err := time.Parse(time.RFC3339, slotStart)
	if err != nil {
		return nil, fmt.Errorf("failed to parse slot start %q: %w", slotStart, err)
	}
	session.Slot = schedule.Slot{
		BuddyId: session.BuddyId,
		Start:   start,
		Bucket:  schedule.Bucket(bucket),
	}
	session.Status = models.SessionStatus(status)
	return &session, nil
}
