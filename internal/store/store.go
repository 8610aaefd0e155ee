// Package store defines the persistence contract shared by every backend
// implementation of the booking core.
package store

import (
	"context"
	"errors"
	"time"

	"buddy-sessions-go/internal/models"
	"buddy-sessions-go/internal/schedule"
)

// Sentinel errors shared across all backend implementations. Callers match
// with errors.Is; backends may wrap them with additional context.
var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrNicknameTaken      = errors.New("nickname already taken")
	ErrWrongRole          = errors.New("account role does not allow this operation")
	ErrSlotUnavailable    = errors.New("slot is not offered by this buddy")
	ErrSlotTaken          = errors.New("slot already has an active booking")
	ErrInsufficientCredit = errors.New("insufficient credit")
	ErrInvalidTransition  = errors.New("invalid session transition")
	ErrUnauthorized       = errors.New("actor not authorized for this transition")
)

// CreateAccountParams contains the parameters for registering an account.
type CreateAccountParams struct {
	Id       string
	Nickname string
	Role     models.Role
	Credits  int64
	Grid     schedule.Grid
}

// BookSessionParams describes the atomic booking unit: one session insert in
// requested status plus one credit debit of Cost from the learner, committed
// together or not at all.
type BookSessionParams struct {
	SessionId string
	LearnerId string
	BuddyId   string
	Slot      schedule.Slot
	Cost      int64
	Now       time.Time
}

// BookingResult reports a committed booking along with the learner balance
// around the debit.
type BookingResult struct {
	Session       *models.Session
	BalanceBefore int64
	BalanceAfter  int64
}

// TransitionParams moves a session to Target on behalf of ActorId. A Refund
// greater than zero credits that many back to the learner inside the same
// transaction.
type TransitionParams struct {
	SessionId string
	ActorId   string
	Target    models.SessionStatus
	Refund    int64
	Now       time.Time
}

// TransitionResult reports a committed transition. BalanceBefore and
// BalanceAfter are only meaningful when Refunded is non-zero.
type TransitionResult struct {
	Session       *models.Session
	Previous      models.SessionStatus
	Refunded      int64
	BalanceBefore int64
	BalanceAfter  int64
}

// SessionFilter narrows ListSessions. Zero fields are ignored.
type SessionFilter struct {
	BuddyId   string
	LearnerId string
	Status    models.SessionStatus
}

// BookingStore defines the contract that every backend (SQLite, Postgres)
// must satisfy. BookSession and TransitionSession are the only mutating
// entry points that touch more than one row; both guarantee that a failure
// leaves zero observable mutation.
type BookingStore interface {
	// --- Accounts ---
	CreateAccount(ctx context.Context, params CreateAccountParams) (*models.Account, error)
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)
	ListBuddies(ctx context.Context) ([]models.Account, error)
	UpdateGrid(ctx context.Context, accountId string, grid schedule.Grid) error

	// --- Credit ledger ---
	GetBalance(ctx context.Context, accountId string) (int64, error)
	DebitCredits(ctx context.Context, accountId string, amount int64, reference string) (int64, error)
	CreditCredits(ctx context.Context, accountId string, amount int64, reference string) (int64, error)
	GetCreditHistory(ctx context.Context, accountId string, limit, offset int) ([]models.CreditEntry, error)

	// --- Sessions ---
	BookSession(ctx context.Context, params BookSessionParams) (*BookingResult, error)
	GetSession(ctx context.Context, id string) (*models.Session, error)
	ListSessions(ctx context.Context, filter SessionFilter) ([]models.Session, error)
	TransitionSession(ctx context.Context, params TransitionParams) (*TransitionResult, error)

	// --- Lifecycle ---
	Close()
}
