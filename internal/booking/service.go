// Package booking is the domain core: it validates booking requests against
// availability and policy, drives the atomic store transactions, and emits
// events for committed changes.
package booking

import (
	"context"
	"fmt"
	"time"

	"buddy-sessions-go/internal/events"
	"buddy-sessions-go/internal/models"
	"buddy-sessions-go/internal/schedule"
	"buddy-sessions-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultHorizonDays = 7
	defaultSessionCost = 1
)

type Service struct {
	store store.BookingStore
	bus   *events.Bus
	cfg   models.BookingConfig
	now   func() time.Time
}

func NewService(st store.BookingStore, bus *events.Bus, cfg models.BookingConfig) *Service {
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = defaultHorizonDays
	}
	if cfg.SessionCost <= 0 {
		cfg.SessionCost = defaultSessionCost
	}
	return &Service{
		store: st,
		bus:   bus,
		cfg:   cfg,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// HorizonDays reports the configured booking window length.
func (s *Service) HorizonDays() int {
	return s.cfg.HorizonDays
}

// CreateAccount registers a new account. Learners start with the configured
// initial credit grant, buddies with zero.
func (s *Service) CreateAccount(ctx context.Context, nickname, role string) (*models.Account, error) {
	parsedRole, err := models.ParseRole(role)
	if err != nil {
		return nil, err
	}

	var credits int64
	if parsedRole == models.RoleLearner {
		credits = s.cfg.InitialLearnerCredits
	}

	account, err := s.store.CreateAccount(ctx, store.CreateAccountParams{
		Id:       uuid.New().String(),
		Nickname: nickname,
		Role:     parsedRole,
		Credits:  credits,
	})
	if err != nil {
		return nil, err
	}

	if credits > 0 {
		s.bus.PublishBalance(models.BalanceChange{
			AccountId: account.Id,
			Previous:  0,
			New:       credits,
			At:        s.now(),
		})
	}
	return account, nil
}

func (s *Service) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	return s.store.GetAccount(ctx, id)
}

func (s *Service) ListAccounts(ctx context.Context) ([]models.Account, error) {
	return s.store.ListAccounts(ctx)
}

func (s *Service) ListBuddies(ctx context.Context) ([]models.Account, error) {
	return s.store.ListBuddies(ctx)
}

// UpdateAvailability replaces the account's grid. Existing sessions keep
// their slot snapshot and are not affected.
func (s *Service) UpdateAvailability(ctx context.Context, accountId string, grid schedule.Grid) error {
	return s.store.UpdateGrid(ctx, accountId, grid)
}

func (s *Service) CreditBalance(ctx context.Context, accountId string) (int64, error) {
	return s.store.GetBalance(ctx, accountId)
}

func (s *Service) CreditHistory(ctx context.Context, accountId string, limit, offset int) ([]models.CreditEntry, error) {
	if _, err := s.store.GetAccount(ctx, accountId); err != nil {
		return nil, err
	}
	return s.store.GetCreditHistory(ctx, accountId, limit, offset)
}

// TopUpCredits grants credits to an account outside of a session lifecycle.
func (s *Service) TopUpCredits(ctx context.Context, accountId string, amount int64, reference string) (int64, error) {
	balance, err := s.store.CreditCredits(ctx, accountId, amount, reference)
	if err != nil {
		return 0, err
	}
	s.bus.PublishBalance(models.BalanceChange{
		AccountId: accountId,
		Previous:  balance - amount,
		New:       balance,
		At:        s.now(),
	})
	return balance, nil
}

// ResolveSlots returns the bookable slots for a buddy over the configured
// horizon. Taken slots are not filtered here; booking them fails with
// ErrSlotTaken.
func (s *Service) ResolveSlots(ctx context.Context, buddyId string) ([]schedule.Slot, error) {
	buddy, err := s.store.GetAccount(ctx, buddyId)
	if err != nil {
		return nil, err
	}
	if buddy.Role != models.RoleBuddy {
		return nil, fmt.Errorf("%w: account %s is a %s", store.ErrWrongRole, buddyId, buddy.Role)
	}
	return schedule.Resolve(buddyId, buddy.Grid, s.now(), s.cfg.HorizonDays), nil
}

// RequestBooking validates the request against roles, the buddy's grid and
// the booking horizon, then runs the atomic book-and-debit transaction.
// Precondition failures surface in a fixed order: offerability first, then
// slot contention, then credit.
func (s *Service) RequestBooking(ctx context.Context, req models.BookingRequest) (*models.Session, error) {
	slot := req.Slot
	if slot.BuddyId == "" {
		slot.BuddyId = req.BuddyId
	}
	if slot.BuddyId != req.BuddyId {
		return nil, fmt.Errorf("%w: slot belongs to buddy %s, not %s", store.ErrSlotUnavailable, slot.BuddyId, req.BuddyId)
	}
	if err := slot.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrSlotUnavailable, err)
	}

	buddy, err := s.store.GetAccount(ctx, req.BuddyId)
	if err != nil {
		return nil, err
	}
	if buddy.Role != models.RoleBuddy {
		return nil, fmt.Errorf("%w: account %s is a %s", store.ErrWrongRole, req.BuddyId, buddy.Role)
	}
	learner, err := s.store.GetAccount(ctx, req.LearnerId)
	if err != nil {
		return nil, err
	}
	if learner.Role != models.RoleLearner {
		return nil, fmt.Errorf("%w: account %s is a %s", store.ErrWrongRole, req.LearnerId, learner.Role)
	}

	now := s.now()
	if !schedule.WithinHorizon(slot, now, s.cfg.HorizonDays) {
		return nil, fmt.Errorf("%w: slot %s is outside the %d-day booking window",
			store.ErrSlotUnavailable, slot.Key(), s.cfg.HorizonDays)
	}
	if !buddy.Grid.Has(slot.Weekday(), slot.Bucket) {
		return nil, fmt.Errorf("%w: buddy %s does not offer %s on %s",
			store.ErrSlotUnavailable, req.BuddyId, slot.Bucket, slot.Weekday())
	}

	result, err := s.store.BookSession(ctx, store.BookSessionParams{
		SessionId: uuid.New().String(),
		LearnerId: req.LearnerId,
		BuddyId:   req.BuddyId,
		Slot:      slot,
		Cost:      s.cfg.SessionCost,
		Now:       now,
	})
	if err != nil {
		return nil, err
	}

	s.bus.PublishTransition(models.SessionTransition{
		SessionId: result.Session.Id,
		New:       models.SessionRequested,
		At:        now,
	})
	s.bus.PublishBalance(models.BalanceChange{
		AccountId: req.LearnerId,
		Previous:  result.BalanceBefore,
		New:       result.BalanceAfter,
		At:        now,
	})
	return result.Session, nil
}

func (s *Service) GetSession(ctx context.Context, id string) (*models.Session, error) {
	return s.store.GetSession(ctx, id)
}

func (s *Service) ListSessions(ctx context.Context, filter store.SessionFilter) ([]models.Session, error) {
	return s.store.ListSessions(ctx, filter)
}

// TransitionSession moves a session to target on behalf of actorId. When the
// refund-on-decline policy is active, a decline or cancel credits the
// session cost back to the learner inside the same transaction.
func (s *Service) TransitionSession(ctx context.Context, sessionId, actorId, target string) (*models.Session, error) {
	parsedTarget, err := models.ParseSessionStatus(target)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidTransition, err)
	}

	var refund int64
	if s.cfg.RefundOnDecline &&
		(parsedTarget == models.SessionDeclined || parsedTarget == models.SessionCancelled) {
		refund = s.cfg.SessionCost
	}

	now := s.now()
	result, err := s.store.TransitionSession(ctx, store.TransitionParams{
		SessionId: sessionId,
		ActorId:   actorId,
		Target:    parsedTarget,
		Refund:    refund,
		Now:       now,
	})
	if err != nil {
		return nil, err
	}

	s.bus.PublishTransition(models.SessionTransition{
		SessionId: result.Session.Id,
		Previous:  result.Previous,
		New:       parsedTarget,
		At:        now,
	})
	if result.Refunded > 0 {
		s.bus.PublishBalance(models.BalanceChange{
			AccountId: result.Session.LearnerId,
			Previous:  result.BalanceBefore,
			New:       result.BalanceAfter,
			At:        now,
		})
	}

	zap.L().Info("Session transition applied",
		zap.String("session_id", sessionId),
		zap.String("target", target),
		zap.Int64("refunded", result.Refunded))
	return result.Session, nil
}
