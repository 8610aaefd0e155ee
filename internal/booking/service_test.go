package booking

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"buddy-sessions-go/internal/database"
	"buddy-sessions-go/internal/events"
	"buddy-sessions-go/internal/models"
	"buddy-sessions-go/internal/schedule"
	"buddy-sessions-go/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testNow is a Monday morning, 08:00 UTC.
var testNow = time.Date(2026, 9, 7, 8, 0, 0, 0, time.UTC)

func setupBookingTest(t *testing.T, cfg models.BookingConfig) (*Service, *events.Bus) {
	t.Helper()

	dbService, err := database.NewService(context.Background(), models.DatabaseConfig{
		Path:         filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns: 4,
		MaxIdleConns: 2,
		PingTimeout:  5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(dbService.Close)

	bus := events.NewBus()
	t.Cleanup(bus.Close)

	svc := NewService(dbService, bus, cfg)
	svc.now = func() time.Time { return testNow }
	return svc, bus
}

func createBuddyWithGrid(t *testing.T, svc *Service, nickname string) *models.Account {
	t.Helper()

	buddy, err := svc.CreateAccount(context.Background(), nickname, "buddy")
	require.NoError(t, err)

	grid := schedule.NewGrid()
	require.NoError(t, grid.Set(schedule.Monday, schedule.Morning))
	require.NoError(t, grid.Set(schedule.Wednesday, schedule.Evening))
	require.NoError(t, svc.UpdateAvailability(context.Background(), buddy.Id, grid))
	return buddy
}

func TestCreateAccount_LearnerGetsInitialCredits(t *testing.T) {
	svc, _ := setupBookingTest(t, models.BookingConfig{InitialLearnerCredits: 2})
	ctx := context.Background()

	learner, err := svc.CreateAccount(ctx, "mina", "learner")
	require.NoError(t, err)
	assert.Equal(t, int64(2), learner.Credits)

	buddy, err := svc.CreateAccount(ctx, "hana", "buddy")
	require.NoError(t, err)
	assert.Equal(t, int64(0), buddy.Credits)
}

func TestCreateAccount_InvalidRole(t *testing.T) {
	svc, _ := setupBookingTest(t, models.BookingConfig{})

	_, err := svc.CreateAccount(context.Background(), "mina", "admin")
	assert.Error(t, err)
}

func TestResolveSlots_RequiresBuddyRole(t *testing.T) {
	svc, _ := setupBookingTest(t, models.BookingConfig{InitialLearnerCredits: 2})
	ctx := context.Background()

	learner, err := svc.CreateAccount(ctx, "mina", "learner")
	require.NoError(t, err)

	_, err = svc.ResolveSlots(ctx, learner.Id)
	assert.ErrorIs(t, err, store.ErrWrongRole)
}

func TestResolveSlots_UsesConfiguredHorizon(t *testing.T) {
	svc, _ := setupBookingTest(t, models.BookingConfig{HorizonDays: 14})
	buddy := createBuddyWithGrid(t, svc, "hana")

	slots, err := svc.ResolveSlots(context.Background(), buddy.Id)
	require.NoError(t, err)
	// Two marked buckets per week over two weeks.
	assert.Len(t, slots, 4)
	for _, slot := range slots {
		assert.Equal(t, buddy.Id, slot.BuddyId)
		assert.True(t, schedule.WithinHorizon(slot, testNow, 14))
	}
}

func TestRequestBooking_HappyPath(t *testing.T) {
	svc, bus := setupBookingTest(t, models.BookingConfig{InitialLearnerCredits: 2})
	ctx := context.Background()

	buddy := createBuddyWithGrid(t, svc, "hana")
	learner, err := svc.CreateAccount(ctx, "mina", "learner")
	require.NoError(t, err)

	transitions, cancelTransitions := bus.SubscribeTransitions()
	defer cancelTransitions()
	balances, cancelBalances := bus.SubscribeBalances()
	defer cancelBalances()

	slot := schedule.NewSlot(buddy.Id, testNow, schedule.Morning)
	session, err := svc.RequestBooking(ctx, models.BookingRequest{
		LearnerId: learner.Id,
		BuddyId:   buddy.Id,
		Slot:      slot,
	})
	require.NoError(t, err)
	assert.Equal(t, models.SessionRequested, session.Status)
	assert.True(t, session.Slot.Equal(slot))

	balance, err := svc.CreditBalance(ctx, learner.Id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), balance)

	transition := <-transitions
	assert.Equal(t, session.Id, transition.SessionId)
	assert.Equal(t, models.SessionStatus(""), transition.Previous)
	assert.Equal(t, models.SessionRequested, transition.New)

	change := <-balances
	assert.Equal(t, learner.Id, change.AccountId)
	assert.Equal(t, int64(2), change.Previous)
	assert.Equal(t, int64(1), change.New)
}

func TestRequestBooking_SlotNotOffered(t *testing.T) {
	svc, _ := setupBookingTest(t, models.BookingConfig{InitialLearnerCredits: 2})
	ctx := context.Background()

	buddy := createBuddyWithGrid(t, svc, "hana")
	learner, err := svc.CreateAccount(ctx, "mina", "learner")
	require.NoError(t, err)

	// Monday evening is not on the grid.
	slot := schedule.NewSlot(buddy.Id, testNow, schedule.Evening)
	_, err = svc.RequestBooking(ctx, models.BookingRequest{
		LearnerId: learner.Id,
		BuddyId:   buddy.Id,
		Slot:      slot,
	})
	assert.ErrorIs(t, err, store.ErrSlotUnavailable)
}

func TestRequestBooking_OutsideHorizon(t *testing.T) {
	svc, _ := setupBookingTest(t, models.BookingConfig{HorizonDays: 7, InitialLearnerCredits: 2})
	ctx := context.Background()

	buddy := createBuddyWithGrid(t, svc, "hana")
	learner, err := svc.CreateAccount(ctx, "mina", "learner")
	require.NoError(t, err)

	// The Monday after next falls outside a 7-day window.
	slot := schedule.NewSlot(buddy.Id, testNow.AddDate(0, 0, 7), schedule.Morning)
	_, err = svc.RequestBooking(ctx, models.BookingRequest{
		LearnerId: learner.Id,
		BuddyId:   buddy.Id,
		Slot:      slot,
	})
	assert.ErrorIs(t, err, store.ErrSlotUnavailable)
}

func TestRequestBooking_MalformedSlot(t *testing.T) {
	svc, _ := setupBookingTest(t, models.BookingConfig{InitialLearnerCredits: 2})
	ctx := context.Background()

	buddy := createBuddyWithGrid(t, svc, "hana")
	learner, err := svc.CreateAccount(ctx, "mina", "learner")
	require.NoError(t, err)

	slot := schedule.NewSlot(buddy.Id, testNow, schedule.Morning)
	slot.Start = slot.Start.Add(17 * time.Minute)
	_, err = svc.RequestBooking(ctx, models.BookingRequest{
		LearnerId: learner.Id,
		BuddyId:   buddy.Id,
		Slot:      slot,
	})
	assert.ErrorIs(t, err, store.ErrSlotUnavailable)
}

func TestRequestBooking_SlotBuddyMismatch(t *testing.T) {
	svc, _ := setupBookingTest(t, models.BookingConfig{InitialLearnerCredits: 2})
	ctx := context.Background()

	buddy := createBuddyWithGrid(t, svc, "hana")
	other := createBuddyWithGrid(t, svc, "junho")
	learner, err := svc.CreateAccount(ctx, "mina", "learner")
	require.NoError(t, err)

	slot := schedule.NewSlot(other.Id, testNow, schedule.Morning)
	_, err = svc.RequestBooking(ctx, models.BookingRequest{
		LearnerId: learner.Id,
		BuddyId:   buddy.Id,
		Slot:      slot,
	})
	assert.ErrorIs(t, err, store.ErrSlotUnavailable)
}

func TestRequestBooking_RoleChecks(t *testing.T) {
	svc, _ := setupBookingTest(t, models.BookingConfig{InitialLearnerCredits: 2})
	ctx := context.Background()

	buddy := createBuddyWithGrid(t, svc, "hana")
	learner, err := svc.CreateAccount(ctx, "mina", "learner")
	require.NoError(t, err)

	slot := schedule.NewSlot(learner.Id, testNow, schedule.Morning)
	_, err = svc.RequestBooking(ctx, models.BookingRequest{
		LearnerId: buddy.Id,
		BuddyId:   learner.Id,
		Slot:      slot,
	})
	assert.ErrorIs(t, err, store.ErrWrongRole)
}

func TestTransitionSession_DeclineWithoutRefundByDefault(t *testing.T) {
	svc, _ := setupBookingTest(t, models.BookingConfig{InitialLearnerCredits: 2})
	ctx := context.Background()

	buddy := createBuddyWithGrid(t, svc, "hana")
	learner, err := svc.CreateAccount(ctx, "mina", "learner")
	require.NoError(t, err)

	slot := schedule.NewSlot(buddy.Id, testNow, schedule.Morning)
	session, err := svc.RequestBooking(ctx, models.BookingRequest{
		LearnerId: learner.Id, BuddyId: buddy.Id, Slot: slot,
	})
	require.NoError(t, err)

	declined, err := svc.TransitionSession(ctx, session.Id, buddy.Id, "declined")
	require.NoError(t, err)
	assert.Equal(t, models.SessionDeclined, declined.Status)

	balance, err := svc.CreditBalance(ctx, learner.Id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), balance, "credit stays spent when refunds are off")
}

func TestTransitionSession_DeclineRefundsWhenEnabled(t *testing.T) {
	svc, bus := setupBookingTest(t, models.BookingConfig{InitialLearnerCredits: 2, RefundOnDecline: true})
	ctx := context.Background()

	buddy := createBuddyWithGrid(t, svc, "hana")
	learner, err := svc.CreateAccount(ctx, "mina", "learner")
	require.NoError(t, err)

	slot := schedule.NewSlot(buddy.Id, testNow, schedule.Morning)
	session, err := svc.RequestBooking(ctx, models.BookingRequest{
		LearnerId: learner.Id, BuddyId: buddy.Id, Slot: slot,
	})
	require.NoError(t, err)

	balances, cancelBalances := bus.SubscribeBalances()
	defer cancelBalances()

	_, err = svc.TransitionSession(ctx, session.Id, buddy.Id, "declined")
	require.NoError(t, err)

	balance, err := svc.CreditBalance(ctx, learner.Id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), balance)

	change := <-balances
	assert.Equal(t, learner.Id, change.AccountId)
	assert.Equal(t, int64(1), change.Previous)
	assert.Equal(t, int64(2), change.New)
}

func TestTransitionSession_UnknownTarget(t *testing.T) {
	svc, _ := setupBookingTest(t, models.BookingConfig{InitialLearnerCredits: 2})
	ctx := context.Background()

	buddy := createBuddyWithGrid(t, svc, "hana")
	learner, err := svc.CreateAccount(ctx, "mina", "learner")
	require.NoError(t, err)

	slot := schedule.NewSlot(buddy.Id, testNow, schedule.Morning)
	session, err := svc.RequestBooking(ctx, models.BookingRequest{
		LearnerId: learner.Id, BuddyId: buddy.Id, Slot: slot,
	})
	require.NoError(t, err)

	_, err = svc.TransitionSession(ctx, session.Id, buddy.Id, "rescheduled")
	assert.ErrorIs(t, err, store.ErrInvalidTransition)
}

func TestTransitionSession_FullLifecycle(t *testing.T) {
	svc, bus := setupBookingTest(t, models.BookingConfig{InitialLearnerCredits: 2})
	ctx := context.Background()

	buddy := createBuddyWithGrid(t, svc, "hana")
	learner, err := svc.CreateAccount(ctx, "mina", "learner")
	require.NoError(t, err)

	transitions, cancelTransitions := bus.SubscribeTransitions()
	defer cancelTransitions()

	slot := schedule.NewSlot(buddy.Id, testNow, schedule.Morning)
	session, err := svc.RequestBooking(ctx, models.BookingRequest{
		LearnerId: learner.Id, BuddyId: buddy.Id, Slot: slot,
	})
	require.NoError(t, err)

	_, err = svc.TransitionSession(ctx, session.Id, buddy.Id, "confirmed")
	require.NoError(t, err)
	completed, err := svc.TransitionSession(ctx, session.Id, learner.Id, "completed")
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, completed.Status)

	var sequence []models.SessionStatus
	for i := 0; i < 3; i++ {
		sequence = append(sequence, (<-transitions).New)
	}
	assert.Equal(t, []models.SessionStatus{
		models.SessionRequested,
		models.SessionConfirmed,
		models.SessionCompleted,
	}, sequence)

	refreshed, err := svc.GetAccount(ctx, buddy.Id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), refreshed.TotalSessions)
}
