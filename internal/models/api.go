package models

import "buddy-sessions-go/internal/schedule"

// CreateAccountRequest registers a new account with an immutable role.
type CreateAccountRequest struct {
	Nickname string `json:"nickname"`
	Role     string `json:"role"`
}

// UpdateGridRequest replaces an account's availability (buddy) or preferred
// time (learner) grid.
type UpdateGridRequest struct {
	Grid schedule.Grid `json:"grid"`
}

// BookingRequest asks for a session with a buddy at a concrete slot.
type BookingRequest struct {
	LearnerId string        `json:"learner_id"`
	BuddyId   string        `json:"buddy_id"`
	Slot      schedule.Slot `json:"slot"`
}

// TransitionRequest moves a session to a target lifecycle status on behalf
// of the acting party.
type TransitionRequest struct {
	ActorId string `json:"actor_id"`
	Target  string `json:"target"`
}

// SlotsResponse lists the bookable slots resolved for one buddy.
type SlotsResponse struct {
	BuddyId     string          `json:"buddy_id"`
	HorizonDays int             `json:"horizon_days"`
	Slots       []schedule.Slot `json:"slots"`
}

// CreditsResponse reports an account's balance and recent ledger entries.
type CreditsResponse struct {
	AccountId string        `json:"account_id"`
	Balance   int64         `json:"balance"`
	History   []CreditEntry `json:"history,omitempty"`
}

// ErrorResponse is the uniform error body for the HTTP surface.
type ErrorResponse struct {
	Error string `json:"error"`
}
