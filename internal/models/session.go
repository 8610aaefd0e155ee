package models

import (
	"fmt"
	"time"

	"buddy-sessions-go/internal/schedule"
)

// SessionStatus is the lifecycle state of a booking. Sessions are never
// deleted, only transitioned, so the history stays auditable.
type SessionStatus string

const (
	SessionRequested SessionStatus = "requested"
	SessionConfirmed SessionStatus = "confirmed"
	SessionDeclined  SessionStatus = "declined"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
)

func (s SessionStatus) Valid() bool {
	switch s {
	case SessionRequested, SessionConfirmed, SessionDeclined, SessionCompleted, SessionCancelled:
		return true
	}
	return false
}

func ParseSessionStatus(str string) (SessionStatus, error) {
	status := SessionStatus(str)
	if !status.Valid() {
		return "", fmt.Errorf("unknown session status %q", str)
	}
	return status, nil
}

// sessionEdges lists every legal lifecycle transition. Statuses without an
// entry are terminal.
var sessionEdges = map[SessionStatus][]SessionStatus{
	SessionRequested: {SessionConfirmed, SessionDeclined},
	SessionConfirmed: {SessionCompleted, SessionCancelled},
}

func (s SessionStatus) CanTransitionTo(to SessionStatus) bool {
	for _, next := range sessionEdges[s] {
		if next == to {
			return true
		}
	}
	return false
}

func (s SessionStatus) Terminal() bool {
	return len(sessionEdges[s]) == 0
}

// Session is one booking between a learner and a buddy for one slot. The
// slot is an immutable snapshot taken at creation time; later changes to the
// buddy's grid do not touch existing sessions.
type Session struct {
	Id        string        `json:"id" db:"id"`
	BuddyId   string        `json:"buddy_id" db:"buddy_id"`
	LearnerId string        `json:"learner_id" db:"learner_id"`
	Slot      schedule.Slot `json:"slot"`
	Status    SessionStatus `json:"status" db:"status"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" db:"updated_at"`
}

// AuthorizedActor reports whether actor may drive a transition out of the
// session's current status: only the buddy decides on a pending request;
// either party settles a confirmed session.
func (s *Session) AuthorizedActor(actor string) bool {
	if s.Status == SessionRequested {
		return actor == s.BuddyId
	}
	return actor == s.BuddyId || actor == s.LearnerId
}
