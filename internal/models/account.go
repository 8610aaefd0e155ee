package models

import (
	"fmt"
	"time"

	"buddy-sessions-go/internal/schedule"
)

// Role determines what an account can do: learners spend credits to book
// sessions, buddies offer availability and decide on requests. The role is
// immutable after creation.
type Role string

const (
	RoleLearner Role = "learner"
	RoleBuddy   Role = "buddy"
)

func (r Role) Valid() bool {
	return r == RoleLearner || r == RoleBuddy
}

func ParseRole(s string) (Role, error) {
	role := Role(s)
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return role, nil
}

// Account represents one platform user. Credits are only spent by learners;
// the grid holds offered availability for buddies and preferred times for
// learners. The aggregate stats are maintained for buddies only.
type Account struct {
	Id            string        `json:"id" db:"id"`
	Nickname      string        `json:"nickname" db:"nickname"`
	Role          Role          `json:"role" db:"role"`
	Credits       int64         `json:"credits" db:"credits"`
	Grid          schedule.Grid `json:"grid" db:"grid"`
	TotalSessions int64         `json:"total_sessions" db:"total_sessions"`
	ReviewsCount  int64         `json:"reviews_count" db:"reviews_count"`
	AverageRating float64       `json:"average_rating" db:"average_rating"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}
