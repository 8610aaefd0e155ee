package models

import "time"

// SessionTransition is emitted after every committed session status change.
// Session creation is emitted with an empty Previous. Timestamps keep
// nanosecond precision so consumers can order events.
type SessionTransition struct {
	SessionId string        `json:"session_id"`
	Previous  SessionStatus `json:"previous,omitempty"`
	New       SessionStatus `json:"new"`
	At        time.Time     `json:"at"`
}

// BalanceChange is emitted after every committed credit balance mutation.
type BalanceChange struct {
	AccountId string    `json:"account_id"`
	Previous  int64     `json:"previous"`
	New       int64     `json:"new"`
	At        time.Time `json:"at"`
}
