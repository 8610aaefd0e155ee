package models

import "time"

// CreditEntry is one immutable row of the credit audit trail. The amount is
// negative for debits and positive for credits; balance_before and
// balance_after snapshot the account balance around the mutation.
type CreditEntry struct {
	Id            string    `json:"id" db:"id"`
	AccountId     string    `json:"account_id" db:"account_id"`
	Amount        int64     `json:"amount" db:"amount"`
	BalanceBefore int64     `json:"balance_before" db:"balance_before"`
	BalanceAfter  int64     `json:"balance_after" db:"balance_after"`
	Reference     string    `json:"reference,omitempty" db:"reference"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
