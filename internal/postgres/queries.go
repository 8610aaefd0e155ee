package postgres

// Account queries
const (
	queryInsertAccount = `
		INSERT INTO accounts (id, nickname, role, credits, grid, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	querySelectAccount = `
		SELECT id, nickname, role, credits, grid, total_sessions, reviews_count, average_rating, created_at, updated_at
		FROM accounts
		WHERE id = $1`

	querySelectAccounts = `
		SELECT id, nickname, role, credits, grid, total_sessions, reviews_count, average_rating, created_at, updated_at
		FROM accounts
		ORDER BY nickname`

	querySelectBuddies = `
		SELECT id, nickname, role, credits, grid, total_sessions, reviews_count, average_rating, created_at, updated_at
		FROM accounts
		WHERE role = 'buddy'
		ORDER BY nickname`

	queryUpdateGrid = `
		UPDATE accounts SET grid = $1, updated_at = $2 WHERE id = $3`

	queryBumpTotalSessions = `
		UPDATE accounts SET total_sessions = total_sessions + 1, updated_at = $1 WHERE id = $2`
)

// Ledger queries. The debit guard (credits >= $4) is what enforces the
// non-negative balance under concurrency.
const (
	querySelectCredits = `
		SELECT credits FROM accounts WHERE id = $1`

	queryDebitCredits = `
		UPDATE accounts SET credits = credits - $1, updated_at = $2
		WHERE id = $3 AND credits >= $4
		RETURNING credits`

	queryCreditCredits = `
		UPDATE accounts SET credits = credits + $1, updated_at = $2
		WHERE id = $3
		RETURNING credits`

	queryInsertCreditTx = `
		INSERT INTO credit_transactions (id, account_id, amount, balance_before, balance_after, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	querySelectCreditHistory = `
		SELECT id, account_id, amount, balance_before, balance_after, reference, created_at
		FROM credit_transactions
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
)

// Session queries
const (
	queryActiveSlotExists = `
		SELECT EXISTS (
			SELECT 1 FROM sessions
			WHERE buddy_id = $1 AND slot_start = $2 AND status IN ('requested', 'confirmed')
		)`

	queryInsertSession = `
		INSERT INTO sessions (id, buddy_id, learner_id, slot_start, slot_bucket, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	querySelectSession = `
		SELECT id, buddy_id, learner_id, slot_start, slot_bucket, status, created_at, updated_at
		FROM sessions
		WHERE id = $1`

	querySelectSessionForUpdate = `
		SELECT id, buddy_id, learner_id, slot_start, slot_bucket, status, created_at, updated_at
		FROM sessions
		WHERE id = $1
		FOR UPDATE`

	queryUpdateSessionStatus = `
		UPDATE sessions SET status = $1, updated_at = $2 WHERE id = $3`
)
