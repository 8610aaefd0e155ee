package database

// Account queries
const (
	queryInsertAccount = `
		INSERT INTO accounts (id, nickname, role, credits, grid, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	querySelectAccount = `
		SELECT id, nickname, role, credits, grid, total_sessions, reviews_count, average_rating, created_at, updated_at
		FROM accounts
		WHERE id = ?`

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
		UPDATE accounts SET grid = ?, updated_at = ? WHERE id = ?`

	queryBumpTotalSessions = `
		UPDATE accounts SET total_sessions = total_sessions + 1, updated_at = ? WHERE id = ?`
)

// Ledger queries. The debit guard (credits >= ?) makes the non-negative
// invariant hold inside the statement itself.
const (
	querySelectCredits = `
		SELECT credits FROM accounts WHERE id = ?`

	queryDebitCredits = `
		UPDATE accounts SET credits = credits - ?, updated_at = ?
		WHERE id = ? AND credits >= ?
		RETURNING credits`

	queryCreditCredits = `
		UPDATE accounts SET credits = credits + ?, updated_at = ?
		WHERE id = ?
		RETURNING credits`

	queryInsertCreditTx = `
		INSERT INTO credit_transactions (id, account_id, amount, balance_before, balance_after, reference, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	querySelectCreditHistory = `
		SELECT id, account_id, amount, balance_before, balance_after, reference, created_at
		FROM credit_transactions
		WHERE account_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`
)

// Session queries
const (
	queryActiveSlotExists = `
		SELECT EXISTS (
			SELECT 1 FROM sessions
			WHERE buddy_id = ? AND slot_start = ? AND status IN ('requested', 'confirmed')
		)`

	queryInsertSession = `
		INSERT INTO sessions (id, buddy_id, learner_id, slot_start, slot_bucket, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	querySelectSession = `
		SELECT id, buddy_id, learner_id, slot_start, slot_bucket, status, created_at, updated_at
		FROM sessions
		WHERE id = ?`

	queryUpdateSessionStatus = `
		UPDATE sessions SET status = ?, updated_at = ? WHERE id = ?`
)
