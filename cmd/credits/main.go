package main

import (
	"context"
	"flag"
	"fmt"

	"buddy-sessions-go/internal/common"
	"buddy-sessions-go/internal/config"
	"buddy-sessions-go/internal/models"
	"buddy-sessions-go/internal/store"

	"go.uber.org/zap"
)

type creditStats struct {
	totalAccounts     int
	totalEntries      int
	accountsWithMoves int
}

func formatReference(reference string) string {
	if reference == "" {
		return "none"
	}
	if len(reference) > 8 {
		return reference[:8] + "..."
	}
	return reference
}

func printEntry(entry models.CreditEntry, isLast bool) {
	symbol := common.BoxPrefix(isLast)
	sign := "+"
	if entry.Amount < 0 {
		sign = ""
	}
	fmt.Printf("%s %s%d credits (%d -> %d, ref: %s, at: %s)\n",
		symbol,
		sign,
		entry.Amount,
		entry.BalanceBefore,
		entry.BalanceAfter,
		formatReference(entry.Reference),
		entry.CreatedAt.Format("2006-01-02 15:04:05"))
}

func printAccountHeader(account models.Account, entryCount int) {
	fmt.Printf("\n┌─ Account: %s (%s)\n", account.Nickname, account.Role)
	fmt.Printf("│  ID: %s\n", account.Id)
	fmt.Printf("│  Balance: %d credits, entries: %d\n", account.Credits, entryCount)
	common.PrintBoxSeparator(78)
}

func processAccount(ctx context.Context, account models.Account, bookingStore store.BookingStore, historyLimit int) (int, error) {
	entries, err := bookingStore.GetCreditHistory(ctx, account.Id, historyLimit, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to get credit history: %w", err)
	}

	if len(entries) == 0 {
		return 0, nil
	}

	printAccountHeader(account, len(entries))
	for i, entry := range entries {
		printEntry(entry, i == len(entries)-1)
	}

	return len(entries), nil
}

func generateReport(ctx context.Context, accounts []models.Account, bookingStore store.BookingStore, historyLimit int, logger *zap.Logger) creditStats {
	stats := creditStats{}

	for _, account := range accounts {
		stats.totalAccounts++

		entryCount, err := processAccount(ctx, account, bookingStore, historyLimit)
		if err != nil {
			logger.Error("Failed to process account",
				zap.String("account_id", account.Id),
				zap.String("nickname", account.Nickname),
				zap.Error(err))
			continue
		}

		if entryCount > 0 {
			stats.accountsWithMoves++
			stats.totalEntries += entryCount
		}
	}

	return stats
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	limitFlag := flag.Int("limit", 10, "Ledger entries to show per account")
	flag.Parse()

	logger.Info("Starting credit report")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	bookingStore, err := common.InitializeStore(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize store", zap.Error(err))
	}
	defer bookingStore.Close()

	accounts, err := bookingStore.ListAccounts(ctx)
	if err != nil {
		logger.Fatal("Failed to list accounts", zap.Error(err))
	}

	common.PrintHeader("CREDIT LEDGER REPORT", common.DefaultWidth)

	stats := generateReport(ctx, accounts, bookingStore, *limitFlag, logger)

	summary := fmt.Sprintf("SUMMARY: %d accounts with ledger activity (%d entries across %d accounts queried)",
		stats.accountsWithMoves, stats.totalEntries, stats.totalAccounts)
	common.PrintFooter(summary, common.DefaultWidth)

	logger.Info("Credit report completed",
		zap.Int("accounts_queried", stats.totalAccounts),
		zap.Int("accounts_with_activity", stats.accountsWithMoves),
		zap.Int("total_entries", stats.totalEntries))
}
