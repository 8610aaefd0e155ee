package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"buddy-sessions-go/internal/common"
	"buddy-sessions-go/internal/config"
	"buddy-sessions-go/internal/models"
	"buddy-sessions-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type seedStats struct {
	created int
	skipped int
	failed  int
}

func seedAccount(ctx context.Context, bookingStore store.BookingStore, account common.SeedAccount, defaultCredits int64) error {
	grid, err := account.BuildGrid()
	if err != nil {
		return err
	}

	role, err := models.ParseRole(account.Role)
	if err != nil {
		return err
	}

	var credits int64
	if role == models.RoleLearner {
		credits = defaultCredits
	}
	if account.Credits != nil {
		credits = *account.Credits
	}

	_, err = bookingStore.CreateAccount(ctx, store.CreateAccountParams{
		Id:       uuid.New().String(),
		Nickname: account.Nickname,
		Role:     role,
		Credits:  credits,
		Grid:     grid,
	})
	return err
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	fileFlag := flag.String("file", "seed.yaml", "Account seed file")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	accounts, err := common.LoadSeedFile(*fileFlag)
	if err != nil {
		logger.Fatal("Failed to load seed file", zap.Error(err))
	}

	bookingStore, err := common.InitializeStore(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize store", zap.Error(err))
	}
	defer bookingStore.Close()

	common.PrintHeader(fmt.Sprintf("SEEDING %d ACCOUNTS FROM %s", len(accounts), *fileFlag), common.DefaultWidth)

	stats := seedStats{}
	for _, account := range accounts {
		err := seedAccount(ctx, bookingStore, account, cfg.Booking.InitialLearnerCredits)
		switch {
		case err == nil:
			fmt.Printf("✓ %-20s %s\n", account.Nickname, account.Role)
			stats.created++
		case errors.Is(err, store.ErrNicknameTaken):
			fmt.Printf("- %-20s already exists, skipped\n", account.Nickname)
			stats.skipped++
		default:
			fmt.Printf("✗ %-20s %v\n", account.Nickname, err)
			stats.failed++
			logger.Error("Failed to seed account",
				zap.String("nickname", account.Nickname), zap.Error(err))
		}
	}

	summary := fmt.Sprintf("SUMMARY: %d created, %d skipped, %d failed", stats.created, stats.skipped, stats.failed)
	common.PrintFooter(summary, common.DefaultWidth)
}
