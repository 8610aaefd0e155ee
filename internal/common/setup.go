package common

import (
	"context"
	"fmt"
	"log"
	"strings"

	"buddy-sessions-go/internal/booking"
	"buddy-sessions-go/internal/database"
	"buddy-sessions-go/internal/events"
	"buddy-sessions-go/internal/models"
	"buddy-sessions-go/internal/postgres"
	"buddy-sessions-go/internal/store"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Try to load .env file - if it doesn't exist, that's okay
	// Environment variables can be set via other means (shell export, docker, etc.)
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

type Services struct {
	Store   store.BookingStore
	Bus     *events.Bus
	Booking *booking.Service

	publisher       *events.Publisher
	publisherCancel context.CancelFunc
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// InitializeStore opens the backend selected by DB_DRIVER.
func InitializeStore(ctx context.Context, cfg models.DatabaseConfig) (store.BookingStore, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return database.NewService(ctx, cfg)
	case "postgres":
		return postgres.NewService(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// InitializeServices wires the store, event bus and booking service, and
// starts the AMQP bridge when enabled.
func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	bookingStore, err := InitializeStore(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	bus := events.NewBus()
	services := &Services{
		Store:   bookingStore,
		Bus:     bus,
		Booking: booking.NewService(bookingStore, bus, cfg.Booking),
	}

	if cfg.AMQP.Enabled {
		zap.L().Info("Connecting AMQP event publisher",
			zap.String("exchange", cfg.AMQP.Exchange))
		publisher, err := events.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			bus.Close()
			bookingStore.Close()
			return nil, fmt.Errorf("unable to connect event publisher: %w", err)
		}
		publisherCtx, cancel := context.WithCancel(context.Background())
		services.publisher = publisher
		services.publisherCancel = cancel
		go publisher.Run(publisherCtx, bus)
	}

	return services, nil
}

func (cs *Services) Close() {
	if cs.publisherCancel != nil {
		cs.publisherCancel()
	}
	if cs.Bus != nil {
		cs.Bus.Close()
	}
	if cs.publisher != nil {
		if err := cs.publisher.Close(); err != nil {
			zap.L().Warn("Failed to close event publisher", zap.Error(err))
		}
	}
	if cs.Store != nil {
		cs.Store.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
