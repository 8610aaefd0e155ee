package models

import "time"

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig
	Booking  BookingConfig
	Server   ServerConfig
	AMQP     AMQPConfig
}

// DatabaseConfig holds storage backend settings. Driver selects between the
// SQLite and Postgres backends; Path applies to SQLite, DSN to Postgres.
type DatabaseConfig struct {
	Driver           string
	Path             string
	PostgresDSN      string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
	ConnMaxIdleTime  time.Duration
	PingTimeout      time.Duration
	SeedDemoAccounts bool
}

// BookingConfig holds the booking policy knobs.
type BookingConfig struct {
	HorizonDays           int
	SessionCost           int64
	InitialLearnerCredits int64
	RefundOnDecline       bool
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// AMQPConfig holds the optional event publisher settings.
type AMQPConfig struct {
	Enabled  bool
	URL      string
	Exchange string
}
