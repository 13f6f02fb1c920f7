package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ds124wfegd/eventtickets/config"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

func NewPostgresDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	db, err := Open(cfg.DSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	logrus.Info("Successfully connected to PostgreSQL")
	return db, nil
}

// Open connects to dsn and pings it.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(256) NOT NULL CHECK (name <> ''),
		start_date DATE NOT NULL,
		end_date DATE NOT NULL,
		total_tickets INTEGER NOT NULL CHECK (total_tickets BETWEEN 1 AND 300),
		sold_tickets INTEGER NOT NULL DEFAULT 0,
		redeemed_tickets INTEGER NOT NULL DEFAULT 0,
		CONSTRAINT events_dates_ordered CHECK (start_date <= end_date),
		CONSTRAINT events_sold_within_capacity CHECK (sold_tickets >= 0 AND sold_tickets <= total_tickets),
		CONSTRAINT events_redeemed_within_sold CHECK (redeemed_tickets >= 0 AND redeemed_tickets <= sold_tickets)
	)`,

	`CREATE TABLE IF NOT EXISTS tickets (
		id BIGSERIAL PRIMARY KEY,
		event_id BIGINT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		status VARCHAR(50) NOT NULL DEFAULT 'sold',
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		redeemed_at TIMESTAMPTZ,
		CONSTRAINT tickets_redeemed_consistent CHECK ((status = 'redeemed') = (redeemed_at IS NOT NULL))
	)`,

	// Indexes
	`CREATE INDEX IF NOT EXISTS idx_events_start_date ON events(start_date)`,
	`CREATE INDEX IF NOT EXISTS idx_tickets_event_id ON tickets(event_id)`,
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	for _, migration := range migrations {
		if _, err := db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}

	logrus.Info("Database migrations completed successfully")
	return nil
}
