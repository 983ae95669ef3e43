package logstore

import (
	"context"
	"fmt"
	"time"

	"github.com/ianF57/robot/pkg/types"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const defaultQueryTimeout = 5 * time.Second

const createTableQuery = `
	CREATE TABLE IF NOT EXISTS signal_logs (
		id BIGSERIAL PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL,
		asset TEXT NOT NULL,
		timeframe TEXT NOT NULL,
		signal_name TEXT NOT NULL,
		direction TEXT NOT NULL,
		confidence DOUBLE PRECISION NOT NULL,
		justification TEXT NOT NULL,
		expected_return_min DOUBLE PRECISION NOT NULL,
		expected_return_max DOUBLE PRECISION NOT NULL,
		expected_drawdown DOUBLE PRECISION NOT NULL
	)`

const insertQuery = `
	INSERT INTO signal_logs
	(created_at, asset, timeframe, signal_name, direction, confidence,
	 justification, expected_return_min, expected_return_max, expected_drawdown)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	RETURNING id, created_at`

const latestQuery = `
	SELECT id, created_at, asset, timeframe, signal_name, direction, confidence,
	       justification, expected_return_min, expected_return_max, expected_drawdown
	FROM signal_logs
	ORDER BY id DESC
	LIMIT $1`

// PostgresStore keeps the log in a signal_logs table. Calls go through a
// circuit breaker so an unavailable database fails fast.
type PostgresStore struct {
	db      *sqlx.DB
	logger  *zap.Logger
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker
	now     func() time.Time
}

// OpenPostgres connects using cfg, verifies the connection and ensures the schema
func OpenPostgres(ctx context.Context, logger *zap.Logger, cfg types.LogStoreConfig) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sqlx.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := NewPostgresStore(logger, db, cfg.QueryTimeout)
	if err := store.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewPostgresStore wraps an open connection
func NewPostgresStore(logger *zap.Logger, db *sqlx.DB, timeout time.Duration) *PostgresStore {
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	named := logger.Named("logstore")

	settings := gobreaker.Settings{
		Name:        "signal_logs",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			named.Warn("log store breaker changed state",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &PostgresStore{
		db:      db,
		logger:  named,
		timeout: timeout,
		breaker: gobreaker.NewCircuitBreaker(settings),
		now:     time.Now,
	}
}

// EnsureSchema creates the signal_logs table when missing
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, createTableQuery); err != nil {
		return fmt.Errorf("failed to create signal_logs table: %w", err)
	}
	return nil
}

// Append inserts the entry and reads back its ID
func (s *PostgresStore) Append(ctx context.Context, entry types.SignalLogEntry) (types.SignalLogEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	entry.CreatedAt = s.now().UTC()
	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, s.db.QueryRowxContext(ctx, insertQuery,
			entry.CreatedAt, entry.Asset, entry.Timeframe, entry.SignalName,
			entry.Direction, entry.Confidence, entry.Justification,
			entry.ExpectedReturnMin, entry.ExpectedReturnMax, entry.ExpectedDrawdown).
			Scan(&entry.ID, &entry.CreatedAt)
	})
	if err != nil {
		return types.SignalLogEntry{}, fmt.Errorf("failed to insert signal log: %w", err)
	}

	entry.CreatedAt = entry.CreatedAt.UTC()
	return entry, nil
}

// Latest returns up to limit entries ordered by descending ID
func (s *PostgresStore) Latest(ctx context.Context, limit int) ([]types.SignalLogEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if limit <= 0 {
		limit = DefaultLatestLimit
	}

	var entries []types.SignalLogEntry
	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, s.db.SelectContext(ctx, &entries, latestQuery, limit)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query signal logs: %w", err)
	}

	for i := range entries {
		entries[i].CreatedAt = entries[i].CreatedAt.UTC()
	}
	if entries == nil {
		entries = []types.SignalLogEntry{}
	}
	return entries, nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
