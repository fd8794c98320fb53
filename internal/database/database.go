package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"the-escrow-ledger/internal/config"
)

// Service represents a service that interacts with a database.
type Service interface {
	// Health returns a map of health status information.
	// The keys and values in the map are service-specific.
	Health() map[string]string

	// Close terminates the database connection.
	// It returns an error if the connection cannot be closed.
	Close() error
}

type service struct {
	db   *sql.DB
	name string
}

// NewPostgres opens a pgx-backed connection pool for cfg.
func NewPostgres(cfg config.Database) (*sql.DB, error) {
	return Open(cfg.DSN())
}

// Open opens and pings a pgx-backed connection pool for dsn.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func New(db *sql.DB, name string) Service {
	return &service{db: db, name: name}
}

// Health pings the journal database and reports connection pool usage.
// status is "up" or "down"; message flags pool pressure that would slow the
// relay down before it fails outright.
func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	stats := map[string]string{"database": s.name}

	if err := s.db.PingContext(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("journal database unreachable: %v", err)
		zap.L().Error("journal database down", zap.String("database", s.name), zap.Error(err))
		return stats
	}
	stats["status"] = "up"

	pool := s.db.Stats()
	stats["open_connections"] = strconv.Itoa(pool.OpenConnections)
	stats["in_use"] = strconv.Itoa(pool.InUse)
	stats["idle"] = strconv.Itoa(pool.Idle)
	stats["wait_count"] = strconv.FormatInt(pool.WaitCount, 10)
	stats["wait_duration"] = pool.WaitDuration.String()

	// MaxOpenConnections is 0 when the pool is unbounded.
	switch {
	case pool.MaxOpenConnections > 0 && pool.InUse >= pool.MaxOpenConnections:
		stats["message"] = "connection pool exhausted, journal writes are queueing"
	case pool.WaitDuration > time.Second:
		stats["message"] = "journal writes waited over a second for a connection"
	default:
		stats["message"] = "healthy"
	}
	return stats
}

// Close closes the database connection.
func (s *service) Close() error {
	zap.L().Info("disconnected from database", zap.String("database", s.name))
	return s.db.Close()
}
