package pg

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"schoolgrid.org/internal/authz"
)

// Store wraps the shared PostgreSQL pool. All reads required by the
// authorization core hang off it.
type Store struct {
	db *sql.DB
}

var (
	_ authz.Directory     = (*Store)(nil)
	_ authz.ProfileReader = (*Store)(nil)
)

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewStore wraps an existing pool. Used by tests with sqlmock.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return unavailable(err)
	}
	return nil
}

// unavailable wraps a store failure so callers can tell "couldn't determine"
// apart from "denied". Business negatives never pass through here.
func unavailable(err error) error {
	return fmt.Errorf("%w: %v", authz.ErrDirectoryUnavailable, err)
}
