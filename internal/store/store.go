// Package store provides storage backends for Pondr.
//
// It includes an in-memory store, an SQLite store and a PostgreSQL store. All
// range queries are half-open [start, end) over the decision creation time.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/BTreeMap/Pondr/internal/models"
)

// DefaultListLimit bounds ListDecisions when no limit is given.
const DefaultListLimit = 200

// ErrNotFound is returned when a decision does not exist.
var ErrNotFound = errors.New("decision not found")

// Store is the persistence contract used by the rest of Pondr.
type Store interface {
	CreateDecision(ctx context.Context, d models.Decision) error
	UpdateDecision(ctx context.Context, d models.Decision) error
	GetDecision(ctx context.Context, id string) (models.Decision, error)
	// ListDecisions returns decisions newest first. A non-empty search matches
	// titles by substring; limit <= 0 means DefaultListLimit.
	ListDecisions(ctx context.Context, search string, limit int) ([]models.Decision, error)
	// ListDecisionsInRange returns decisions oldest first.
	ListDecisionsInRange(ctx context.Context, start, end time.Time) ([]models.Decision, error)
	CountInRange(ctx context.Context, start, end time.Time) (int, error)
	CountAll(ctx context.Context) (int, error)
	FirstDecisionAt(ctx context.Context) (*time.Time, error)
	LastDecisionAt(ctx context.Context) (*time.Time, error)
	// CategoryCountsInRange groups by primary category, most frequent first.
	CategoryCountsInRange(ctx context.Context, start, end time.Time) ([]models.CategoryCount, error)
	// CategoryAverageConfidence returns categories with at least minCount
	// decisions in range, highest average first.
	CategoryAverageConfidence(ctx context.Context, start, end time.Time, minCount int) ([]models.CategoryStat, error)
	// RecentDecisions returns up to limit decisions, newest first.
	RecentDecisions(ctx context.Context, limit int) ([]models.Decision, error)

	// GetState reads a small app_state record. ok is false when the key is absent.
	GetState(ctx context.Context, key string) (value string, ok bool, err error)
	SetState(ctx context.Context, key, value string) error

	Close() error
}

// Opts holds configuration for store backends.
type Opts struct {
	DSN string
}

// Option configures a store backend.
type Option func(*Opts)

// WithSQLiteDSN sets the SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DSN types returned by DetectDSNType.
const (
	DSNTypePostgres = "postgres"
	DSNTypeSQLite   = "sqlite3"
)

// DetectDSNType reports whether dsn looks like a PostgreSQL connection string
// or an SQLite file path.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=") || strings.Contains(dsn, "user=") || strings.Contains(dsn, "dbname=") {
		return DSNTypePostgres
	}
	return DSNTypeSQLite
}

// Open picks a backend from dsn: empty means in-memory, otherwise the type
// reported by DetectDSNType.
func Open(dsn string) (Store, error) {
	switch {
	case dsn == "":
		return NewInMemoryStore(), nil
	case DetectDSNType(dsn) == DSNTypePostgres:
		return NewPostgresStore(WithPostgresDSN(dsn))
	default:
		return NewSQLiteStore(WithSQLiteDSN(dsn))
	}
}
