package researchlog

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Querier is the subset of *pgxpool.Pool the store needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store handles research_log persistence.
type Store struct {
	db Querier
}

// NewStore returns a Store backed by a pool or a transaction.
func NewStore(db Querier) *Store {
	return &Store{db: db}
}

// Insert appends e and fills in its ID and CreatedAt.
func (s *Store) Insert(ctx context.Context, e *Entry) error {
	return s.db.QueryRow(ctx, `
		INSERT INTO research_log (mode, term, provider, fallback, reason, cached, latency_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, e.Mode, e.Term, e.Provider, e.Fallback, e.Reason, e.Cached, e.LatencyMs).Scan(&e.ID, &e.CreatedAt)
}

// Recent lists the newest entries first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, mode, term, provider, fallback, reason, cached, latency_ms, created_at
		FROM research_log
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Mode, &e.Term, &e.Provider, &e.Fallback, &e.Reason, &e.Cached, &e.LatencyMs, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
