package researchlog

import (
	"context"
	"strings"
)

// Service journals pipeline runs.
type Service struct {
	store *Store
}

// NewService creates a Service backed by the given Store.
func NewService(store *Store) *Service {
	return &Service{store: store}
}

// Record appends one entry. Terms are trimmed and capped so a pasted essay
// does not bloat the table.
func (s *Service) Record(ctx context.Context, e Entry) error {
	e.Mode = strings.TrimSpace(e.Mode)
	if e.Mode == "" {
		return ErrBadRequest
	}
	e.Term = capRunes(strings.TrimSpace(e.Term), 200)
	return s.store.Insert(ctx, &e)
}

// Recent returns up to limit entries, newest first.
func (s *Service) Recent(ctx context.Context, limit int) ([]Entry, error) {
	return s.store.Recent(ctx, clampLimit(limit))
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

func capRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
