package research

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultCacheTTL is how long a researched record stays cached.
const DefaultCacheTTL = 6 * time.Hour

// Store caches successful records in Redis keyed by mode and term.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore returns a Store backed by rdb. A non-positive ttl uses DefaultCacheTTL.
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Store{rdb: rdb, ttl: ttl}
}

// Get returns the cached record, or (nil, nil) on a miss.
func (s *Store) Get(ctx context.Context, mode Mode, term string) (*LocationRecord, error) {
	raw, err := s.rdb.Get(ctx, cacheKey(mode, term)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec LocationRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Put stores rec with the configured TTL.
func (s *Store) Put(ctx context.Context, mode Mode, term string, rec LocationRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, cacheKey(mode, term), b, s.ttl).Err()
}

func cacheKey(mode Mode, term string) string {
	return "research:" + string(mode) + ":" + strings.ToLower(strings.Join(strings.Fields(term), " "))
}
