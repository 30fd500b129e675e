package research

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestStore_RoundTrip(t *testing.T) {
	addr := os.Getenv("DULICH_TEST_REDIS")
	if addr == "" {
		t.Skip("DULICH_TEST_REDIS not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Fatalf("redis ping: %v", err)
	}

	store := NewStore(rdb, time.Minute)
	term := "Test " + time.Now().Format("150405.000000")
	t.Cleanup(func() { rdb.Del(context.Background(), cacheKey(ModeFullResearch, term)) })

	got, err := store.Get(ctx, ModeFullResearch, term)
	if err != nil || got != nil {
		t.Fatalf("expected miss, got %+v %v", got, err)
	}

	rec := DefaultRecord(term, ModeFullResearch)
	rec.Description = "Đã lưu"
	if err := store.Put(ctx, ModeFullResearch, term, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err = store.Get(ctx, ModeFullResearch, term)
	if err != nil || got == nil {
		t.Fatalf("expected hit, got %+v %v", got, err)
	}
	if got.Description != "Đã lưu" || got.Info[InfoAddress] != Placeholder {
		t.Errorf("unexpected record %+v", got)
	}

	ttl, err := rdb.TTL(ctx, cacheKey(ModeFullResearch, term)).Result()
	if err != nil || ttl <= 0 || ttl > time.Minute {
		t.Errorf("ttl = %v (%v)", ttl, err)
	}
}

func TestNewStore_DefaultTTL(t *testing.T) {
	if s := NewStore(nil, 0); s.ttl != DefaultCacheTTL {
		t.Errorf("ttl = %v, want %v", s.ttl, DefaultCacheTTL)
	}
}
