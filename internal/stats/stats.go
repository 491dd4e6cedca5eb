// Package stats keeps per-platform outcome counters in Redis. Every call is
// best effort: a stats failure never aborts the parent flow.
package stats

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

type Recorder struct {
	rdb *redis.Client
}

func NewRecorder(addr string) *Recorder {
	if addr == "" {
		return &Recorder{}
	}
	return &Recorder{
		rdb: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

// IncrementStats bumps the daily counter for one platform/outcome pair, e.g.
// stats:indeed:applied:2026-09-01.
func (r *Recorder) IncrementStats(ctx context.Context, platform, outcome string) {
	if r == nil || r.rdb == nil {
		return
	}
	key := fmt.Sprintf("stats:%s:%s:%s", platform, outcome, time.Now().Format("2006-01-02"))
	if err := r.rdb.Incr(ctx, key).Err(); err != nil {
		log.Printf("⚠️ Failed to increment stats %s: %v", key, err)
		return
	}
	//counters expire after 90 days
	r.rdb.Expire(ctx, key, 90*24*time.Hour)
}

// Snapshot returns today's counters for every platform/outcome pair.
func (r *Recorder) Snapshot(ctx context.Context) (map[string]int64, error) {
	if r == nil || r.rdb == nil {
		return map[string]int64{}, nil
	}

	pattern := fmt.Sprintf("stats:*:*:%s", time.Now().Format("2006-01-02"))
	keys, err := r.rdb.Keys(ctx, pattern).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list stats keys: %w", err)
	}

	snapshot := make(map[string]int64, len(keys))
	for _, key := range keys {
		count, err := r.rdb.Get(ctx, key).Int64()
		if err != nil {
			continue
		}
		snapshot[key] = count
	}
	return snapshot, nil
}

func (r *Recorder) Close() {
	if r != nil && r.rdb != nil {
		r.rdb.Close()
	}
}
