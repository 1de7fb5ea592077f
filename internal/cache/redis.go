package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"todoshare/internal/config"
	"todoshare/pkg/logger"
)

var (
	client *redis.Client
	once   sync.Once
)

// Client returns the global Redis client (initialized on first use). It is
// nil when REDIS_URL is unset or the server does not answer.
func Client(ctx context.Context) *redis.Client {
	once.Do(func() {
		cfg := config.Get()
		if cfg.RedisURL == "" {
			logger.Info(ctx, "Redis cache disabled (REDIS_URL not set)")
			return
		}
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error(ctx, "Invalid REDIS_URL", "error", err)
			return
		}
		opts.PoolSize = cfg.RedisPoolSize
		c := redis.NewClient(opts)
		if err := c.Ping(ctx).Err(); err != nil {
			logger.Error(ctx, "Redis ping failed", "error", err)
			_ = c.Close()
			return
		}
		client = c
		logger.Info(ctx, "Redis client initialized", "pool_size", cfg.RedisPoolSize)
	})
	return client
}

// Lists caches each user's visible list of a table as raw JSON.
//
// Entries are keyed by a per-user generation counter. Invalidation bumps
// the counter instead of deleting the entry, so a fill that raced with a
// write lands under a generation nobody reads again and expires with its TTL.
// A Lists with a nil client is a no-op cache that always misses.
type Lists struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewLists(rdb *redis.Client, ttl time.Duration) *Lists {
	return &Lists{rdb: rdb, ttl: ttl}
}

// Enabled reports whether a Redis client is attached.
func (l *Lists) Enabled() bool {
	return l != nil && l.rdb != nil
}

func genKey(table, userID string) string {
	return fmt.Sprintf("%s:gen:%s", table, userID)
}

func listKey(table, userID string, gen int64) string {
	return fmt.Sprintf("%s:list:%s:%d", table, userID, gen)
}

// Get returns the cached list and the generation it was read at. On a miss
// the generation is still returned so the caller can Set under it.
func (l *Lists) Get(ctx context.Context, table, userID string) ([]byte, int64, bool) {
	if !l.Enabled() {
		return nil, 0, false
	}
	gen, err := l.generation(ctx, table, userID)
	if err != nil {
		logger.Debug(ctx, "Redis get generation failed", "error", err, "table", table)
		return nil, 0, false
	}
	b, err := l.rdb.Get(ctx, listKey(table, userID, gen)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, false
	}
	if err != nil {
		logger.Debug(ctx, "Redis get list failed", "error", err, "table", table)
		return nil, gen, false
	}
	return b, gen, true
}

func (l *Lists) generation(ctx context.Context, table, userID string) (int64, error) {
	s, err := l.rdb.Get(ctx, genKey(table, userID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(s, 10, 64)
}

// Set stores a list under the generation returned by Get.
func (l *Lists) Set(ctx context.Context, table, userID string, gen int64, b []byte) {
	if !l.Enabled() {
		return
	}
	if err := l.rdb.Set(ctx, listKey(table, userID, gen), b, l.ttl).Err(); err != nil {
		logger.Debug(ctx, "Redis set list failed", "error", err, "table", table)
	}
}

// SetAsync is Set on a detached context, for use after the response is sent.
func (l *Lists) SetAsync(table, userID string, gen int64, b []byte) {
	if !l.Enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	l.Set(ctx, table, userID, gen, b)
}

// Invalidate drops the cached list of table for every user in userIDs.
func (l *Lists) Invalidate(ctx context.Context, table string, userIDs ...string) {
	if !l.Enabled() || len(userIDs) == 0 {
		return
	}
	_, err := l.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		for _, id := range userIDs {
			p.Incr(ctx, genKey(table, id))
		}
		return nil
	})
	if err != nil {
		logger.Warn(ctx, "Redis invalidate lists failed", "error", err, "table", table, "users", len(userIDs))
	}
}

// Ping reports whether the cache is reachable. A disabled cache is healthy.
func (l *Lists) Ping(ctx context.Context) error {
	if !l.Enabled() {
		return nil
	}
	return l.rdb.Ping(ctx).Err()
}
