package dedup

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jobsift/jobsift/internal/model"
)

// seenJobsKey is the redis set holding hex identity keys of accepted jobs.
const seenJobsKey = "seen_jobs"

var _ model.DedupStore = (*RedisStore)(nil)

// RedisStore backs the dedup set with a shared redis SET. SADD is the
// atomic test-and-insert: its reply says whether the member was new, so two
// concurrent admissions of the same key yield exactly one accept across all
// processes.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore parses addr (a redis:// URL) and verifies connectivity.
func NewRedisStore(ctx context.Context, addr string) (*RedisStore, error) {
	opts, err := redis.ParseURL(addr)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", addr, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisStore{rdb: client}, nil
}

// Admit adds the key to the seen set. A redis error fails closed: the
// record is not admitted and the caller retries the batch later.
func (s *RedisStore) Admit(ctx context.Context, key model.IdentityKey) (bool, error) {
	added, err := s.rdb.SAdd(ctx, seenJobsKey, key.String()).Result()
	if err != nil {
		return false, fmt.Errorf("%w: sadd: %v", model.ErrStoreUnavailable, err)
	}
	return added == 1, nil
}

func (s *RedisStore) IsDuplicate(ctx context.Context, key model.IdentityKey) (bool, error) {
	member, err := s.rdb.SIsMember(ctx, seenJobsKey, key.String()).Result()
	if err != nil {
		return false, fmt.Errorf("%w: sismember: %v", model.ErrStoreUnavailable, err)
	}
	return member, nil
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
