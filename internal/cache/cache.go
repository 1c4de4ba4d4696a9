package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"user-management-app/internal/entity"
)

const (
	idempotencyTTL = 24 * time.Hour
	tombstone      = "deleted"
)

// ErrDeleted is returned by Get for a user that was removed from the store.
var ErrDeleted = errors.New("user deleted")

// UserCache caches single users by id and remembers idempotency keys.
type UserCache interface {
	// Get returns nil, nil on a miss and ErrDeleted for a removed user.
	Get(ctx context.Context, id int) (*entity.User, error)
	// Set writes user unless the id is marked deleted.
	Set(ctx context.Context, user *entity.User) error
	// Fill writes user only when nothing is cached for its id, so a slow
	// read never replaces what a later update or delete wrote.
	Fill(ctx context.Context, user *entity.User) error
	MarkDeleted(ctx context.Context, id int) error
	// ClaimIdempotencyKey reports whether key was unseen and records it.
	ClaimIdempotencyKey(ctx context.Context, key string) (bool, error)
	ReleaseIdempotencyKey(ctx context.Context, key string) error
}

// KEYS[1] user key; ARGV value, tombstone, ttl in ms (0 keeps it forever)
var setUnlessDeleted = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[2] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[3])
else
	redis.call("SET", KEYS[1], ARGV[1])
end
return 1
`)

type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func userKey(id int) string {
	return fmt.Sprintf("user:%d", id)
}

func idempotencyKey(key string) string {
	return fmt.Sprintf("idempotency-key:%s", key)
}

func (c *RedisCache) Get(ctx context.Context, id int) (*entity.User, error) {
	val, err := c.rdb.Get(ctx, userKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if val == tombstone {
		return nil, ErrDeleted
	}

	var user entity.User
	if err := json.Unmarshal([]byte(val), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *RedisCache) Set(ctx context.Context, user *entity.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return setUnlessDeleted.Run(ctx, c.rdb, []string{userKey(user.ID)},
		data, tombstone, c.ttl.Milliseconds()).Err()
}

func (c *RedisCache) Fill(ctx context.Context, user *entity.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return c.rdb.SetNX(ctx, userKey(user.ID), data, c.ttl).Err()
}

// MarkDeleted replaces the cached user with a tombstone for one TTL. Ids are
// never reused, so the marker cannot hide a newer user.
func (c *RedisCache) MarkDeleted(ctx context.Context, id int) error {
	return c.rdb.Set(ctx, userKey(id), tombstone, c.ttl).Err()
}

func (c *RedisCache) ClaimIdempotencyKey(ctx context.Context, key string) (bool, error) {
	return c.rdb.SetNX(ctx, idempotencyKey(key), "exists", idempotencyTTL).Result()
}

// ReleaseIdempotencyKey forgets key so a request that failed can be retried.
func (c *RedisCache) ReleaseIdempotencyKey(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, idempotencyKey(key)).Err()
}

// Noop is used when redis is not configured: every read misses and every
// idempotency key is new.
type Noop struct{}

func (Noop) Get(ctx context.Context, id int) (*entity.User, error)             { return nil, nil }
func (Noop) Set(ctx context.Context, user *entity.User) error                  { return nil }
func (Noop) Fill(ctx context.Context, user *entity.User) error                 { return nil }
func (Noop) MarkDeleted(ctx context.Context, id int) error                     { return nil }
func (Noop) ClaimIdempotencyKey(ctx context.Context, key string) (bool, error) { return true, nil }
func (Noop) ReleaseIdempotencyKey(ctx context.Context, key string) error       { return nil }
