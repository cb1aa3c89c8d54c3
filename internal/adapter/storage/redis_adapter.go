package storage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cartKeyPrefix    = "cart:"
	sessionKeyPrefix = "session:"
)

// clampedAddScript adds a quantity to one cart line and clamps the result
// to the inventory bound, all server-side so concurrent adds from the
// same session cannot overshoot. Results at or below zero delete the
// line. Every call refreshes the cart TTL, which stands in for the
// session "mark dirty" signal.
var clampedAddScript = redis.NewScript(`
local key = KEYS[1]
local field = ARGV[1]
local qty = tonumber(ARGV[2])
local max = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local current = tonumber(redis.call('HGET', key, field)) or 0
local new = current + qty
if new > max then
	new = max
end

if new <= 0 then
	redis.call('HDEL', key, field)
	new = 0
else
	redis.call('HSET', key, field, new)
end
redis.call('EXPIRE', key, ttl)
return new
`)

// RedisAdapter holds session carts as hashes and login sessions as plain
// keys, both bounded by the session TTL.
type RedisAdapter struct {
	client     *redis.Client
	sessionTTL time.Duration
}

func NewRedisAdapter(client *redis.Client, sessionTTL time.Duration) *RedisAdapter {
	return &RedisAdapter{client: client, sessionTTL: sessionTTL}
}

// Carts

func (r *RedisAdapter) Quantities(ctx context.Context, sessionID string) (map[string]int, error) {
	raw, err := r.client.HGetAll(ctx, cartKeyPrefix+sessionID).Result()
	if err != nil {
		return nil, fmt.Errorf("read cart hash: %w", err)
	}

	quantities := make(map[string]int, len(raw))
	for productID, value := range raw {
		quantity, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("corrupt cart quantity for %s: %w", productID, err)
		}
		quantities[productID] = quantity
	}
	return quantities, nil
}

func (r *RedisAdapter) AddClamped(ctx context.Context, sessionID, productID string, quantity, max int) (int, error) {
	key := cartKeyPrefix + sessionID
	ttl := int(r.sessionTTL.Seconds())

	stored, err := clampedAddScript.Run(ctx, r.client, []string{key}, productID, quantity, max, ttl).Int()
	if err != nil {
		return 0, fmt.Errorf("clamped add: %w", err)
	}
	return stored, nil
}

func (r *RedisAdapter) SetQuantity(ctx context.Context, sessionID, productID string, quantity int) error {
	key := cartKeyPrefix + sessionID

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, productID, quantity)
	pipe.Expire(ctx, key, r.sessionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("set cart quantity: %w", err)
	}
	return nil
}

func (r *RedisAdapter) Remove(ctx context.Context, sessionID, productID string) error {
	if err := r.client.HDel(ctx, cartKeyPrefix+sessionID, productID).Err(); err != nil {
		return fmt.Errorf("remove cart line: %w", err)
	}
	return nil
}

func (r *RedisAdapter) Clear(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, cartKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// Sessions

func (r *RedisAdapter) CreateSession(ctx context.Context, token, userID string) error {
	if err := r.client.Set(ctx, sessionKeyPrefix+token, userID, r.sessionTTL).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (r *RedisAdapter) LookupSession(ctx context.Context, token string) (string, error) {
	userID, err := r.client.Get(ctx, sessionKeyPrefix+token).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("lookup session: %w", err)
	}
	return userID, nil
}

func (r *RedisAdapter) DeleteSession(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, sessionKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
