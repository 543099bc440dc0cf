package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

const pendingMarker = "pending"

// IdempotencyCache remembers the outcome of requests carrying an
// Idempotency-Key so a replayed request returns the original result instead
// of executing twice. Each key is bound to the fingerprint of the request it
// was first used with. A nil client disables it.
type IdempotencyCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// idempotentRecord is what a completed key holds.
type idempotentRecord struct {
	Fingerprint string          `json:"fingerprint"`
	Result      json.RawMessage `json:"result"`
}

func NewIdempotencyCache(client *redis.Client, ttl time.Duration) *IdempotencyCache {
	return &IdempotencyCache{redis: client, ttl: ttl}
}

func (c *IdempotencyCache) Enabled() bool {
	return c != nil && c.redis != nil
}

func idempotencyKey(scope, key string) string {
	return fmt.Sprintf("idem:%s:%s", scope, key)
}

// requestFingerprint hashes the parts that identify a request.
func requestFingerprint(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(sum[:16])
}

func pendingValue(fingerprint string) string {
	return pendingMarker + ":" + fingerprint
}

// Begin reserves key for the request identified by fingerprint. When a
// previous request with the same fingerprint already completed, its stored
// result is decoded into dest and replayed is true. A key first used with a
// different fingerprint fails with ErrIdempotencyKeyReused.
func (c *IdempotencyCache) Begin(ctx context.Context, scope, key, fingerprint string, dest any) (replayed bool, err error) {
	k := idempotencyKey(scope, key)

	reserved, err := c.redis.SetNX(ctx, k, pendingValue(fingerprint), c.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("reserve idempotency key: %w", err)
	}
	if reserved {
		return false, nil
	}

	stored, err := c.redis.Get(ctx, k).Result()
	if err == redis.Nil {
		// expired between SETNX and GET
		return false, ErrRequestInProgress
	}
	if err != nil {
		return false, fmt.Errorf("read idempotency key: %w", err)
	}

	if strings.HasPrefix(stored, pendingMarker+":") {
		if stored != pendingValue(fingerprint) {
			return false, ErrIdempotencyKeyReused
		}
		return false, ErrRequestInProgress
	}

	var record idempotentRecord
	if err := json.Unmarshal([]byte(stored), &record); err != nil {
		return false, fmt.Errorf("decode idempotent result: %w", err)
	}
	if record.Fingerprint != fingerprint {
		return false, ErrIdempotencyKeyReused
	}
	if err := json.Unmarshal(record.Result, dest); err != nil {
		return false, fmt.Errorf("decode idempotent result: %w", err)
	}
	return true, nil
}

// Complete stores the result for key together with the request fingerprint.
func (c *IdempotencyCache) Complete(ctx context.Context, scope, key, fingerprint string, result any) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	record, err := json.Marshal(idempotentRecord{Fingerprint: fingerprint, Result: data})
	if err != nil {
		return err
	}
	return c.redis.Set(ctx, idempotencyKey(scope, key), string(record), c.ttl).Err()
}

// Release drops the reservation so a failed request can be retried.
func (c *IdempotencyCache) Release(ctx context.Context, scope, key string) error {
	return c.redis.Del(ctx, idempotencyKey(scope, key)).Err()
}
