package replay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable is an exported constant or variable used by the authentication engine.
var ErrRedisUnavailable = errors.New("redis unavailable")

// Entry records the outcome of one refresh-token rotation, keyed by the
// hash of the token that was consumed. A retried exchange within the TTL
// window is handed the same refresh token instead of a second rotation.
type Entry struct {
	Timestamp int64  `json:"timestamp"`
	NewToken  string `json:"newToken"`
	UserID    string `json:"userId"`
}

// Cache is a Redis-backed idempotence cache for consumed refresh tokens.
//
// Key layout: <prefix>:<sha256-hex of consumed token>.
type Cache struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewCache describes the newcache operation and its observable behavior.
//
// NewCache may return an error when input validation, dependency calls, or security checks fail.
// NewCache does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewCache(redis redis.UniversalClient, prefix string, ttl time.Duration) *Cache {
	return &Cache{
		redis:  redis,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (c *Cache) key(tokenHash string) string {
	return c.prefix + ":" + tokenHash
}

// Put records a rotation outcome under the consumed token's hash.
func (c *Cache) Put(ctx context.Context, tokenHash, newRefreshToken, userID string) error {
	entry := Entry{
		Timestamp: time.Now().Unix(),
		NewToken:  newRefreshToken,
		UserID:    userID,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if err := c.redis.Set(ctx, c.key(tokenHash), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Get returns the recorded outcome for a consumed token hash, or nil when
// no entry exists (or it has expired).
func (c *Cache) Get(ctx context.Context, tokenHash string) (*Entry, error) {
	data, err := c.redis.Get(ctx, c.key(tokenHash)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	entry := &Entry{}
	if err := json.Unmarshal(data, entry); err != nil {
		return nil, err
	}
	return entry, nil
}
