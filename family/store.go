package family

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store fronts a [DurableStore] with a Redis read-through/write-through
// cache. The durable row is the source of truth; cache failures never block
// correctness and are logged instead of surfaced.
//
// Key layout: <prefix>:<familyId> holding the JSON-encoded family row.
type Store struct {
	redis    redis.UniversalClient
	durable  DurableStore
	prefix   string
	cacheTTL time.Duration
}

// NewStore creates a family [Store] backed by the given Redis client and
// durable store. prefix sets the cache key namespace; cacheTTL bounds how
// long a cached family row is trusted before re-reading the durable store.
func NewStore(redis redis.UniversalClient, durable DurableStore, prefix string, cacheTTL time.Duration) *Store {
	return &Store{
		redis:    redis,
		durable:  durable,
		prefix:   prefix,
		cacheTTL: cacheTTL,
	}
}

func (s *Store) key(familyID string) string {
	return s.prefix + ":" + familyID
}

// Create persists a new family row and write-through caches it. The durable
// write is authoritative; the cache write is best-effort.
func (s *Store) Create(ctx context.Context, userID, familyID string) (*TokenFamily, error) {
	fam, err := s.durable.Create(ctx, userID, familyID)
	if err != nil {
		return nil, err
	}

	if err := s.cachePut(ctx, fam); err != nil {
		log.Print("goRefresh: token family cache write failed")
	}
	return fam, nil
}

// Find returns the active family for familyID, consulting the cache first
// and falling back to the durable store on miss or cache failure. A durable
// hit repopulates the cache. Returns [ErrNotFound] when no row exists.
func (s *Store) Find(ctx context.Context, familyID string) (*TokenFamily, error) {
	data, err := s.redis.Get(ctx, s.key(familyID)).Bytes()
	if err == nil {
		fam := &TokenFamily{}
		if jsonErr := json.Unmarshal(data, fam); jsonErr == nil {
			return fam, nil
		}
		// Corrupt cache entry: treat as a miss and re-read durable state.
		log.Print("goRefresh: token family cache entry corrupt")
	} else if !errors.Is(err, redis.Nil) {
		log.Print("goRefresh: token family cache read failed")
	}

	fam, err := s.durable.FindActive(ctx, familyID)
	if err != nil {
		return nil, err
	}

	if err := s.cachePut(ctx, fam); err != nil {
		log.Print("goRefresh: token family cache repopulation failed")
	}
	return fam, nil
}

// Invalidate deletes the durable family row and evicts its cache entry.
func (s *Store) Invalidate(ctx context.Context, familyID string) error {
	if err := s.redis.Del(ctx, s.key(familyID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return s.durable.Invalidate(ctx, familyID)
}

// InvalidateAllForUser deletes every family row for a user and evicts every
// matching cache entry. Cache eviction scans keys by prefix and inspects
// each entry's owner; this is O(active families) and not a hot path.
func (s *Store) InvalidateAllForUser(ctx context.Context, userID string) error {
	pattern := s.prefix + ":*"
	var (
		cursor  uint64
		matched []string
	)

	for {
		keys, next, err := s.redis.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}

		for _, key := range keys {
			data, getErr := s.redis.Get(ctx, key).Bytes()
			if getErr != nil {
				if errors.Is(getErr, redis.Nil) {
					continue
				}
				return fmt.Errorf("%w: %v", ErrRedisUnavailable, getErr)
			}
			fam := &TokenFamily{}
			if jsonErr := json.Unmarshal(data, fam); jsonErr != nil {
				continue
			}
			if fam.UserID == userID {
				matched = append(matched, key)
			}
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	if len(matched) > 0 {
		pipe := s.redis.Pipeline()
		for _, key := range matched {
			pipe.Del(ctx, key)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return s.durable.InvalidateAllForUser(ctx, userID)
}

func (s *Store) cachePut(ctx context.Context, fam *TokenFamily) error {
	data, err := json.Marshal(fam)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.key(fam.FamilyID), data, s.cacheTTL).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
