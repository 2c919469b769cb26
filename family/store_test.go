package family

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type memoryDurable struct {
	mu       sync.Mutex
	seq      int
	families map[string]*TokenFamily
}

func newMemoryDurable() *memoryDurable {
	return &memoryDurable{families: map[string]*TokenFamily{}}
}

func (s *memoryDurable) Create(_ context.Context, userID, familyID string) (*TokenFamily, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	now := time.Now()
	row := &TokenFamily{
		ID:        fmt.Sprintf("row-%d", s.seq),
		UserID:    userID,
		FamilyID:  familyID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.families[familyID] = row
	return row, nil
}

func (s *memoryDurable) FindActive(_ context.Context, familyID string) (*TokenFamily, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.families[familyID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *row
	return &copied, nil
}

func (s *memoryDurable) Invalidate(_ context.Context, familyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.families, familyID)
	return nil
}

func (s *memoryDurable) InvalidateAllForUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, row := range s.families {
		if row.UserID == userID {
			delete(s.families, id)
		}
	}
	return nil
}

func (s *memoryDurable) drop(familyID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.families, familyID)
}

func buildTestStore(t *testing.T) (*Store, *memoryDurable, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	durable := newMemoryDurable()
	return NewStore(client, durable, "token_family", time.Hour), durable, mr
}

func TestCreateWritesThroughToCache(t *testing.T) {
	store, durable, mr := buildTestStore(t)
	ctx := context.Background()

	if _, err := store.Create(ctx, "user-1", "fam-1"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !mr.Exists("token_family:fam-1") {
		t.Fatal("expected a cache entry after Create")
	}

	// A cache hit is served without consulting the durable store.
	durable.drop("fam-1")
	fam, err := store.Find(ctx, "fam-1")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if fam.UserID != "user-1" {
		t.Fatalf("wrong owner: %s", fam.UserID)
	}
}

func TestFindFallsBackAndRepopulates(t *testing.T) {
	store, durable, mr := buildTestStore(t)
	ctx := context.Background()

	if _, err := durable.Create(ctx, "user-1", "fam-1"); err != nil {
		t.Fatalf("seed durable: %v", err)
	}

	fam, err := store.Find(ctx, "fam-1")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if fam.FamilyID != "fam-1" {
		t.Fatalf("wrong family: %s", fam.FamilyID)
	}
	if !mr.Exists("token_family:fam-1") {
		t.Fatal("durable hit must repopulate the cache")
	}
}

func TestFindCorruptCacheEntry(t *testing.T) {
	store, durable, mr := buildTestStore(t)
	ctx := context.Background()

	if _, err := durable.Create(ctx, "user-1", "fam-1"); err != nil {
		t.Fatalf("seed durable: %v", err)
	}
	if err := mr.Set("token_family:fam-1", "{not json"); err != nil {
		t.Fatalf("corrupt cache: %v", err)
	}

	fam, err := store.Find(ctx, "fam-1")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if fam.UserID != "user-1" {
		t.Fatal("corrupt entry must fall back to the durable row")
	}
}

func TestFindMissing(t *testing.T) {
	store, _, _ := buildTestStore(t)

	if _, err := store.Find(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInvalidateEvictsBothTiers(t *testing.T) {
	store, _, mr := buildTestStore(t)
	ctx := context.Background()

	if _, err := store.Create(ctx, "user-1", "fam-1"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Invalidate(ctx, "fam-1"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if mr.Exists("token_family:fam-1") {
		t.Fatal("cache entry must be evicted")
	}
	if _, err := store.Find(ctx, "fam-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInvalidateAllForUserScopesToOwner(t *testing.T) {
	store, _, mr := buildTestStore(t)
	ctx := context.Background()

	if _, err := store.Create(ctx, "user-1", "fam-a"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := store.Create(ctx, "user-1", "fam-b"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := store.Create(ctx, "user-2", "fam-c"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := store.InvalidateAllForUser(ctx, "user-1"); err != nil {
		t.Fatalf("InvalidateAllForUser: %v", err)
	}

	for _, familyID := range []string{"fam-a", "fam-b"} {
		if mr.Exists("token_family:" + familyID) {
			t.Fatalf("%s: cache entry must be evicted", familyID)
		}
		if _, err := store.Find(ctx, familyID); !errors.Is(err, ErrNotFound) {
			t.Fatalf("%s: expected ErrNotFound, got %v", familyID, err)
		}
	}

	if fam, err := store.Find(ctx, "fam-c"); err != nil || fam.UserID != "user-2" {
		t.Fatalf("other user's family must survive: %v", err)
	}
}
