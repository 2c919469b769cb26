//go:build integration
// +build integration

package test

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	goRefresh "github.com/MrEthical07/goRefresh"
	"github.com/MrEthical07/goRefresh/family"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// cmdCounter is a go-redis Hook that counts the number of Redis round-trips
// (individual commands and pipeline calls).
type cmdCounter struct {
	commands  atomic.Int64
	pipelines atomic.Int64
}

func (h *cmdCounter) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *cmdCounter) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.commands.Add(1)
		return next(ctx, cmd)
	}
}

func (h *cmdCounter) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		// Each pipeline call is one network round-trip regardless of command count.
		h.pipelines.Add(1)
		h.commands.Add(int64(len(cmds)))
		return next(ctx, cmds)
	}
}

func (h *cmdCounter) Reset() {
	h.commands.Store(0)
	h.pipelines.Store(0)
}

func (h *cmdCounter) Commands() int64  { return h.commands.Load() }
func (h *cmdCounter) Pipelines() int64 { return h.pipelines.Load() }

type integrationDirectory struct {
	mu    sync.RWMutex
	seq   int
	users map[string]goRefresh.UserRecord
}

func newIntegrationDirectory() *integrationDirectory {
	return &integrationDirectory{users: make(map[string]goRefresh.UserRecord)}
}

func (d *integrationDirectory) GetUserByID(_ context.Context, userID string) (goRefresh.UserRecord, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[userID]
	if !ok {
		return goRefresh.UserRecord{}, goRefresh.ErrUserNotFound
	}
	return u, nil
}

func (d *integrationDirectory) GetUserByEmail(_ context.Context, email string) (goRefresh.UserRecord, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, u := range d.users {
		if u.Email == email {
			return u, nil
		}
	}
	return goRefresh.UserRecord{}, goRefresh.ErrUserNotFound
}

func (d *integrationDirectory) GetUserByPhone(_ context.Context, phone string) (goRefresh.UserRecord, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, u := range d.users {
		if u.Phone == phone {
			return u, nil
		}
	}
	return goRefresh.UserRecord{}, goRefresh.ErrUserNotFound
}

func (d *integrationDirectory) CreateUser(_ context.Context, in goRefresh.CreateUserInput) (goRefresh.UserRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	u := goRefresh.UserRecord{
		UserID:       fmt.Sprintf("user-%d", d.seq),
		Email:        in.Email,
		Phone:        in.Phone,
		Role:         in.Role,
		AuthProvider: in.AuthProvider,
		Status:       goRefresh.AccountActive,
	}
	d.users[u.UserID] = u
	return u, nil
}

func (d *integrationDirectory) UpdateUser(_ context.Context, userID string, _ goRefresh.UserUpdate) (goRefresh.UserRecord, error) {
	return d.GetUserByID(context.Background(), userID)
}

type integrationFamilyStore struct {
	mu       sync.Mutex
	seq      int
	families map[string]*family.TokenFamily
}

func newIntegrationFamilyStore() *integrationFamilyStore {
	return &integrationFamilyStore{families: make(map[string]*family.TokenFamily)}
}

func (s *integrationFamilyStore) Create(_ context.Context, userID, familyID string) (*family.TokenFamily, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	now := time.Now()
	row := &family.TokenFamily{
		ID:        fmt.Sprintf("row-%d", s.seq),
		UserID:    userID,
		FamilyID:  familyID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.families[familyID] = row
	return row, nil
}

func (s *integrationFamilyStore) FindActive(_ context.Context, familyID string) (*family.TokenFamily, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.families[familyID]
	if !ok {
		return nil, family.ErrNotFound
	}
	copied := *row
	return &copied, nil
}

func (s *integrationFamilyStore) Invalidate(_ context.Context, familyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.families, familyID)
	return nil
}

func (s *integrationFamilyStore) InvalidateAllForUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, row := range s.families {
		if row.UserID == userID {
			delete(s.families, id)
		}
	}
	return nil
}

type integrationFixture struct {
	engine  *goRefresh.Engine
	dir     *integrationDirectory
	counter *cmdCounter
	user    goRefresh.UserRecord
}

// newIntegrationFixture builds an engine backed by miniredis with a cmdCounter
// hook installed. Reset the counter before each measured operation.
func newIntegrationFixture(t *testing.T) *integrationFixture {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	counter := &cmdCounter{}
	rdb.AddHook(counter)

	// Warm the connection: go-redis may emit extra commands on first use
	// (handshake, AUTH, SELECT, CLIENT SETNAME, etc.). Issuing a PING
	// before measuring avoids counting that noise.
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("warmup ping: %v", err)
	}
	counter.Reset()

	cfg := goRefresh.DefaultConfig()
	cfg.JWT.AccessSecret = []byte("integration-access-secret")
	cfg.JWT.RefreshSecret = []byte("integration-refresh-secret")

	dir := newIntegrationDirectory()
	engine, err := goRefresh.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithFamilyStore(newIntegrationFamilyStore()).
		WithUserDirectory(dir).
		Build()
	if err != nil {
		t.Fatalf("engine build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	user, err := dir.CreateUser(context.Background(), goRefresh.CreateUserInput{
		Email:        "alice@example.com",
		Role:         goRefresh.RoleUser,
		AuthProvider: goRefresh.ProviderLocal,
	})
	if err != nil {
		t.Fatalf("seed user failed: %v", err)
	}

	return &integrationFixture{engine: engine, dir: dir, counter: counter, user: user}
}
