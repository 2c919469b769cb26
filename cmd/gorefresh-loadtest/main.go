package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	goRefresh "github.com/MrEthical07/goRefresh"
	"github.com/MrEthical07/goRefresh/family"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type sessionState struct {
	access  string
	refresh string
	mu      sync.Mutex
}

func main() {
	var (
		sessions    = flag.Int("sessions", 10000, "number of sessions to seed")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase (validate + rotate)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *sessions <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "sessions, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	cfg := goRefresh.DefaultConfig()
	cfg.JWT.AccessSecret = []byte("loadtest-access-secret")
	cfg.JWT.RefreshSecret = []byte("loadtest-refresh-secret")

	directory := newLoadDirectory()
	engine, err := goRefresh.New().
		WithConfig(cfg).
		WithRedis(client).
		WithFamilyStore(newLoadFamilyStore()).
		WithUserDirectory(directory).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build failed: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	states := make([]sessionState, *sessions)
	fmt.Printf("seeding %d sessions...\n", *sessions)
	startSeed := time.Now()
	for i := 0; i < *sessions; i++ {
		userID := directory.seed(fmt.Sprintf("user-%d@example.com", i))
		pair, err := engine.GenerateTokenPair(ctx, userID, "", 1)
		if err != nil {
			fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
			os.Exit(1)
		}
		states[i] = sessionState{access: pair.AccessToken, refresh: pair.RefreshToken}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	validateStats := runValidatePhase(ctx, engine, states, *ops, *concurrency)
	rotateStats := runRotatePhase(ctx, engine, states, *ops, *concurrency)

	fmt.Println("---- results ----")
	printStats("validate", validateStats)
	printStats("rotate", rotateStats)
}

// runValidatePhase hammers the fast path: a valid access token alongside the
// session's refresh token, which never touches the family store.
func runValidatePhase(ctx context.Context, engine *goRefresh.Engine, states []sessionState, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				idx := r.Intn(len(states))
				state := &states[idx]

				state.mu.Lock()
				access, refresh := state.access, state.refresh
				state.mu.Unlock()

				t0 := time.Now()
				_, err := engine.Authenticate(ctx, access, refresh)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

// runRotatePhase presents only the refresh token, forcing a full rotation
// (family lookup, replay check, new pair, replay write) per operation.
func runRotatePhase(ctx context.Context, engine *goRefresh.Engine, states []sessionState, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*6151))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				idx := r.Intn(len(states))
				state := &states[idx]

				state.mu.Lock()
				t0 := time.Now()
				res, err := engine.Authenticate(ctx, "", state.refresh)
				d := time.Since(t0)
				if err == nil && res.Pair != nil {
					state.access = res.Pair.AccessToken
					state.refresh = res.Pair.RefreshToken
				} else if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				state.mu.Unlock()

				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

// ---------------------------------------------------------------------------
// In-memory stores. Network round-trips to Redis dominate; these keep the
// harness self-contained.
// ---------------------------------------------------------------------------

type loadDirectory struct {
	mu    sync.RWMutex
	seq   int
	users map[string]goRefresh.UserRecord
}

func newLoadDirectory() *loadDirectory {
	return &loadDirectory{users: make(map[string]goRefresh.UserRecord)}
}

func (d *loadDirectory) seed(email string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	id := fmt.Sprintf("user-%d", d.seq)
	d.users[id] = goRefresh.UserRecord{
		UserID:       id,
		Email:        email,
		Role:         goRefresh.RoleUser,
		AuthProvider: goRefresh.ProviderLocal,
		Status:       goRefresh.AccountActive,
	}
	return id
}

func (d *loadDirectory) GetUserByID(_ context.Context, userID string) (goRefresh.UserRecord, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[userID]
	if !ok {
		return goRefresh.UserRecord{}, goRefresh.ErrUserNotFound
	}
	return u, nil
}

func (d *loadDirectory) GetUserByEmail(_ context.Context, email string) (goRefresh.UserRecord, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, u := range d.users {
		if u.Email == email {
			return u, nil
		}
	}
	return goRefresh.UserRecord{}, goRefresh.ErrUserNotFound
}

func (d *loadDirectory) GetUserByPhone(_ context.Context, _ string) (goRefresh.UserRecord, error) {
	return goRefresh.UserRecord{}, goRefresh.ErrUserNotFound
}

func (d *loadDirectory) CreateUser(_ context.Context, in goRefresh.CreateUserInput) (goRefresh.UserRecord, error) {
	id := d.seed(in.Email)
	return d.GetUserByID(context.Background(), id)
}

func (d *loadDirectory) UpdateUser(_ context.Context, userID string, _ goRefresh.UserUpdate) (goRefresh.UserRecord, error) {
	return d.GetUserByID(context.Background(), userID)
}

type loadFamilyStore struct {
	mu       sync.Mutex
	seq      int
	families map[string]*family.TokenFamily
}

func newLoadFamilyStore() *loadFamilyStore {
	return &loadFamilyStore{families: make(map[string]*family.TokenFamily)}
}

func (s *loadFamilyStore) Create(_ context.Context, userID, familyID string) (*family.TokenFamily, error) {
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

func (s *loadFamilyStore) FindActive(_ context.Context, familyID string) (*family.TokenFamily, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.families[familyID]
	if !ok {
		return nil, family.ErrNotFound
	}
	copied := *row
	return &copied, nil
}

func (s *loadFamilyStore) Invalidate(_ context.Context, familyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.families, familyID)
	return nil
}

func (s *loadFamilyStore) InvalidateAllForUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, row := range s.families {
		if row.UserID == userID {
			delete(s.families, id)
		}
	}
	return nil
}
