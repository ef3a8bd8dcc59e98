package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	gwerr "github.com/matzehuels/gridwalk/pkg/errors"
	"github.com/matzehuels/gridwalk/pkg/grid"
	"github.com/matzehuels/gridwalk/pkg/observability"
	"github.com/matzehuels/gridwalk/pkg/solve"
)

func testStores(t *testing.T) map[string]Store {
	t.Helper()
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   fs,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			b := &Board{
				ID:          "3f1c2a90-5b7e-4d2a-9c1e-0a6b7c8d9e10",
				Size:        4,
				Walls:       []grid.Coord{grid.At(0, 1), grid.At(2, 2)},
				Algorithm:   solve.BreadthFirst,
				DelayMillis: 25,
			}
			if err := s.Put(ctx, b); err != nil {
				t.Fatalf("Put: %v", err)
			}
			got, err := s.Get(ctx, b.ID)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if got.Size != 4 || len(got.Walls) != 2 || got.Algorithm != solve.BreadthFirst || got.DelayMillis != 25 {
				t.Errorf("Get = %+v", got)
			}

			ids, err := s.List(ctx)
			if err != nil || len(ids) != 1 || ids[0] != b.ID {
				t.Errorf("List = %v, %v", ids, err)
			}

			if err := s.Delete(ctx, b.ID); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, err := s.Get(ctx, b.ID); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get after delete = %v, want ErrNotFound", err)
			}
			if err := s.Delete(ctx, b.ID); err != nil {
				t.Errorf("second Delete: %v", err)
			}
		})
	}
}

func TestStoreExpired(t *testing.T) {
	ctx := context.Background()
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			b := &Board{ID: "old", Size: 3, ExpiresAt: time.Now().Add(-time.Minute)}
			if err := s.Put(ctx, b); err != nil {
				t.Fatal(err)
			}
			if _, err := s.Get(ctx, "old"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get expired = %v, want ErrNotFound", err)
			}
			ids, _ := s.List(ctx)
			if len(ids) != 0 {
				t.Errorf("List = %v, want empty", ids)
			}
		})
	}
}

func TestMemoryStoreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	b := &Board{ID: "a", Size: 3, Walls: []grid.Coord{grid.At(1, 1)}}
	s.Put(ctx, b)
	b.Walls[0] = grid.At(2, 2)

	got, _ := s.Get(ctx, "a")
	if got.Walls[0] != grid.At(1, 1) {
		t.Errorf("store shares wall slice with caller")
	}
}

func TestFileStoreCleanup(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s.Put(ctx, &Board{ID: "live", Size: 3})
	s.Put(ctx, &Board{ID: "dead", Size: 3, ExpiresAt: time.Now().Add(-time.Second)})

	if err := s.Cleanup(ctx); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	ids, _ := s.List(ctx)
	if len(ids) != 1 || ids[0] != "live" {
		t.Errorf("List after cleanup = %v", ids)
	}
}

func TestMemoryLocker(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLocker()

	lock, err := l.Acquire(ctx, "b", time.Minute)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if _, err := l.Acquire(ctx, "b", time.Minute); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("second Acquire = %v, want ErrRunInProgress", err)
	}
	if _, err := l.Acquire(ctx, "other", time.Minute); err != nil {
		t.Errorf("Acquire on other key: %v", err)
	}

	lock.Release(ctx)
	again, err := l.Acquire(ctx, "b", time.Minute)
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	// A stale release must not drop the new holder's lock.
	lock.Release(ctx)
	if _, err := l.Acquire(ctx, "b", time.Minute); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("stale release freed the lock: %v", err)
	}
	again.Release(ctx)
}

func TestMemoryLockerExpiry(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLocker()
	now := time.Now()
	l.now = func() time.Time { return now }

	if _, err := l.Acquire(ctx, "b", time.Second); err != nil {
		t.Fatal(err)
	}
	now = now.Add(2 * time.Second)
	if _, err := l.Acquire(ctx, "b", time.Second); err != nil {
		t.Errorf("Acquire after expiry: %v", err)
	}
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(NewMemoryStore(), NewMemoryLocker(), WithDefaults(solve.BreadthFirst, 0))
}

func TestManagerCreateClampsSize(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	tests := []struct{ in, want int }{
		{0, grid.MinSize},
		{1, grid.MinSize},
		{7, 7},
		{100, grid.MaxSize},
	}
	for _, tt := range tests {
		b, err := m.Create(ctx, tt.in)
		if err != nil {
			t.Fatalf("Create(%d): %v", tt.in, err)
		}
		if b.Size != tt.want {
			t.Errorf("Create(%d).Size = %d, want %d", tt.in, b.Size, tt.want)
		}
		if err := gwerr.ValidateBoardID(b.ID); err != nil {
			t.Errorf("Create(%d) id: %v", tt.in, err)
		}
		if b.ExpiresAt.IsZero() {
			t.Errorf("Create(%d) has no expiry", tt.in)
		}
	}
}

func TestManagerToggleWall(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	b, _ := m.Create(ctx, 3)

	b, state, err := m.ToggleWall(ctx, b.ID, grid.At(1, 1))
	if err != nil {
		t.Fatalf("ToggleWall: %v", err)
	}
	if state != grid.Wall || len(b.Walls) != 1 {
		t.Errorf("after toggle: state=%v walls=%v", state, b.Walls)
	}

	b, state, _ = m.ToggleWall(ctx, b.ID, grid.At(1, 1))
	if state != grid.Open || len(b.Walls) != 0 {
		t.Errorf("after second toggle: state=%v walls=%v", state, b.Walls)
	}

	_, _, err = m.ToggleWall(ctx, b.ID, grid.At(3, 0))
	if !gwerr.Is(err, gwerr.ErrCodeInvalidCell) {
		t.Errorf("out of bounds toggle = %v, want INVALID_CELL", err)
	}
}

func TestManagerErrors(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	_, err := m.Get(ctx, "not-a-uuid")
	if !gwerr.Is(err, gwerr.ErrCodeInvalidID) {
		t.Errorf("Get(bad id) = %v", err)
	}

	_, err = m.Get(ctx, "3f1c2a90-5b7e-4d2a-9c1e-0a6b7c8d9e10")
	if !gwerr.Is(err, gwerr.ErrCodeNotFound) || !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) = %v", err)
	}

	b, _ := m.Create(ctx, 3)
	_, err = m.StartRun(ctx, b.ID, "A*")
	if !gwerr.Is(err, gwerr.ErrCodeInvalidAlgorithm) {
		t.Errorf("StartRun(A*) = %v", err)
	}
	// A failed start must not leave the board locked.
	if _, _, err := m.ToggleWall(ctx, b.ID, grid.At(0, 1)); err != nil {
		t.Errorf("board still locked after failed start: %v", err)
	}
}

func TestManagerConfigureAndResize(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	b, _ := m.Create(ctx, 4)
	m.ToggleWall(ctx, b.ID, grid.At(1, 2))

	b, err := m.Configure(ctx, b.ID, solve.DepthFirst, ptr(-5))
	if err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if b.Algorithm != solve.DepthFirst || b.DelayMillis != 0 {
		t.Errorf("Configure = %+v", b)
	}
	if b, err = m.Configure(ctx, b.ID, "", ptr(40)); err != nil || b.DelayMillis != 40 {
		t.Fatalf("Configure(delay 40) = %+v, %v", b, err)
	}
	if b, err = m.Configure(ctx, b.ID, solve.BreadthFirst, nil); err != nil || b.DelayMillis != 40 || b.Algorithm != solve.BreadthFirst {
		t.Errorf("Configure(nil delay) = %+v, %v; want delay kept", b, err)
	}
	if _, err := m.Configure(ctx, b.ID, "", ptr(120_000)); !gwerr.Is(err, gwerr.ErrCodeInvalidInput) {
		t.Errorf("Configure(huge delay) = %v", err)
	}

	b, err = m.Resize(ctx, b.ID, 6)
	if err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if b.Size != 6 || len(b.Walls) != 0 || b.Algorithm != solve.BreadthFirst {
		t.Errorf("Resize = %+v", b)
	}
}

func TestManagerRunRejectsConcurrentStart(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	b, _ := m.Create(ctx, 5)

	run, err := m.StartRun(ctx, b.ID, "")
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if run.Result.Algorithm != solve.BreadthFirst || !run.Result.Found {
		t.Errorf("run result = %+v", run.Result)
	}

	if _, err := m.StartRun(ctx, b.ID, solve.DepthFirst); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("second StartRun = %v, want ErrRunInProgress", err)
	}
	if _, _, err := m.ToggleWall(ctx, b.ID, grid.At(2, 2)); !gwerr.Is(err, gwerr.ErrCodeRunInProgress) {
		t.Errorf("ToggleWall during run = %v, want RUN_IN_PROGRESS", err)
	}
	if err := m.Delete(ctx, b.ID); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("Delete during run = %v", err)
	}

	if err := run.Finish(ctx); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	run.Finish(ctx)

	next, err := m.StartRun(ctx, b.ID, solve.DepthFirst)
	if err != nil {
		t.Fatalf("StartRun after finish: %v", err)
	}
	next.Finish(ctx)
}

func TestManagerConcurrentConfigureKeepsDelay(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	b, _ := m.Create(ctx, 3)
	if _, err := m.Configure(ctx, b.ID, "", ptr(75)); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			alg := solve.Algorithms[i%2]
			for {
				_, err := m.Configure(ctx, b.ID, alg, nil)
				if !errors.Is(err, ErrRunInProgress) {
					if err != nil {
						t.Errorf("Configure: %v", err)
					}
					return
				}
			}
		}()
	}
	wg.Wait()

	got, err := m.Get(ctx, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.DelayMillis != 75 {
		t.Errorf("delay = %d after algorithm-only edits, want 75", got.DelayMillis)
	}
}

func TestManagerRunOutlivesRunTTL(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore(), NewMemoryLocker(), WithRunTTL(30*time.Millisecond))
	b, _ := m.Create(ctx, 3)

	run, err := m.StartRun(ctx, b.ID, "")
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	if _, err := m.StartRun(ctx, b.ID, ""); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("StartRun past the run TTL = %v, want ErrRunInProgress", err)
	}
	if _, _, err := m.ToggleWall(ctx, b.ID, grid.At(1, 1)); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("ToggleWall past the run TTL = %v, want ErrRunInProgress", err)
	}

	if err := run.Finish(ctx); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	next, err := m.StartRun(ctx, b.ID, "")
	if err != nil {
		t.Fatalf("StartRun after Finish: %v", err)
	}
	next.Finish(ctx)
}

func TestMemoryLockExtend(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLocker()
	now := time.Now()
	l.now = func() time.Time { return now }

	lock, err := l.Acquire(ctx, "b", time.Second)
	if err != nil {
		t.Fatal(err)
	}
	now = now.Add(900 * time.Millisecond)
	if err := lock.Extend(ctx, time.Second); err != nil {
		t.Fatalf("Extend: %v", err)
	}
	now = now.Add(900 * time.Millisecond)
	if _, err := l.Acquire(ctx, "b", time.Second); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("Acquire after Extend = %v, want ErrRunInProgress", err)
	}

	now = now.Add(2 * time.Second)
	if err := lock.Extend(ctx, time.Second); !errors.Is(err, ErrLockLost) {
		t.Errorf("Extend after expiry = %v, want ErrLockLost", err)
	}
}

func TestManagerStartRunTooComplex(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore(), NewMemoryLocker(), WithMaxSteps(100))
	b, _ := m.Create(ctx, 6)
	m.ToggleWall(ctx, b.ID, grid.At(5, 4))
	m.ToggleWall(ctx, b.ID, grid.At(4, 5))

	if _, err := m.StartRun(ctx, b.ID, solve.DepthFirst); !gwerr.Is(err, gwerr.ErrCodeTooComplex) {
		t.Fatalf("StartRun = %v, want TOO_COMPLEX", err)
	}
	if _, err := m.StartRun(ctx, b.ID, solve.DepthFirst); errors.Is(err, ErrRunInProgress) {
		t.Error("a rejected run kept the board locked")
	}
	if _, _, err := m.ToggleWall(ctx, b.ID, grid.At(0, 1)); err != nil {
		t.Errorf("ToggleWall after a rejected run: %v", err)
	}
}

func ptr[T any](v T) *T { return &v }

func TestManagerConcurrentStartsOneWins(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	b, _ := m.Create(ctx, 8)

	var (
		wg       sync.WaitGroup
		started  atomic.Int32
		rejected atomic.Int32
		runs     = make(chan *Run, 16)
	)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			run, err := m.StartRun(ctx, b.ID, "")
			switch {
			case err == nil:
				started.Add(1)
				runs <- run
			case errors.Is(err, ErrRunInProgress):
				rejected.Add(1)
			default:
				t.Errorf("StartRun: %v", err)
			}
		}()
	}
	wg.Wait()
	close(runs)
	for run := range runs {
		run.Finish(ctx)
	}

	if started.Load() != 1 || rejected.Load() != 15 {
		t.Errorf("started=%d rejected=%d, want 1 and 15", started.Load(), rejected.Load())
	}
}

type recordingStoreHooks struct {
	observability.NoopStoreHooks
	mu       sync.Mutex
	ops      []string
	rejected int
}

func (h *recordingStoreHooks) OnStoreOp(_ context.Context, backend, op string, _ time.Duration, _ error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ops = append(h.ops, backend+":"+op)
}

func (h *recordingStoreHooks) OnRunRejected(context.Context, string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rejected++
}

func TestManagerReportsStoreOps(t *testing.T) {
	hooks := &recordingStoreHooks{}
	observability.SetStoreHooks(hooks)
	t.Cleanup(observability.Reset)

	ctx := context.Background()
	m := newTestManager(t)
	b, _ := m.Create(ctx, 3)
	run, _ := m.StartRun(ctx, b.ID, "")
	m.StartRun(ctx, b.ID, "")
	run.Finish(ctx)

	want := []string{"memory:put", "memory:get"}
	if len(hooks.ops) != len(want) {
		t.Fatalf("ops = %v, want %v", hooks.ops, want)
	}
	for i := range want {
		if hooks.ops[i] != want[i] {
			t.Errorf("ops[%d] = %s, want %s", i, hooks.ops[i], want[i])
		}
	}
	if hooks.rejected != 1 {
		t.Errorf("rejected = %d, want 1", hooks.rejected)
	}
}
