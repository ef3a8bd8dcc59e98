package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	gwerr "github.com/matzehuels/gridwalk/pkg/errors"
	"github.com/matzehuels/gridwalk/pkg/grid"
	"github.com/matzehuels/gridwalk/pkg/observability"
	"github.com/matzehuels/gridwalk/pkg/solve"
)

// Manager applies board operations on top of a Store and a Locker.
// Errors carry pkg/errors codes and still match ErrNotFound and
// ErrRunInProgress with errors.Is.
type Manager struct {
	store  Store
	locker Locker

	ttl          time.Duration
	runTTL       time.Duration
	maxSteps     int
	solveTimeout time.Duration
	defaultAlg   solve.Algorithm
	defaultDelay int
	now          func() time.Time
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithTTL sets how long boards live after their last update. Zero disables expiry.
func WithTTL(d time.Duration) ManagerOption {
	return func(m *Manager) { m.ttl = max(d, 0) }
}

// WithRunTTL bounds how long a run lock is held if Finish is never called.
func WithRunTTL(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.runTTL = d
		}
	}
}

// WithMaxSteps bounds the trace of every run; see [solve.WithMaxSteps].
// Non-positive values keep [solve.DefaultMaxSteps].
func WithMaxSteps(n int) ManagerOption {
	return func(m *Manager) {
		if n > 0 {
			m.maxSteps = n
		}
	}
}

// WithSolveTimeout bounds the wall time of the solve inside StartRun.
func WithSolveTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.solveTimeout = d
		}
	}
}

// WithDefaults sets the algorithm and delay given to new boards.
func WithDefaults(alg solve.Algorithm, delayMillis int) ManagerOption {
	return func(m *Manager) {
		if alg != "" {
			m.defaultAlg = alg
		}
		m.defaultDelay = max(delayMillis, 0)
	}
}

// NewManager creates a Manager. A nil locker gets a process-local one.
func NewManager(store Store, locker Locker, opts ...ManagerOption) *Manager {
	if locker == nil {
		locker = NewMemoryLocker()
	}
	m := &Manager{
		store:        store,
		locker:       locker,
		ttl:          DefaultTTL,
		runTTL:       DefaultRunTTL,
		maxSteps:     solve.DefaultMaxSteps,
		solveTimeout: DefaultSolveTimeout,
		defaultAlg:   solve.DepthFirst,
		defaultDelay: 100,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Store returns the underlying store.
func (m *Manager) Store() Store { return m.store }

// Create stores a new open board. The size is clamped to [grid.MinSize, grid.MaxSize].
func (m *Manager) Create(ctx context.Context, size int) (*Board, error) {
	now := m.now()
	b := &Board{
		ID:          uuid.NewString(),
		Size:        grid.ClampSize(size),
		Walls:       []grid.Coord{},
		Algorithm:   m.defaultAlg,
		DelayMillis: m.defaultDelay,
		CreatedAt:   now,
	}
	if err := m.put(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Get loads a board.
func (m *Manager) Get(ctx context.Context, id string) (*Board, error) {
	if err := gwerr.ValidateBoardID(id); err != nil {
		return nil, err
	}
	start := time.Now()
	b, err := m.store.Get(ctx, id)
	m.observe(ctx, "get", start, err)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil, gwerr.Wrap(gwerr.ErrCodeNotFound, ErrNotFound, "board %s", id)
	case err != nil:
		return nil, gwerr.Wrap(gwerr.ErrCodeStorage, err, "load board %s", id)
	}
	return b, nil
}

// List returns the IDs of all live boards.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	start := time.Now()
	ids, err := m.store.List(ctx)
	m.observe(ctx, "list", start, err)
	if err != nil {
		return nil, gwerr.Wrap(gwerr.ErrCodeStorage, err, "list boards")
	}
	return ids, nil
}

// Delete removes a board. A board with an active run cannot be deleted.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := gwerr.ValidateBoardID(id); err != nil {
		return err
	}
	return m.withEditLock(ctx, id, func() error {
		start := time.Now()
		err := m.store.Delete(ctx, id)
		m.observe(ctx, "delete", start, err)
		if err != nil {
			return gwerr.Wrap(gwerr.ErrCodeStorage, err, "delete board %s", id)
		}
		return nil
	})
}

// ToggleWall flips c between open and wall and returns the updated board
// with the cell's new state. Edits are refused while a run is active.
func (m *Manager) ToggleWall(ctx context.Context, id string, c grid.Coord) (*Board, grid.State, error) {
	var (
		out   *Board
		state grid.State
	)
	err := m.edit(ctx, id, func(b *Board) error {
		g, err := b.Grid()
		if err != nil {
			return gwerr.Wrap(gwerr.ErrCodeInternal, err, "board %s is corrupt", id)
		}
		state, err = g.ToggleWall(c)
		if err != nil {
			return gwerr.Wrap(gwerr.ErrCodeInvalidCell, err, "toggle %s", c)
		}
		b.Walls = g.Walls()
		out = b
		return nil
	})
	return out, state, err
}

// Resize replaces the board with an open grid of the given size (clamped).
func (m *Manager) Resize(ctx context.Context, id string, size int) (*Board, error) {
	var out *Board
	err := m.edit(ctx, id, func(b *Board) error {
		b.Size = grid.ClampSize(size)
		b.Walls = []grid.Coord{}
		out = b
		return nil
	})
	return out, err
}

// Configure sets the board's algorithm and replay delay. An empty
// algorithm or a nil delay keeps the current value; negative delays clamp
// to zero.
func (m *Manager) Configure(ctx context.Context, id string, alg solve.Algorithm, delayMillis *int) (*Board, error) {
	if delayMillis != nil && *delayMillis > 0 {
		if err := gwerr.ValidateDelayMillis(*delayMillis); err != nil {
			return nil, err
		}
	}
	var out *Board
	err := m.edit(ctx, id, func(b *Board) error {
		if alg != "" {
			b.Algorithm = alg
		}
		if delayMillis != nil {
			b.DelayMillis = max(*delayMillis, 0)
		}
		out = b
		return nil
	})
	return out, err
}

// Run is an active solve on a board. The caller replays Result.Steps and
// then calls Finish to release the board. Until then the run lock is
// extended in the background, so a replay may outlast the run TTL.
type Run struct {
	ID     string
	Board  *Board
	Result *solve.Result

	lock Lock
	stop chan struct{}
	done chan struct{}
	once sync.Once
	err  error
}

// keepAlive extends the lock every third of ttl until Finish or until the
// lock is lost.
func (r *Run) keepAlive(ctx context.Context, ttl time.Duration) {
	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	go func() {
		defer close(r.done)
		ticker := time.NewTicker(max(ttl/3, time.Millisecond))
		defer ticker.Stop()
		for {
			select {
			case <-r.stop:
				return
			case <-ticker.C:
				if err := r.lock.Extend(ctx, ttl); errors.Is(err, ErrLockLost) {
					return
				}
			}
		}
	}()
}

// Finish releases the board's run lock. It is safe to call more than once.
func (r *Run) Finish(ctx context.Context) error {
	r.once.Do(func() {
		if r.stop != nil {
			close(r.stop)
			<-r.done
		}
		r.err = r.lock.Release(ctx)
	})
	return r.err
}

// StartRun locks the board and solves it with alg, or with the board's
// configured algorithm when alg is empty. It fails with ErrRunInProgress
// while another run holds the board.
func (m *Manager) StartRun(ctx context.Context, id string, alg solve.Algorithm) (*Run, error) {
	if err := gwerr.ValidateBoardID(id); err != nil {
		return nil, err
	}
	lock, err := m.acquire(ctx, id, m.runTTL)
	if err != nil {
		return nil, err
	}

	run, err := m.solve(ctx, id, alg)
	if err != nil {
		lock.Release(context.WithoutCancel(ctx))
		return nil, err
	}
	run.lock = lock
	run.keepAlive(context.WithoutCancel(ctx), m.runTTL)
	return run, nil
}

func (m *Manager) solve(ctx context.Context, id string, alg solve.Algorithm) (*Run, error) {
	b, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if alg == "" {
		alg = b.Algorithm
	}
	g, err := b.Grid()
	if err != nil {
		return nil, gwerr.Wrap(gwerr.ErrCodeInternal, err, "board %s is corrupt", id)
	}
	solveCtx, cancel := context.WithTimeout(ctx, m.solveTimeout)
	defer cancel()
	res, err := solve.Solve(solveCtx, alg, g, solve.WithMaxSteps(m.maxSteps))
	switch {
	case errors.Is(err, solve.ErrUnknownAlgorithm):
		return nil, gwerr.Wrap(gwerr.ErrCodeInvalidAlgorithm, err, "solve board %s", id)
	case errors.Is(err, solve.ErrStepLimit),
		errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		return nil, gwerr.Wrap(gwerr.ErrCodeTooComplex, err, "solve board %s is too complex", id)
	case err != nil:
		return nil, err
	}
	return &Run{ID: uuid.NewString(), Board: b, Result: res}, nil
}

// edit runs fn on a fresh copy of the board under the board lock and stores the result.
func (m *Manager) edit(ctx context.Context, id string, fn func(b *Board) error) error {
	if err := gwerr.ValidateBoardID(id); err != nil {
		return err
	}
	return m.withEditLock(ctx, id, func() error {
		b, err := m.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(b); err != nil {
			return err
		}
		return m.put(ctx, b)
	})
}

// withEditLock holds the board lock for the duration of fn. The lock is the
// same one runs take, so edits fail fast while a run is replaying.
func (m *Manager) withEditLock(ctx context.Context, id string, fn func() error) error {
	lock, err := m.acquire(ctx, id, time.Minute)
	if err != nil {
		return err
	}
	defer lock.Release(context.WithoutCancel(ctx))
	return fn()
}

func (m *Manager) acquire(ctx context.Context, id string, ttl time.Duration) (Lock, error) {
	lock, err := m.locker.Acquire(ctx, id, ttl)
	switch {
	case errors.Is(err, ErrRunInProgress):
		observability.Store().OnRunRejected(ctx, id)
		return nil, gwerr.Wrap(gwerr.ErrCodeRunInProgress, ErrRunInProgress, "board %s", id)
	case err != nil:
		return nil, gwerr.Wrap(gwerr.ErrCodeStorage, err, "lock board %s", id)
	}
	return lock, nil
}

func (m *Manager) put(ctx context.Context, b *Board) error {
	now := m.now()
	b.UpdatedAt = now
	if m.ttl > 0 {
		b.ExpiresAt = now.Add(m.ttl)
	}
	start := time.Now()
	err := m.store.Put(ctx, b)
	m.observe(ctx, "put", start, err)
	if err != nil {
		return gwerr.Wrap(gwerr.ErrCodeStorage, err, "save board %s", b.ID)
	}
	return nil
}

func (m *Manager) observe(ctx context.Context, op string, start time.Time, err error) {
	if errors.Is(err, ErrNotFound) {
		err = nil
	}
	observability.Store().OnStoreOp(ctx, m.store.Name(), op, time.Since(start), err)
}
