package session

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"
)

// MemoryStore keeps boards in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	boards map[string]*Board
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{boards: make(map[string]*Board)}
}

// Name returns "memory".
func (s *MemoryStore) Name() string { return "memory" }

func (s *MemoryStore) Get(ctx context.Context, id string) (*Board, error) {
	s.mu.RLock()
	b, ok := s.boards[id]
	s.mu.RUnlock()
	if !ok || b.IsExpired() {
		return nil, ErrNotFound
	}
	return cloneBoard(b), nil
}

func (s *MemoryStore) Put(ctx context.Context, b *Board) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boards[b.ID] = cloneBoard(b)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.boards, id)
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for _, id := range slices.Sorted(maps.Keys(s.boards)) {
		if !s.boards[id].IsExpired() {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)

func cloneBoard(b *Board) *Board {
	c := *b
	c.Walls = slices.Clone(b.Walls)
	return &c
}

// MemoryLocker is a process-local Locker.
type MemoryLocker struct {
	mu    sync.Mutex
	held  map[string]memoryLock
	now   func() time.Time
	token uint64
}

type memoryLock struct {
	token   uint64
	expires time.Time
}

// NewMemoryLocker creates an empty process-local locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]memoryLock), now: time.Now}
}

// Acquire takes key for ttl, failing with ErrRunInProgress while another
// holder's lock is unexpired.
func (l *MemoryLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (Lock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if cur, ok := l.held[key]; ok && now.Before(cur.expires) {
		return nil, ErrRunInProgress
	}
	l.token++
	tok := l.token
	l.held[key] = memoryLock{token: tok, expires: now.Add(ttl)}

	extend := func(_ context.Context, ttl time.Duration) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		now := l.now()
		cur, ok := l.held[key]
		if !ok || cur.token != tok || !now.Before(cur.expires) {
			return ErrLockLost
		}
		l.held[key] = memoryLock{token: tok, expires: now.Add(ttl)}
		return nil
	}
	release := func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if cur, ok := l.held[key]; ok && cur.token == tok {
			delete(l.held, key)
		}
		return nil
	}
	return NewLock(extend, release), nil
}

var _ Locker = (*MemoryLocker)(nil)
