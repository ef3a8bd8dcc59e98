// Package session manages boards: stored grid layouts that users edit and
// solve, and the run lock that keeps two solves off the same board.
//
// Storage is pluggable through [Store]:
//   - [MemoryStore]: in-process, for tests and single-instance servers
//   - [FileStore]: JSON files, for the CLI (~/.config/gridwalk/boards/)
//   - session/redis: shared storage for multi-instance servers
//   - session/mongo: durable document storage
//
// # Run lock
//
// A board may have at most one active solve. [Manager.StartRun] takes a
// per-board lock through a [Locker] and fails with [ErrRunInProgress] while
// another run holds it; wall edits are refused the same way. The lock is
// released by [Run.Finish] once the presentation layer has finished replaying,
// or expires after the run TTL if the caller goes away.
//
// # Usage
//
//	mgr := session.NewManager(session.NewMemoryStore(), session.NewMemoryLocker())
//	b, _ := mgr.Create(ctx, 10)
//	mgr.ToggleWall(ctx, b.ID, grid.At(3, 4))
//	run, err := mgr.StartRun(ctx, b.ID, solve.BreadthFirst)
//	if errors.Is(err, session.ErrRunInProgress) {
//	    // someone else is solving this board
//	}
//	defer run.Finish(ctx)
package session

import (
	"context"
	"errors"
	"time"

	"github.com/matzehuels/gridwalk/pkg/grid"
	"github.com/matzehuels/gridwalk/pkg/solve"
)

// Sentinel errors for board operations.
var (
	// ErrNotFound is returned when a board does not exist or has expired.
	ErrNotFound = errors.New("board not found")

	// ErrRunInProgress is returned when a board already has an active solve.
	ErrRunInProgress = errors.New("a solve is already running on this board")
)

// Default durations.
const (
	// DefaultTTL is how long an idle board is kept.
	DefaultTTL = 24 * time.Hour

	// DefaultRunTTL bounds how long a run lock survives a caller that never finishes.
	DefaultRunTTL = 10 * time.Minute

	// DefaultSolveTimeout bounds the solve that starts a run.
	DefaultSolveTimeout = 10 * time.Second
)

// Board is a stored grid layout with its solve settings.
type Board struct {
	ID          string          `json:"id" bson:"_id"`
	Size        int             `json:"size" bson:"size"`
	Walls       []grid.Coord    `json:"walls" bson:"walls"`
	Algorithm   solve.Algorithm `json:"algorithm" bson:"algorithm"`
	DelayMillis int             `json:"delay_ms" bson:"delay_ms"`
	CreatedAt   time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" bson:"updated_at"`
	ExpiresAt   time.Time       `json:"expires_at,omitzero" bson:"expires_at,omitempty"`
}

// Grid builds the board's grid. Walls outside the board are rejected.
func (b *Board) Grid() (*grid.Grid, error) {
	return grid.FromWalls(b.Size, b.Walls)
}

// Delay returns the per-step replay delay.
func (b *Board) Delay() time.Duration {
	return time.Duration(b.DelayMillis) * time.Millisecond
}

// IsExpired reports whether the board outlived its TTL. Boards without
// an expiry never expire.
func (b *Board) IsExpired() bool {
	return !b.ExpiresAt.IsZero() && time.Now().After(b.ExpiresAt)
}

// Store is the interface for board storage backends.
type Store interface {
	// Name identifies the backend in logs and metrics.
	Name() string

	// Get retrieves a board by ID, returning ErrNotFound when it is
	// missing or expired.
	Get(ctx context.Context, id string) (*Board, error)

	// Put creates or replaces a board.
	Put(ctx context.Context, b *Board) error

	// Delete removes a board. Deleting a missing board is not an error.
	Delete(ctx context.Context, id string) error

	// List returns the IDs of stored, unexpired boards.
	List(ctx context.Context) ([]string, error)

	// Close releases backend resources.
	Close() error
}
