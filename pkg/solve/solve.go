package solve

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/gridwalk/pkg/grid"
	"github.com/matzehuels/gridwalk/pkg/observability"
)

// Result is the outcome of one traversal.
type Result struct {
	Algorithm Algorithm    `json:"algorithm"`
	Start     grid.Coord   `json:"start"`
	Goal      grid.Coord   `json:"goal"`
	Found     bool         `json:"found"`
	Path      []grid.Coord `json:"path,omitempty"`
	Steps     []Step       `json:"steps"`

	// Visited counts the cells marked Visited at any point during the run.
	Visited int `json:"visited"`

	// Grid is the grid the run operated on, in its final state.
	Grid *grid.Grid `json:"grid,omitempty"`
}

// Moves returns the number of moves on the found path, or -1 without one.
func (r *Result) Moves() int {
	if !r.Found {
		return -1
	}
	return len(r.Path) - 1
}

// OnPath reports whether c is part of the found path.
func (r *Result) OnPath(c grid.Coord) bool {
	for _, p := range r.Path {
		if p == c {
			return true
		}
	}
	return false
}

// Solve runs alg on a clone of g from start to goal, which default to the
// top-left and bottom-right cells. The caller's grid is never modified;
// Result.Grid holds the clone in its final state.
func Solve(ctx context.Context, alg Algorithm, g *grid.Grid, opts ...Option) (*Result, error) {
	if g == nil {
		return nil, ErrNilGrid
	}
	o := buildOptions(opts)
	start, goal := g.Start(), g.Goal()
	if o.start != nil {
		start = *o.start
	}
	if o.goal != nil {
		goal = *o.goal
	}

	hooks := observability.Solve()
	hooks.OnSolveStart(ctx, string(alg), g.Size())
	begin := time.Now()

	var (
		res *Result
		err error
	)
	work := g.Clone()
	switch alg {
	case DepthFirst:
		res, err = DFS(ctx, work, start, goal, opts...)
	case BreadthFirst:
		res, err = BFS(ctx, work, start, goal, opts...)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownAlgorithm, alg)
	}

	ev := observability.SolveEvent{
		Algorithm: string(alg),
		Size:      g.Size(),
		PathLen:   -1,
		Duration:  time.Since(begin),
		Err:       err,
	}
	if res != nil {
		ev.Found = res.Found
		ev.Visited = res.Visited
		ev.Steps = len(res.Steps)
		ev.PathLen = res.Moves()
	}
	hooks.OnSolveComplete(ctx, ev)

	return res, err
}
