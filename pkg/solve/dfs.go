package solve

import (
	"context"

	"github.com/matzehuels/gridwalk/pkg/grid"
)

// dfsWalker holds the state of one depth-first run.
type dfsWalker struct {
	g    *grid.Grid
	goal grid.Coord
	t    *tracer
}

// DFS searches g from start to goal depth-first, mutating g in place.
//
// On success the result holds the root-to-goal path, the cells on it stay
// Visited and one StepPath per cell follows in root-to-goal order. On failure
// every cell the run visited has been backtracked, so g is unchanged.
// A start cell that is not Open yields no path and no steps.
func DFS(ctx context.Context, g *grid.Grid, start, goal grid.Coord, opts ...Option) (*Result, error) {
	if err := validate(g, start, goal); err != nil {
		return nil, err
	}
	w := &dfsWalker{
		g:    g,
		goal: goal,
		t:    newTracer(ctx, buildOptions(opts), 4*g.Size()*g.Size()),
	}

	path, found, err := w.walk(start, nil)
	if err != nil {
		return nil, err
	}
	if !found {
		path = nil
	}
	for i, c := range path {
		if err := w.t.emit(StepPath, c, i); err != nil {
			return nil, err
		}
	}
	return &Result{
		Algorithm: DepthFirst,
		Start:     start,
		Goal:      goal,
		Found:     found,
		Path:      path,
		Steps:     w.t.steps,
		Visited:   w.t.visited,
		Grid:      g,
	}, nil
}

// walk enters at, extending path. It returns the path to the goal when found;
// otherwise at has been unmarked and the returned path is the one passed in.
func (w *dfsWalker) walk(at grid.Coord, path []grid.Coord) ([]grid.Coord, bool, error) {
	if !w.g.Visit(at) {
		return path, false, nil
	}
	path = append(path, at)
	if err := w.t.emit(StepVisit, at, len(path)-1); err != nil {
		return path, false, err
	}
	if at == w.goal {
		return path, true, nil
	}

	for _, d := range grid.Directions {
		next, found, err := w.walk(at.Move(d), path)
		if err != nil || found {
			return next, found, err
		}
	}

	w.g.Unvisit(at)
	path = path[:len(path)-1]
	return path, false, w.t.emit(StepBacktrack, at, len(path))
}
