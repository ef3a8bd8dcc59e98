package solve

import (
	"context"
	"slices"

	"github.com/matzehuels/gridwalk/pkg/grid"
)

// BFS searches g from start to goal breadth-first, mutating g in place.
//
// Each frontier is processed in full before the next: every dequeued cell
// emits StepExpand, newly reached neighbors are marked Visited with
// StepDiscover, and a StepLevel closes the frontier. The search continues
// until the queue is empty. If the goal was reached, StepPath steps follow
// in goal-to-start order while parent pointers are walked back; the returned
// path is in start-to-goal order and is a shortest path.
//
// Cells marked Visited stay Visited. A start cell that is not Open yields no
// path and no steps.
func BFS(ctx context.Context, g *grid.Grid, start, goal grid.Coord, opts ...Option) (*Result, error) {
	if err := validate(g, start, goal); err != nil {
		return nil, err
	}
	n := g.Size()
	t := newTracer(ctx, buildOptions(opts), 3*n*n)
	res := &Result{Algorithm: BreadthFirst, Start: start, Goal: goal, Grid: g}

	index := func(c grid.Coord) int { return c.Row*n + c.Col }
	parent := make([]int, n*n)
	for i := range parent {
		parent[i] = -1
	}
	reached := make([]bool, n*n)

	var queue []grid.Coord
	if g.Visit(start) {
		reached[index(start)] = true
		queue = append(queue, start)
		if err := t.emit(StepDiscover, start, 0); err != nil {
			return nil, err
		}
	}

	for level := 0; len(queue) > 0; level++ {
		frontier := len(queue)
		for range frontier {
			at := queue[0]
			queue = queue[1:]
			if err := t.emit(StepExpand, at, level); err != nil {
				return nil, err
			}
			for _, next := range g.Neighbors(at) {
				if !g.Visit(next) {
					continue
				}
				reached[index(next)] = true
				parent[index(next)] = index(at)
				queue = append(queue, next)
				if err := t.emit(StepDiscover, next, level+1); err != nil {
					return nil, err
				}
			}
		}
		if err := t.emit(StepLevel, grid.Coord{}, level); err != nil {
			return nil, err
		}
	}

	if reached[index(goal)] {
		var path []grid.Coord
		for i := index(goal); i >= 0; i = parent[i] {
			c := grid.Coord{Row: i / n, Col: i % n}
			if err := t.emit(StepPath, c, len(path)); err != nil {
				return nil, err
			}
			path = append(path, c)
		}
		slices.Reverse(path)
		res.Found = true
		res.Path = path
	}

	res.Steps = t.steps
	res.Visited = t.visited
	return res, nil
}
