package solve

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/matzehuels/gridwalk/pkg/grid"
)

// Sentinel errors for traversal.
var (
	// ErrNilGrid is returned when a nil grid is passed.
	ErrNilGrid = errors.New("solve: grid is nil")

	// ErrUnknownAlgorithm is returned for an algorithm name other than DFS or BFS.
	ErrUnknownAlgorithm = errors.New("solve: unknown algorithm")

	// ErrStepLimit is returned when a run emits more steps than WithMaxSteps allows.
	ErrStepLimit = errors.New("solve: step limit exceeded")
)

// DefaultMaxSteps is the trace budget of every run unless [WithMaxSteps]
// says otherwise. DFS backtracking on a board whose goal is unreachable
// explores every simple path, so the budget is what bounds time and memory.
const DefaultMaxSteps = 250_000

// Algorithm selects a traversal.
type Algorithm string

const (
	DepthFirst   Algorithm = "DFS"
	BreadthFirst Algorithm = "BFS"
)

// Algorithms lists the supported traversals.
var Algorithms = []Algorithm{DepthFirst, BreadthFirst}

// ParseAlgorithm maps a case-insensitive name ("dfs", "BFS") to an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(strings.ToUpper(strings.TrimSpace(s))) {
	case DepthFirst:
		return DepthFirst, nil
	case BreadthFirst:
		return BreadthFirst, nil
	}
	return "", fmt.Errorf("%w: %q (must be one of: DFS, BFS)", ErrUnknownAlgorithm, s)
}

func (a Algorithm) String() string { return string(a) }

// Option configures a traversal.
type Option func(*options)

type options struct {
	start    *grid.Coord
	goal     *grid.Coord
	onStep   func(Step) error
	maxSteps int
}

func buildOptions(opts []Option) options {
	o := options{maxSteps: DefaultMaxSteps}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// WithStart overrides the start cell used by [Solve]. Default: (0,0).
func WithStart(c grid.Coord) Option {
	return func(o *options) { o.start = &c }
}

// WithGoal overrides the goal cell used by [Solve]. Default: (N-1,N-1).
func WithGoal(c grid.Coord) Option {
	return func(o *options) { o.goal = &c }
}

// WithOnStep registers a hook called synchronously for each step as it is
// recorded. A non-nil error aborts the run and is returned wrapped.
func WithOnStep(fn func(Step) error) Option {
	return func(o *options) { o.onStep = fn }
}

// WithMaxSteps bounds the trace length; a run that would exceed it fails
// with [ErrStepLimit]. Zero keeps [DefaultMaxSteps] and a negative n removes
// the bound.
func WithMaxSteps(n int) Option {
	return func(o *options) {
		switch {
		case n > 0:
			o.maxSteps = n
		case n < 0:
			o.maxSteps = 0
		}
	}
}

// tracer records steps and enforces cancellation, the step limit and the hook.
type tracer struct {
	ctx     context.Context
	opts    options
	steps   []Step
	visited int
}

func newTracer(ctx context.Context, opts options, capHint int) *tracer {
	return &tracer{ctx: ctx, opts: opts, steps: make([]Step, 0, capHint)}
}

func (t *tracer) emit(kind Kind, cell grid.Coord, depth int) error {
	if err := t.ctx.Err(); err != nil {
		return err
	}
	if t.opts.maxSteps > 0 && len(t.steps) >= t.opts.maxSteps {
		return fmt.Errorf("%w: %d", ErrStepLimit, t.opts.maxSteps)
	}
	s := Step{Seq: len(t.steps), Kind: kind, Cell: cell, Depth: depth}
	t.steps = append(t.steps, s)
	if kind == StepVisit || kind == StepDiscover {
		t.visited++
	}
	if t.opts.onStep != nil {
		if err := t.opts.onStep(s); err != nil {
			return fmt.Errorf("solve: step hook at %s: %w", s, err)
		}
	}
	return nil
}

func validate(g *grid.Grid, start, goal grid.Coord) error {
	if g == nil {
		return ErrNilGrid
	}
	if !g.InBounds(start) {
		return fmt.Errorf("start %w: %s", grid.ErrOutOfBounds, start)
	}
	if !g.InBounds(goal) {
		return fmt.Errorf("goal %w: %s", grid.ErrOutOfBounds, goal)
	}
	return nil
}
