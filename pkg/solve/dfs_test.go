package solve

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/matzehuels/gridwalk/pkg/grid"
)

func mustParse(t *testing.T, s string) *grid.Grid {
	t.Helper()
	g, err := grid.ParseText(s)
	if err != nil {
		t.Fatalf("parse grid: %v", err)
	}
	return g
}

func samePath(got, want []grid.Coord) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func kinds(steps []Step) []Kind {
	out := make([]Kind, len(steps))
	for i, s := range steps {
		out[i] = s.Kind
	}
	return out
}

func TestDFSOpenGrid(t *testing.T) {
	g := grid.MustNew(3)
	res, err := DFS(context.Background(), g, g.Start(), g.Goal())
	if err != nil {
		t.Fatal(err)
	}
	if !res.Found {
		t.Fatal("expected a path on an open grid")
	}

	want := []grid.Coord{grid.At(0, 0), grid.At(0, 1), grid.At(0, 2), grid.At(1, 2), grid.At(2, 2)}
	if !samePath(res.Path, want) {
		t.Errorf("path = %v, want %v", res.Path, want)
	}
	if len(res.Steps) != 10 {
		t.Errorf("steps = %d, want 5 visits + 5 path", len(res.Steps))
	}
	for i, s := range res.Steps[5:] {
		if s.Kind != StepPath || s.Cell != want[i] {
			t.Errorf("path step %d = %v, want path %s", i, s, want[i])
		}
	}
	if res.Visited != 5 {
		t.Errorf("Visited = %d, want 5", res.Visited)
	}
}

func TestDFSBacktrack(t *testing.T) {
	g := mustParse(t, `
		..#
		.#.
		...`)
	res, err := DFS(context.Background(), g, g.Start(), g.Goal())
	if err != nil {
		t.Fatal(err)
	}

	wantPath := []grid.Coord{grid.At(0, 0), grid.At(1, 0), grid.At(2, 0), grid.At(2, 1), grid.At(2, 2)}
	if !samePath(res.Path, wantPath) {
		t.Fatalf("path = %v, want %v", res.Path, wantPath)
	}

	wantKinds := []Kind{StepVisit, StepVisit, StepBacktrack, StepVisit, StepVisit, StepVisit, StepVisit}
	got := kinds(res.Steps[:len(wantKinds)])
	for i := range wantKinds {
		if got[i] != wantKinds[i] {
			t.Fatalf("step kinds = %v, want prefix %v", kinds(res.Steps), wantKinds)
		}
	}
	if bt := res.Steps[2]; bt.Cell != grid.At(0, 1) || bt.Depth != 1 {
		t.Errorf("backtrack step = %v depth %d, want (0,1) depth 1", bt, bt.Depth)
	}
	if g.Cell(grid.At(0, 1)) != grid.Open {
		t.Error("backtracked cell should be open again")
	}
	for _, c := range wantPath {
		if g.Cell(c) != grid.Visited {
			t.Errorf("path cell %s should stay visited", c)
		}
	}
}

func TestDFSNoPathRestoresGrid(t *testing.T) {
	tests := []struct {
		name   string
		layout string
	}{
		{"CornersWalled", ".#\n#."},
		{"GoalEnclosed", `
			....
			....
			...#
			..#.`},
		{"DeadEnds", `
			...#.
			.#.#.
			.#...
			.####
			.#...`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustParse(t, tt.layout)
			before := g.Clone()

			res, err := DFS(context.Background(), g, g.Start(), g.Goal())
			if err != nil {
				t.Fatal(err)
			}
			if res.Found {
				t.Fatalf("unexpected path %v", res.Path)
			}
			if res.Path != nil {
				t.Errorf("path = %v, want nil", res.Path)
			}
			if !g.Equal(before) {
				t.Errorf("grid after failed DFS:\n%s\nwant\n%s", g, before)
			}
			if g.Cell(g.Goal()) == grid.Visited {
				t.Error("goal must not be visited")
			}

			var visits, backtracks int
			for _, s := range res.Steps {
				switch s.Kind {
				case StepVisit:
					visits++
				case StepBacktrack:
					backtracks++
				case StepPath:
					t.Errorf("unexpected path step %v", s)
				}
			}
			if visits != backtracks {
				t.Errorf("visits=%d backtracks=%d, want equal", visits, backtracks)
			}
		})
	}
}

func TestDFSStartBlocked(t *testing.T) {
	g := mustParse(t, "#.\n..")
	res, err := DFS(context.Background(), g, g.Start(), g.Goal())
	if err != nil {
		t.Fatal(err)
	}
	if res.Found || len(res.Steps) != 0 {
		t.Errorf("found=%v steps=%d, want no path and no steps", res.Found, len(res.Steps))
	}
}

func TestDFSSingleCell(t *testing.T) {
	g := grid.MustNew(1)
	res, err := DFS(context.Background(), g, g.Start(), g.Goal())
	if err != nil {
		t.Fatal(err)
	}
	if !res.Found || res.Moves() != 0 {
		t.Errorf("found=%v moves=%d, want found with 0 moves", res.Found, res.Moves())
	}
}

func TestDFSErrors(t *testing.T) {
	g := grid.MustNew(3)

	if _, err := DFS(context.Background(), nil, g.Start(), g.Goal()); !errors.Is(err, ErrNilGrid) {
		t.Errorf("nil grid err = %v", err)
	}
	if _, err := DFS(context.Background(), g, g.Start(), grid.At(3, 3)); !errors.Is(err, grid.ErrOutOfBounds) {
		t.Errorf("out of bounds goal err = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := DFS(ctx, grid.MustNew(3), g.Start(), g.Goal()); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled err = %v", err)
	}

	boom := errors.New("boom")
	hook := WithOnStep(func(s Step) error {
		if s.Seq == 2 {
			return boom
		}
		return nil
	})
	if _, err := DFS(context.Background(), grid.MustNew(3), g.Start(), g.Goal(), hook); !errors.Is(err, boom) {
		t.Errorf("hook err = %v", err)
	}

	if _, err := DFS(context.Background(), grid.MustNew(5), g.Start(), grid.At(4, 4), WithMaxSteps(3)); !errors.Is(err, ErrStepLimit) {
		t.Errorf("step limit err = %v", err)
	}
}

// wallOffGoal surrounds the bottom-right cell of an open n×n grid.
func wallOffGoal(t *testing.T, n int) *grid.Grid {
	t.Helper()
	g := grid.MustNew(n)
	for _, c := range []grid.Coord{grid.At(n-1, n-2), grid.At(n-2, n-1)} {
		if err := g.SetWall(c, true); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func TestDFSUnreachableGoalStaysWithinBudget(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	g := wallOffGoal(t, 10)

	begin := time.Now()
	_, err := Solve(ctx, DepthFirst, g)
	if !errors.Is(err, ErrStepLimit) {
		t.Fatalf("err = %v, want ErrStepLimit", err)
	}
	if d := time.Since(begin); d > 5*time.Second {
		t.Errorf("hitting the step budget took %v", d)
	}

	res, err := Solve(ctx, BreadthFirst, g)
	if err != nil || res.Found {
		t.Errorf("BFS on the same grid = %+v, %v; want no path", res, err)
	}
}

func TestWithMaxSteps(t *testing.T) {
	ctx := context.Background()
	g := wallOffGoal(t, 5)

	if _, err := Solve(ctx, DepthFirst, g, WithMaxSteps(1000)); !errors.Is(err, ErrStepLimit) {
		t.Errorf("limit 1000: err = %v, want ErrStepLimit", err)
	}
	for _, n := range []int{0, -1} {
		res, err := Solve(ctx, DepthFirst, g, WithMaxSteps(n))
		if err != nil || res.Found {
			t.Errorf("WithMaxSteps(%d) = %v, want exhaustive failure", n, err)
			continue
		}
		if len(res.Steps) <= 1000 {
			t.Errorf("WithMaxSteps(%d): %d steps, expected an exhaustive search", n, len(res.Steps))
		}
	}
}
