package solve

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/matzehuels/gridwalk/pkg/grid"
	"github.com/matzehuels/gridwalk/pkg/observability"
)

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		in      string
		want    Algorithm
		wantErr bool
	}{
		{"DFS", DepthFirst, false},
		{"dfs", DepthFirst, false},
		{" bfs ", BreadthFirst, false},
		{"BFS", BreadthFirst, false},
		{"astar", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseAlgorithm(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseAlgorithm(%q) err = %v", tt.in, err)
			continue
		}
		if tt.wantErr && !errors.Is(err, ErrUnknownAlgorithm) {
			t.Errorf("ParseAlgorithm(%q) err = %v, want ErrUnknownAlgorithm", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseAlgorithm(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSolveLeavesInputUntouched(t *testing.T) {
	for _, alg := range Algorithms {
		t.Run(string(alg), func(t *testing.T) {
			g := mustParse(t, "...\n.#.\n...")
			before := g.Clone()

			res, err := Solve(context.Background(), alg, g)
			if err != nil {
				t.Fatal(err)
			}
			if !res.Found {
				t.Fatal("expected a path")
			}
			if !g.Equal(before) {
				t.Error("Solve mutated the caller's grid")
			}
			if res.Grid == g {
				t.Error("Result.Grid should be a clone")
			}
			if res.Algorithm != alg {
				t.Errorf("Algorithm = %s", res.Algorithm)
			}
		})
	}
}

func TestSolveScenarios(t *testing.T) {
	openPath := []grid.Coord{grid.At(0, 0), grid.At(0, 1), grid.At(0, 2), grid.At(1, 2), grid.At(2, 2)}

	tests := []struct {
		name      string
		layout    string
		alg       Algorithm
		wantFound bool
		wantPath  []grid.Coord
	}{
		{"OpenDFS", "...\n...\n...", DepthFirst, true, openPath},
		{"OpenBFS", "...\n...\n...", BreadthFirst, true, openPath},
		{"WalledDFS", ".#\n#.", DepthFirst, false, nil},
		{"WalledBFS", ".#\n#.", BreadthFirst, false, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Solve(context.Background(), tt.alg, mustParse(t, tt.layout))
			if err != nil {
				t.Fatal(err)
			}
			if res.Found != tt.wantFound {
				t.Fatalf("Found = %v, want %v", res.Found, tt.wantFound)
			}
			if !samePath(res.Path, tt.wantPath) {
				t.Errorf("path = %v, want %v", res.Path, tt.wantPath)
			}
		})
	}
}

func TestSolveCustomEndpoints(t *testing.T) {
	g := grid.MustNew(4)
	res, err := Solve(context.Background(), BreadthFirst, g,
		WithStart(grid.At(3, 0)), WithGoal(grid.At(0, 3)))
	if err != nil {
		t.Fatal(err)
	}
	if res.Start != grid.At(3, 0) || res.Goal != grid.At(0, 3) {
		t.Errorf("endpoints = %s -> %s", res.Start, res.Goal)
	}
	if res.Moves() != 6 {
		t.Errorf("moves = %d, want 6", res.Moves())
	}
}

func TestSolveErrors(t *testing.T) {
	if _, err := Solve(context.Background(), DepthFirst, nil); !errors.Is(err, ErrNilGrid) {
		t.Errorf("nil grid err = %v", err)
	}
	if _, err := Solve(context.Background(), "astar", grid.MustNew(2)); !errors.Is(err, ErrUnknownAlgorithm) {
		t.Errorf("unknown algorithm err = %v", err)
	}
}

type recordingHooks struct {
	observability.NoopSolveHooks
	events []observability.SolveEvent
}

func (h *recordingHooks) OnSolveComplete(_ context.Context, ev observability.SolveEvent) {
	h.events = append(h.events, ev)
}

func TestSolveReportsToHooks(t *testing.T) {
	observability.Reset()
	defer observability.Reset()
	h := &recordingHooks{}
	observability.SetSolveHooks(h)

	if _, err := Solve(context.Background(), BreadthFirst, grid.MustNew(3)); err != nil {
		t.Fatal(err)
	}
	if _, err := Solve(context.Background(), DepthFirst, mustParse(t, ".#\n#.")); err != nil {
		t.Fatal(err)
	}

	if len(h.events) != 2 {
		t.Fatalf("events = %d, want 2", len(h.events))
	}
	if ev := h.events[0]; !ev.Found || ev.PathLen != 4 || ev.Visited != 9 || ev.Algorithm != "BFS" {
		t.Errorf("bfs event = %+v", ev)
	}
	if ev := h.events[1]; ev.Found || ev.PathLen != -1 {
		t.Errorf("dfs event = %+v", ev)
	}
}

func TestApplyReproducesFinalGrid(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for i := range 50 {
		g := randomGrid(rng, 2+rng.IntN(5), 0.3)
		for _, alg := range Algorithms {
			res, err := Solve(context.Background(), alg, g, WithMaxSteps(50_000))
			if errors.Is(err, ErrStepLimit) {
				continue
			}
			if err != nil {
				t.Fatal(err)
			}
			replayed := g.Clone()
			Apply(replayed, res.Steps)
			if !replayed.Equal(res.Grid) {
				t.Fatalf("case %d %s: replayed grid\n%s\nwant\n%s", i, alg, replayed, res.Grid)
			}
		}
	}
}

func TestAlgorithmsAgreeOnReachability(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for i := range 200 {
		g := randomGrid(rng, 2+rng.IntN(5), 0.35)

		dfs, err := Solve(context.Background(), DepthFirst, g, WithMaxSteps(50_000))
		if errors.Is(err, ErrStepLimit) {
			continue
		}
		if err != nil {
			t.Fatal(err)
		}
		bfs, err := Solve(context.Background(), BreadthFirst, g)
		if err != nil {
			t.Fatal(err)
		}

		if dfs.Found != bfs.Found {
			t.Fatalf("case %d: dfs found=%v bfs found=%v on\n%s", i, dfs.Found, bfs.Found, g)
		}
		if !dfs.Found {
			if !dfs.Grid.Equal(g) {
				t.Fatalf("case %d: failed DFS did not restore the grid", i)
			}
			continue
		}
		if bfs.Moves() > dfs.Moves() {
			t.Errorf("case %d: bfs moves %d > dfs moves %d", i, bfs.Moves(), dfs.Moves())
		}
		if bfs.Moves() < g.Start().Manhattan(g.Goal()) {
			t.Errorf("case %d: bfs beat the manhattan bound", i)
		}
	}
}

func TestResultJSON(t *testing.T) {
	res, err := Solve(context.Background(), DepthFirst, grid.MustNew(2))
	if err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(res)
	if err != nil {
		t.Fatal(err)
	}
	var back struct {
		Found bool   `json:"found"`
		Steps []Step `json:"steps"`
	}
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if !back.Found || len(back.Steps) != len(res.Steps) || back.Steps[0].Kind != StepVisit {
		t.Errorf("decoded = %+v", back)
	}
}

func randomGrid(rng *rand.Rand, n int, density float64) *grid.Grid {
	g := grid.MustNew(n)
	for c := range g.All() {
		if c == g.Start() || c == g.Goal() {
			continue
		}
		if rng.Float64() < density {
			_ = g.SetWall(c, true)
		}
	}
	return g
}
