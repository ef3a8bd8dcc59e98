package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/gridwalk/pkg/grid"
	"github.com/matzehuels/gridwalk/pkg/replay"
	"github.com/matzehuels/gridwalk/pkg/solve"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

// drain feeds step messages until the run ends.
func drain(t *testing.T, m Model) Model {
	t.Helper()
	for i := 0; m.Phase() == PhaseRunning; i++ {
		if i > 10_000 {
			t.Fatal("run did not finish")
		}
		m = send(t, m, stepMsg{gen: m.gen})
	}
	return m
}

func TestNewDefaults(t *testing.T) {
	m := New(Options{Size: 1})
	if m.Grid().Size() != grid.MinSize {
		t.Errorf("size = %d, want %d", m.Grid().Size(), grid.MinSize)
	}
	if m.alg != solve.DepthFirst || m.Phase() != PhaseEdit {
		t.Errorf("unexpected initial model: alg=%s phase=%d", m.alg, m.Phase())
	}
}

func TestNewFromLayoutDropsVisits(t *testing.T) {
	g, _ := grid.FromRows([]string{"o#", ".."})
	m := New(Options{Layout: g})
	if m.Grid().Count(grid.Visited) != 0 || m.Grid().Cell(grid.At(0, 1)) != grid.Wall {
		t.Errorf("layout not copied cleanly:\n%s", m.Grid())
	}
	if g.Cell(grid.At(0, 0)) != grid.Visited {
		t.Error("caller's grid was modified")
	}
}

func TestCursorStaysInBounds(t *testing.T) {
	m := New(Options{Size: 3})
	m = send(t, m, key("up"), key("left"))
	if m.cursor != grid.At(0, 0) {
		t.Errorf("cursor = %s", m.cursor)
	}
	m = send(t, m, key("down"), key("down"), key("down"), key("l"), key("l"), key("l"))
	if m.cursor != grid.At(2, 2) {
		t.Errorf("cursor = %s, want (2,2)", m.cursor)
	}
}

func TestToggleWall(t *testing.T) {
	m := New(Options{Size: 3})
	m = send(t, m, key("right"), key("x"))
	if m.Grid().Cell(grid.At(0, 1)) != grid.Wall {
		t.Fatalf("wall not placed:\n%s", m.Grid())
	}
	m = send(t, m, key("x"))
	if m.Grid().Cell(grid.At(0, 1)) != grid.Open {
		t.Errorf("wall not removed:\n%s", m.Grid())
	}
}

func TestSolveReplaysWholeTrace(t *testing.T) {
	for _, alg := range solve.Algorithms {
		t.Run(string(alg), func(t *testing.T) {
			m := New(Options{Size: 4, Algorithm: alg, Pacing: replay.Pacing{Delay: time.Millisecond, PathDelay: time.Millisecond}})
			m = send(t, m, key("enter"))
			if m.Phase() != PhaseRunning {
				t.Fatalf("phase = %d, want running", m.Phase())
			}

			m = drain(t, m)
			if m.Phase() != PhaseDone {
				t.Fatalf("phase = %d, want done", m.Phase())
			}
			res := m.Result()
			if !m.Grid().Equal(res.Grid) {
				t.Errorf("replayed grid differs from result:\n%s\nwant\n%s", m.Grid(), res.Grid)
			}
			if len(m.path) != len(res.Path) {
				t.Errorf("highlighted %d path cells, want %d", len(m.path), len(res.Path))
			}
			if !strings.Contains(m.Status(), "found a path") {
				t.Errorf("status = %q", m.Status())
			}
		})
	}
}

func TestRunningRejectsEditsAndRestart(t *testing.T) {
	m := New(Options{Size: 5, Pacing: replay.NewPacing(time.Second)})
	m = send(t, m, key("enter"))
	gen := m.gen

	m = send(t, m, key("enter"))
	if m.gen != gen || !strings.Contains(m.Status(), "already solving") {
		t.Errorf("second start not refused: gen %d→%d status %q", gen, m.gen, m.Status())
	}

	m = send(t, m, key("down"), key("x"))
	if m.layout.Cell(grid.At(1, 0)) == grid.Wall {
		t.Error("wall toggled during a run")
	}
	m = send(t, m, key("+"), key("a"))
	if m.layout.Size() != 5 || m.alg != solve.DepthFirst {
		t.Error("settings changed during a run")
	}
}

func TestEscStopsRunAndIgnoresStaleTicks(t *testing.T) {
	m := New(Options{Size: 5, Pacing: replay.NewPacing(time.Second)})
	m = send(t, m, key("enter"))
	stale := m.gen
	m = send(t, m, stepMsg{gen: stale})
	shown := m.next

	m = send(t, m, key("esc"))
	if m.Phase() != PhaseDone {
		t.Fatalf("phase = %d, want done", m.Phase())
	}
	m = send(t, m, stepMsg{gen: stale})
	if m.next != shown {
		t.Errorf("stale tick advanced the replay: %d → %d", shown, m.next)
	}
}

func TestResizeAndAlgorithm(t *testing.T) {
	m := New(Options{Size: grid.MaxSize})
	m = send(t, m, key("+"))
	if m.layout.Size() != grid.MaxSize {
		t.Errorf("size = %d, want clamp at %d", m.layout.Size(), grid.MaxSize)
	}
	m = send(t, m, key("-"), key("-"))
	if m.layout.Size() != grid.MaxSize-2 {
		t.Errorf("size = %d", m.layout.Size())
	}
	m = send(t, m, key("a"))
	if m.alg != solve.BreadthFirst {
		t.Errorf("alg = %s, want BFS", m.alg)
	}
	m = send(t, m, key("a"))
	if m.alg != solve.DepthFirst {
		t.Errorf("alg = %s, want DFS", m.alg)
	}
}

func TestNoPathStatus(t *testing.T) {
	g, _ := grid.FromRows([]string{".#", "#."})
	m := New(Options{Layout: g, Algorithm: solve.BreadthFirst})
	m = drain(t, send(t, m, key("enter")))
	if !strings.Contains(m.Status(), "no path") {
		t.Errorf("status = %q", m.Status())
	}
	if m.Grid().Count(grid.Visited) != 1 {
		t.Errorf("visited = %d, want 1", m.Grid().Count(grid.Visited))
	}
}

func TestUnsolvableBoardGivesUp(t *testing.T) {
	g := grid.MustNew(10)
	g.SetWall(grid.At(9, 8), true)
	g.SetWall(grid.At(8, 9), true)
	m := New(Options{Layout: g})

	begin := time.Now()
	m = send(t, m, key("enter"))
	if d := time.Since(begin); d > 5*time.Second {
		t.Errorf("start took %v", d)
	}
	if m.Phase() != PhaseEdit || !strings.Contains(m.Status(), "too complex") {
		t.Errorf("phase=%d status=%q, want a refused run", m.Phase(), m.Status())
	}

	m = send(t, m, key("a"), key("enter"))
	m = drain(t, m)
	if !strings.Contains(m.Status(), "no path") {
		t.Errorf("BFS status = %q", m.Status())
	}
}

func TestViewShowsBoard(t *testing.T) {
	m := New(Options{Size: 3})
	out := m.View()
	for _, want := range []string{"gridwalk", "3x3", "DFS", "ready"} {
		if !strings.Contains(out, want) {
			t.Errorf("View missing %q", want)
		}
	}
}
