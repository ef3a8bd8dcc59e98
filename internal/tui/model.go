// Package tui is the interactive terminal player: edit walls on a grid, pick
// an algorithm, and watch the traversal replay at the configured pace.
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/gridwalk/pkg/grid"
	"github.com/matzehuels/gridwalk/pkg/replay"
	"github.com/matzehuels/gridwalk/pkg/solve"
)

// Phase is what the player is doing.
type Phase int

const (
	// PhaseEdit accepts wall edits and settings changes.
	PhaseEdit Phase = iota
	// PhaseRunning is replaying a trace. Edits and new starts are refused.
	PhaseRunning
	// PhaseDone shows a finished or stopped run until the next edit.
	PhaseDone
)

// Options configures a new player.
type Options struct {
	// Layout is the starting grid. Nil means an open grid of Size.
	Layout    *grid.Grid
	Size      int
	Algorithm solve.Algorithm
	Pacing    replay.Pacing

	// MaxSteps and Timeout bound each solve. Zero uses
	// solve.DefaultMaxSteps and DefaultTimeout.
	MaxSteps int
	Timeout  time.Duration
}

// DefaultTimeout bounds a solve when Options.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// Model is the bubbletea model for the player.
type Model struct {
	layout *grid.Grid // walls only
	view   *grid.Grid // layout plus replayed visits
	cursor grid.Coord
	alg    solve.Algorithm
	pacing replay.Pacing

	maxSteps int
	timeout  time.Duration

	phase   Phase
	result  *solve.Result
	next    int // index of the next step to show
	current grid.Coord
	path    map[grid.Coord]bool
	gen     int // invalidates ticks from earlier runs
	status  string
}

// stepMsg asks the model to show the next step of run gen.
type stepMsg struct{ gen int }

// New creates a player.
func New(opts Options) Model {
	layout := opts.Layout
	if layout == nil {
		layout = grid.MustNew(grid.ClampSize(opts.Size))
	} else {
		layout = layout.Clone()
		layout.Reset()
	}
	alg := opts.Algorithm
	if alg == "" {
		alg = solve.DepthFirst
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return Model{
		layout:   layout,
		view:     layout.Clone(),
		alg:      alg,
		pacing:   opts.Pacing,
		maxSteps: opts.MaxSteps,
		timeout:  timeout,
		path:     map[grid.Coord]bool{},
		status:   "ready",
	}
}

// Run starts the player on the terminal and blocks until it quits or ctx ends.
func Run(ctx context.Context, opts Options) error {
	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd { return nil }

// Phase returns the current phase.
func (m Model) Phase() Phase { return m.phase }

// Grid returns the displayed grid.
func (m Model) Grid() *grid.Grid { return m.view }

// Result returns the last run's result, or nil.
func (m Model) Result() *solve.Result { return m.result }

// Status returns the status line text.
func (m Model) Status() string { return m.status }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case stepMsg:
		if msg.gen != m.gen || m.phase != PhaseRunning {
			return m, nil
		}
		return m.advance()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := m.layout.Size()
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		m.cursor.Row = max(m.cursor.Row-1, 0)
	case "down", "j":
		m.cursor.Row = min(m.cursor.Row+1, n-1)
	case "left", "h":
		m.cursor.Col = max(m.cursor.Col-1, 0)
	case "right", "l":
		m.cursor.Col = min(m.cursor.Col+1, n-1)
	case "esc":
		if m.phase == PhaseRunning {
			m.stop("stopped")
		}
	case " ", "x":
		if m.refuseWhileRunning() {
			return m, nil
		}
		m.clearRun()
		state, err := m.layout.ToggleWall(m.cursor)
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.view = m.layout.Clone()
		m.status = fmt.Sprintf("%s is now %s", m.cursor, state)
	case "a", "tab":
		if m.refuseWhileRunning() {
			return m, nil
		}
		m.alg = nextAlgorithm(m.alg)
		m.status = "algorithm: " + string(m.alg)
	case "+", "=":
		return m.resize(n + 1)
	case "-", "_":
		return m.resize(n - 1)
	case "c":
		if m.refuseWhileRunning() {
			return m, nil
		}
		m.clearRun()
		m.layout = grid.MustNew(n)
		m.view = m.layout.Clone()
		m.status = "walls cleared"
	case "r":
		if m.refuseWhileRunning() {
			return m, nil
		}
		m.clearRun()
		m.status = "ready"
	case "enter", "s":
		return m.start()
	}
	return m, nil
}

func (m *Model) refuseWhileRunning() bool {
	if m.phase == PhaseRunning {
		m.status = "solve in progress (esc to stop)"
		return true
	}
	return false
}

// clearRun drops the last run's overlay, returning to editing.
func (m *Model) clearRun() {
	m.phase = PhaseEdit
	m.result = nil
	m.next = 0
	m.path = map[grid.Coord]bool{}
	m.view = m.layout.Clone()
}

func (m Model) resize(n int) (tea.Model, tea.Cmd) {
	if m.refuseWhileRunning() {
		return m, nil
	}
	n = grid.ClampSize(n)
	m.clearRun()
	m.layout = grid.MustNew(n)
	m.view = m.layout.Clone()
	m.cursor = grid.At(min(m.cursor.Row, n-1), min(m.cursor.Col, n-1))
	m.status = fmt.Sprintf("size %dx%d", n, n)
	return m, nil
}

// start solves the layout and begins replaying. A start while a run is
// replaying is refused.
func (m Model) start() (tea.Model, tea.Cmd) {
	if m.phase == PhaseRunning {
		m.status = "already solving (esc to stop)"
		return m, nil
	}
	m.clearRun()
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	res, err := solve.Solve(ctx, m.alg, m.layout, solve.WithMaxSteps(m.maxSteps))
	switch {
	case errors.Is(err, solve.ErrStepLimit), errors.Is(err, context.DeadlineExceeded):
		m.status = string(m.alg) + " gave up: board too complex, try BFS"
		return m, nil
	case err != nil:
		m.status = err.Error()
		return m, nil
	}
	m.result = res
	m.phase = PhaseRunning
	m.gen++
	m.status = "solving with " + string(m.alg)
	if len(res.Steps) == 0 {
		m.finish()
		return m, nil
	}
	return m, m.schedule()
}

// advance shows the next step plus any that follow it without delay.
func (m Model) advance() (tea.Model, tea.Cmd) {
	steps := m.result.Steps
	m.show(steps[m.next])
	m.next++
	for m.next < len(steps) && m.pacing.For(steps[m.next]) <= 0 {
		m.show(steps[m.next])
		m.next++
	}
	if m.next >= len(steps) {
		m.finish()
		return m, nil
	}
	return m, m.schedule()
}

func (m *Model) show(s solve.Step) {
	switch s.Kind {
	case solve.StepVisit, solve.StepDiscover:
		m.view.Visit(s.Cell)
		m.current = s.Cell
	case solve.StepBacktrack:
		m.view.Unvisit(s.Cell)
	case solve.StepExpand:
		m.current = s.Cell
	case solve.StepPath:
		m.path[s.Cell] = true
	}
}

func (m Model) schedule() tea.Cmd {
	gen := m.gen
	d := m.pacing.For(m.result.Steps[m.next])
	if d <= 0 {
		return func() tea.Msg { return stepMsg{gen: gen} }
	}
	return tea.Tick(d, func(t time.Time) tea.Msg { return stepMsg{gen: gen} })
}

func (m *Model) finish() {
	m.phase = PhaseDone
	res := m.result
	if res.Found {
		m.status = fmt.Sprintf("%s found a path of %d moves, %d cells visited", res.Algorithm, res.Moves(), res.Visited)
	} else {
		m.status = fmt.Sprintf("%s found no path, %d cells visited", res.Algorithm, res.Visited)
	}
}

func (m *Model) stop(reason string) {
	m.phase = PhaseDone
	m.gen++
	m.status = reason
}

func nextAlgorithm(a solve.Algorithm) solve.Algorithm {
	for i, known := range solve.Algorithms {
		if known == a {
			return solve.Algorithms[(i+1)%len(solve.Algorithms)]
		}
	}
	return solve.Algorithms[0]
}
