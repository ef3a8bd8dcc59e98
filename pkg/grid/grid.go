package grid

import (
	"fmt"
	"iter"
)

// Size bounds for user-provided dimensions.
const (
	MinSize     = 2
	MaxSize     = 25
	DefaultSize = 10
)

// State is the state of a single cell.
type State uint8

const (
	Open State = iota
	Wall
	Visited
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case Wall:
		return "wall"
	case Visited:
		return "visited"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Grid is a square matrix of cells stored in row-major order.
// The zero value is not usable; construct grids with [New].
type Grid struct {
	n     int
	cells []State
}

// ClampSize clamps a user-provided size to [MinSize, MaxSize].
func ClampSize(n int) int {
	return min(max(n, MinSize), MaxSize)
}

// New returns an n×n grid with every cell Open.
// New does not clamp; boundaries that take user input should call [ClampSize].
func New(n int) (*Grid, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, n)
	}
	return &Grid{n: n, cells: make([]State, n*n)}, nil
}

// MustNew is like [New] but panics on an invalid size.
func MustNew(n int) *Grid {
	g, err := New(n)
	if err != nil {
		panic(err)
	}
	return g
}

// FromWalls builds an n×n grid with the given cells walled.
func FromWalls(n int, walls []Coord) (*Grid, error) {
	g, err := New(n)
	if err != nil {
		return nil, err
	}
	for _, c := range walls {
		if err := g.SetWall(c, true); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Size returns the side length N.
func (g *Grid) Size() int { return g.n }

// Start returns the top-left cell.
func (g *Grid) Start() Coord { return Coord{} }

// Goal returns the bottom-right cell.
func (g *Grid) Goal() Coord { return Coord{Row: g.n - 1, Col: g.n - 1} }

// InBounds reports whether c lies inside the grid.
func (g *Grid) InBounds(c Coord) bool {
	return c.Row >= 0 && c.Col >= 0 && c.Row < g.n && c.Col < g.n
}

func (g *Grid) index(c Coord) int { return c.Row*g.n + c.Col }

func (g *Grid) check(c Coord) error {
	if !g.InBounds(c) {
		return fmt.Errorf("%w: %s in %dx%d grid", ErrOutOfBounds, c, g.n, g.n)
	}
	return nil
}

// Cell returns the state of c. Out-of-bounds cells report Wall.
func (g *Grid) Cell(c Coord) State {
	if !g.InBounds(c) {
		return Wall
	}
	return g.cells[g.index(c)]
}

// IsOpen reports whether c is in bounds and Open.
func (g *Grid) IsOpen(c Coord) bool {
	return g.Cell(c) == Open
}

// SetWall walls (or clears) c. Visited cells cannot be changed.
func (g *Grid) SetWall(c Coord, wall bool) error {
	if err := g.check(c); err != nil {
		return err
	}
	i := g.index(c)
	if g.cells[i] == Visited {
		return fmt.Errorf("%w: %s", ErrCellVisited, c)
	}
	if wall {
		g.cells[i] = Wall
	} else {
		g.cells[i] = Open
	}
	return nil
}

// ToggleWall flips c between Open and Wall and returns the new state.
func (g *Grid) ToggleWall(c Coord) (State, error) {
	if err := g.check(c); err != nil {
		return 0, err
	}
	wall := g.cells[g.index(c)] != Wall
	if err := g.SetWall(c, wall); err != nil {
		return 0, err
	}
	return g.cells[g.index(c)], nil
}

// Visit marks an Open cell Visited. It reports false if c was not Open.
func (g *Grid) Visit(c Coord) bool {
	if !g.IsOpen(c) {
		return false
	}
	g.cells[g.index(c)] = Visited
	return true
}

// Unvisit resets a Visited cell to Open. It reports false if c was not Visited.
func (g *Grid) Unvisit(c Coord) bool {
	if g.Cell(c) != Visited {
		return false
	}
	g.cells[g.index(c)] = Open
	return true
}

// Reset returns every Visited cell to Open, keeping walls.
func (g *Grid) Reset() {
	for i, s := range g.cells {
		if s == Visited {
			g.cells[i] = Open
		}
	}
}

// Clone returns an independent copy of g.
func (g *Grid) Clone() *Grid {
	return &Grid{n: g.n, cells: append([]State(nil), g.cells...)}
}

// Equal reports whether g and o have the same size and cell states.
func (g *Grid) Equal(o *Grid) bool {
	if g == nil || o == nil {
		return g == o
	}
	if g.n != o.n {
		return false
	}
	for i := range g.cells {
		if g.cells[i] != o.cells[i] {
			return false
		}
	}
	return true
}

// Count returns the number of cells in state s.
func (g *Grid) Count(s State) int {
	n := 0
	for _, c := range g.cells {
		if c == s {
			n++
		}
	}
	return n
}

// Walls returns the walled cells in row-major order.
func (g *Grid) Walls() []Coord {
	var out []Coord
	for c, s := range g.All() {
		if s == Wall {
			out = append(out, c)
		}
	}
	return out
}

// Neighbors returns the in-bounds neighbors of c in [Directions] order,
// regardless of their state.
func (g *Grid) Neighbors(c Coord) []Coord {
	out := make([]Coord, 0, len(Directions))
	for _, d := range Directions {
		if n := c.Move(d); g.InBounds(n) {
			out = append(out, n)
		}
	}
	return out
}

// All iterates over every cell in row-major order.
func (g *Grid) All() iter.Seq2[Coord, State] {
	return func(yield func(Coord, State) bool) {
		for i, s := range g.cells {
			if !yield(Coord{Row: i / g.n, Col: i % g.n}, s) {
				return
			}
		}
	}
}
