package grid

import "fmt"

// Coord addresses a cell by row and column, with (0,0) in the top-left corner.
type Coord struct {
	Row int `json:"row" toml:"row"`
	Col int `json:"col" toml:"col"`
}

// At is shorthand for Coord{Row: row, Col: col}.
func At(row, col int) Coord {
	return Coord{Row: row, Col: col}
}

// String formats the coordinate as "(row,col)".
func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// Move returns the neighbor of c in direction d. The result may be out of bounds.
func (c Coord) Move(d Direction) Coord {
	off := offsets[d]
	return Coord{Row: c.Row + off[0], Col: c.Col + off[1]}
}

// Manhattan returns the grid distance between c and o.
func (c Coord) Manhattan(o Coord) int {
	return abs(c.Row-o.Row) + abs(c.Col-o.Col)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Direction is one of the four axis-aligned moves.
type Direction uint8

const (
	Up Direction = iota
	Right
	Down
	Left
)

// Directions is the neighbor visiting order shared by every traversal.
var Directions = [4]Direction{Up, Right, Down, Left}

var offsets = [4][2]int{
	Up:    {-1, 0},
	Right: {0, 1},
	Down:  {1, 0},
	Left:  {0, -1},
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Right:
		return "right"
	case Down:
		return "down"
	case Left:
		return "left"
	}
	return fmt.Sprintf("Direction(%d)", uint8(d))
}
