package grid

import "errors"

// Sentinel errors for grid operations.
var (
	// ErrInvalidSize is returned when a grid dimension is less than one.
	ErrInvalidSize = errors.New("grid: size must be at least 1")

	// ErrOutOfBounds is returned when a coordinate lies outside the grid.
	ErrOutOfBounds = errors.New("grid: coordinate out of bounds")

	// ErrCellVisited is returned when a wall is toggled on a visited cell.
	// Walls may only change between runs.
	ErrCellVisited = errors.New("grid: cell already visited")

	// ErrNotSquare is returned when decoded rows do not form a square.
	ErrNotSquare = errors.New("grid: rows do not form a square")

	// ErrBadCell is returned when decoding meets an unknown cell symbol.
	ErrBadCell = errors.New("grid: unknown cell symbol")
)
