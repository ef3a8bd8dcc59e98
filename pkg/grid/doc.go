// Package grid provides the square cell matrix that gridwalk searches.
//
// A [Grid] is an N×N matrix of cells, each in one of three states:
//
//   - [Open]: traversable and not yet explored
//   - [Wall]: a user-placed obstacle, never traversed
//   - [Visited]: explored by the current run
//
// Users toggle walls between runs; traversals in package solve mark cells
// Visited (and, for depth-first search, reset them to Open on backtrack).
// The grid is a plain value: callers that need to keep a layout untouched
// should [Grid.Clone] it before handing it to a traversal.
//
// # Coordinates
//
// Cells are addressed by [Coord]{Row, Col} with (0,0) in the top-left corner.
// Neighbors are always produced in the fixed order [Directions]:
// up, right, down, left. The order is part of the contract: search results
// are deterministic because of it.
//
// # Encodings
//
// Grids have a compact text form, one line per row:
//
//	..#
//	.#.
//	...
//
// where '.' is Open, '#' is Wall and 'o' is Visited. The same rows are used
// for the JSON form ({"size":3,"rows":["..#",".#.","..."]}) and TOML layout
// files (see [ReadLayoutFile]).
package grid
