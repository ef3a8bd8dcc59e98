// Package render draws grids, optionally with a solved path on top.
//
// # Formats
//
//   - [FormatText]: one line per row, '.' open, '#' wall, 'o' visited, '*' path
//   - [FormatANSI]: the same layout as colored terminal blocks (lipgloss)
//   - [FormatDOT]: a Graphviz graph with one pinned square node per cell
//   - [FormatSVG], [FormatPNG]: the DOT graph laid out by neato through go-graphviz
//
// Colors follow the browser view: walls red, visited cells green, the path
// yellow and open cells white.
//
//	res, _ := solve.Solve(ctx, solve.BreadthFirst, g)
//	svg, err := render.Render(ctx, render.FormatSVG, res.Grid, render.Options{Path: res.Path})
package render
