package render

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/matzehuels/gridwalk/pkg/grid"
)

// Format is an output format.
type Format string

// Supported formats.
const (
	FormatText Format = "text"
	FormatANSI Format = "ansi"
	FormatDOT  Format = "dot"
	FormatSVG  Format = "svg"
	FormatPNG  Format = "png"
)

// Formats lists every supported format.
var Formats = []Format{FormatText, FormatANSI, FormatDOT, FormatSVG, FormatPNG}

// ErrUnknownFormat is returned for unsupported format names.
var ErrUnknownFormat = errors.New("unknown render format")

// ParseFormat parses a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Ext returns the file extension for f.
func (f Format) Ext() string {
	switch f {
	case FormatText, FormatANSI:
		return ".txt"
	}
	return "." + string(f)
}

// Binary reports whether f produces non-text output.
func (f Format) Binary() bool { return f == FormatPNG }

// DefaultCellSize is the edge of one cell in Graphviz output, in inches.
const DefaultCellSize = 0.4

// Options configures rendering.
type Options struct {
	// Path is drawn over the grid. Cells outside the grid are ignored.
	Path []grid.Coord
	// CellSize is the cell edge in inches for DOT, SVG and PNG. Zero means DefaultCellSize.
	CellSize float64
}

func (o Options) cellSize() float64 {
	if o.CellSize <= 0 {
		return DefaultCellSize
	}
	return o.CellSize
}

// cell is what a renderer draws at one position.
type cell uint8

const (
	cellOpen cell = iota
	cellWall
	cellVisited
	cellPath
)

// cells resolves every position to what should be drawn there, row-major.
func cells(g *grid.Grid, path []grid.Coord) []cell {
	n := g.Size()
	out := make([]cell, n*n)
	for c, s := range g.All() {
		switch s {
		case grid.Wall:
			out[c.Row*n+c.Col] = cellWall
		case grid.Visited:
			out[c.Row*n+c.Col] = cellVisited
		}
	}
	for _, c := range path {
		if g.InBounds(c) {
			out[c.Row*n+c.Col] = cellPath
		}
	}
	return out
}

// Render draws g in format f.
func Render(ctx context.Context, f Format, g *grid.Grid, opts Options) ([]byte, error) {
	switch f {
	case FormatText:
		return []byte(Text(g, opts)), nil
	case FormatANSI:
		return []byte(ANSI(g, opts)), nil
	case FormatDOT:
		return []byte(DOT(g, opts)), nil
	case FormatSVG:
		return SVG(ctx, g, opts)
	case FormatPNG:
		return PNG(ctx, g, opts)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}
