package grid

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
)

// Layout is the on-disk form of a grid. Either Rows or Size+Walls may be given;
// when both are present, Walls are applied on top of Rows.
//
//	size = 4
//	walls = [{ row = 0, col = 1 }, { row = 1, col = 0 }]
//
// or
//
//	rows = ["..#.", "....", ".#..", "...."]
type Layout struct {
	Size  int      `toml:"size,omitempty"`
	Rows  []string `toml:"rows,omitempty"`
	Walls []Coord  `toml:"walls,omitempty"`
}

// Grid builds the grid described by the layout.
func (l Layout) Grid() (*Grid, error) {
	var (
		g   *Grid
		err error
	)
	switch {
	case len(l.Rows) > 0:
		g, err = FromRows(l.Rows)
		if err == nil && l.Size != 0 && l.Size != g.n {
			err = fmt.Errorf("%w: size %d but %d rows", ErrNotSquare, l.Size, g.n)
		}
	default:
		g, err = New(l.Size)
	}
	if err != nil {
		return nil, err
	}
	for _, c := range l.Walls {
		if err := g.SetWall(c, true); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// LayoutOf returns the compact layout of g: its size and walls.
// Visited cells are not part of a layout.
func LayoutOf(g *Grid) Layout {
	return Layout{Size: g.n, Walls: g.Walls()}
}

// DecodeLayout reads a TOML layout from r.
func DecodeLayout(r io.Reader) (*Grid, error) {
	var l Layout
	if _, err := toml.NewDecoder(r).Decode(&l); err != nil {
		return nil, fmt.Errorf("decode layout: %w", err)
	}
	return l.Grid()
}

// ReadLayoutFile reads a TOML layout file.
func ReadLayoutFile(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return DecodeLayout(f)
}

// EncodeLayout writes g as a TOML layout to w.
func EncodeLayout(w io.Writer, g *Grid) error {
	if err := toml.NewEncoder(w).Encode(LayoutOf(g)); err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	return nil
}

// WriteLayoutFile writes g as a TOML layout file with 0644 permissions.
func WriteLayoutFile(path string, g *Grid) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return EncodeLayout(f, g)
}
