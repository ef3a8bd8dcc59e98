package grid

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Cell symbols used by the text, JSON and layout encodings.
const (
	SymbolOpen    = '.'
	SymbolWall    = '#'
	SymbolVisited = 'o'
)

func (s State) symbol() byte {
	switch s {
	case Wall:
		return SymbolWall
	case Visited:
		return SymbolVisited
	}
	return SymbolOpen
}

func parseSymbol(b byte) (State, error) {
	switch b {
	case SymbolOpen:
		return Open, nil
	case SymbolWall:
		return Wall, nil
	case SymbolVisited:
		return Visited, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrBadCell, b)
}

// Rows returns the grid as one string per row.
func (g *Grid) Rows() []string {
	rows := make([]string, g.n)
	buf := make([]byte, g.n)
	for r := range g.n {
		for c := range g.n {
			buf[c] = g.cells[r*g.n+c].symbol()
		}
		rows[r] = string(buf)
	}
	return rows
}

// String returns the text form: one line per row, newline separated.
func (g *Grid) String() string {
	return strings.Join(g.Rows(), "\n")
}

// FromRows decodes a grid from its row strings.
func FromRows(rows []string) (*Grid, error) {
	g, err := New(len(rows))
	if err != nil {
		return nil, err
	}
	for r, row := range rows {
		if len(row) != g.n {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrNotSquare, r, len(row), g.n)
		}
		for c := range len(row) {
			s, err := parseSymbol(row[c])
			if err != nil {
				return nil, fmt.Errorf("row %d col %d: %w", r, c, err)
			}
			g.cells[r*g.n+c] = s
		}
	}
	return g, nil
}

// ParseText decodes the text form. Leading and trailing blank lines and
// surrounding whitespace on each line are ignored.
func ParseText(s string) (*Grid, error) {
	var rows []string
	for _, line := range strings.Split(strings.TrimSpace(s), "\n") {
		rows = append(rows, strings.TrimSpace(line))
	}
	return FromRows(rows)
}

// MarshalText implements encoding.TextMarshaler.
func (g *Grid) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *Grid) UnmarshalText(b []byte) error {
	parsed, err := ParseText(string(b))
	if err != nil {
		return err
	}
	*g = *parsed
	return nil
}

type wireGrid struct {
	Size int      `json:"size"`
	Rows []string `json:"rows"`
}

// MarshalJSON encodes the grid as {"size":N,"rows":[...]}.
func (g *Grid) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireGrid{Size: g.n, Rows: g.Rows()})
}

// UnmarshalJSON decodes the form written by MarshalJSON. When rows are
// omitted an all-Open grid of the given size is produced.
func (g *Grid) UnmarshalJSON(b []byte) error {
	var w wireGrid
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	var (
		parsed *Grid
		err    error
	)
	if len(w.Rows) == 0 {
		parsed, err = New(w.Size)
	} else {
		parsed, err = FromRows(w.Rows)
		if err == nil && w.Size != 0 && w.Size != parsed.n {
			err = fmt.Errorf("%w: size %d but %d rows", ErrNotSquare, w.Size, parsed.n)
		}
	}
	if err != nil {
		return err
	}
	*g = *parsed
	return nil
}
