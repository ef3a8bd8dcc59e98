package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/gridwalk/pkg/grid"
)

var textSymbols = [...]byte{
	cellOpen:    '.',
	cellWall:    '#',
	cellVisited: 'o',
	cellPath:    '*',
}

// Text draws g as plain text, one line per row.
func Text(g *grid.Grid, opts Options) string {
	n := g.Size()
	cs := cells(g, opts.Path)
	var b strings.Builder
	b.Grow(n * (n + 1))
	for r := range n {
		if r > 0 {
			b.WriteByte('\n')
		}
		for c := range n {
			b.WriteByte(textSymbols[cs[r*n+c]])
		}
	}
	return b.String()
}

// Cell colors, shared with the terminal player.
var (
	ColorOpen    = lipgloss.Color("255")
	ColorWall    = lipgloss.Color("160")
	ColorVisited = lipgloss.Color("34")
	ColorPath    = lipgloss.Color("220")
)

var ansiStyles = [...]lipgloss.Style{
	cellOpen:    lipgloss.NewStyle().Background(ColorOpen),
	cellWall:    lipgloss.NewStyle().Background(ColorWall),
	cellVisited: lipgloss.NewStyle().Background(ColorVisited),
	cellPath:    lipgloss.NewStyle().Background(ColorPath),
}

// ANSI draws g as two-column colored blocks per cell. Without a color
// terminal lipgloss strips the colors and the blocks render blank.
func ANSI(g *grid.Grid, opts Options) string {
	n := g.Size()
	cs := cells(g, opts.Path)
	rows := make([]string, n)
	for r := range n {
		var b strings.Builder
		for c := range n {
			b.WriteString(ansiStyles[cs[r*n+c]].Render("  "))
		}
		rows[r] = b.String()
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
