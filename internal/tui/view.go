package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/gridwalk/pkg/grid"
	"github.com/matzehuels/gridwalk/pkg/render"
)

var (
	colorCyan = lipgloss.Color("36")
	colorDim  = lipgloss.Color("240")
	colorGray = lipgloss.Color("245")

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	dimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	statusStyle = lipgloss.NewStyle().Foreground(colorGray)
	boardStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim)

	cellStyles = map[grid.State]lipgloss.Style{
		grid.Open:    lipgloss.NewStyle().Background(render.ColorOpen),
		grid.Wall:    lipgloss.NewStyle().Background(render.ColorWall),
		grid.Visited: lipgloss.NewStyle().Background(render.ColorVisited),
	}
	pathStyle = lipgloss.NewStyle().Background(render.ColorPath)
)

const help = "←↑↓→ move  space wall  a algorithm  +/- size  c clear  r reset  enter solve  esc stop  q quit"

func (m Model) View() string {
	var b strings.Builder

	n := m.layout.Size()
	b.WriteString(titleStyle.Render("gridwalk"))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %dx%d  %s  delay %s", n, n, m.alg, m.pacing.Delay)))
	b.WriteString("\n")

	rows := make([]string, n)
	for r := range n {
		var line strings.Builder
		for c := range n {
			line.WriteString(m.cell(grid.At(r, c)))
		}
		rows[r] = line.String()
	}
	b.WriteString(boardStyle.Render(strings.Join(rows, "\n")))
	b.WriteString("\n")

	b.WriteString(statusStyle.Render(m.status))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(help))
	return b.String()
}

func (m Model) cell(c grid.Coord) string {
	style := cellStyles[m.view.Cell(c)]
	if m.path[c] {
		style = pathStyle
	}
	style = style.Foreground(lipgloss.Color("0"))

	text := "  "
	switch {
	case c == m.cursor:
		text = "[]"
	case m.phase == PhaseRunning && c == m.current:
		text = "<>"
	case c == m.layout.Start():
		text = "S "
	case c == m.layout.Goal():
		text = " G"
	}
	return style.Render(text)
}
