package render

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/gridwalk/pkg/grid"
)

var dotFill = [...]string{
	cellOpen:    "white",
	cellWall:    "red",
	cellVisited: "green",
	cellPath:    "yellow",
}

// DOT converts g to a Graphviz graph for the neato layout. Every cell is a
// fixed-size square pinned at its grid position, row 0 on top. Consecutive
// path cells are joined by edges.
func DOT(g *grid.Grid, opts Options) string {
	n := g.Size()
	size := opts.cellSize()
	cs := cells(g, opts.Path)

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  splines=line;\n")
	fmt.Fprintf(&buf, "  node [shape=square, fixedsize=true, width=%.2f, height=%.2f, style=filled, color=gray60, fontsize=10, label=\"\"];\n", size, size)
	buf.WriteString("  edge [color=goldenrod, penwidth=2];\n")
	buf.WriteString("\n")

	start, goal := g.Start(), g.Goal()
	for r := range n {
		for c := range n {
			at := grid.At(r, c)
			x := float64(c) * size
			y := float64(n-1-r) * size
			attrs := fmt.Sprintf("pos=\"%.2f,%.2f!\", fillcolor=%s", x, y, dotFill[cs[r*n+c]])
			switch at {
			case start:
				attrs += ", label=\"S\""
			case goal:
				attrs += ", label=\"G\""
			}
			fmt.Fprintf(&buf, "  %s [%s];\n", nodeID(at), attrs)
		}
	}

	var prev *grid.Coord
	for _, c := range opts.Path {
		if !g.InBounds(c) {
			continue
		}
		if prev != nil {
			fmt.Fprintf(&buf, "  %s -- %s;\n", nodeID(*prev), nodeID(c))
		}
		prev = &c
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(c grid.Coord) string {
	return fmt.Sprintf("c_%d_%d", c.Row, c.Col)
}

// SVG renders g to SVG through Graphviz.
func SVG(ctx context.Context, g *grid.Grid, opts Options) ([]byte, error) {
	return renderDOT(ctx, DOT(g, opts), graphviz.SVG)
}

// PNG renders g to PNG through Graphviz.
func PNG(ctx context.Context, g *grid.Grid, opts Options) ([]byte, error) {
	return renderDOT(ctx, DOT(g, opts), graphviz.PNG)
}

func renderDOT(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	graph, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer graph.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, format, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}
