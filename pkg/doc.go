// Package pkg holds the gridwalk libraries.
//
// # Overview
//
// Gridwalk walks square grids from the top-left to the bottom-right cell
// with depth-first or breadth-first search and records every step so the
// walk can be replayed at a chosen pace. The libraries split into:
//
//  1. [grid] - the cell matrix and its text, JSON and TOML codecs
//  2. [solve] - DFS and BFS producing step traces
//  3. [replay] - pacing a trace into a sink
//  4. [session] - stored boards, the per-board run lock, and Redis/Mongo stores
//  5. [render] and [cache] - text, DOT, SVG and PNG output with a render cache
//  6. [config], [errors], [observability], [buildinfo] - shared plumbing
//
// # Data flow
//
//	layout (TOML, rows, board)
//	         ↓
//	    [solve] (trace of steps + path)
//	         ↓
//	    [replay] (paced)  or  [render] (static)
//	         ↓
//	terminal player, HTTP event stream, SVG/PNG
//
// # Quick Start
//
//	g, _ := grid.FromRows([]string{"..#", "...", "#.."})
//	res, _ := solve.Solve(ctx, solve.BreadthFirst, g)
//	replay.New(replay.NewPacing(100*time.Millisecond)).Play(ctx, res.Steps,
//	    replay.SinkFunc(func(ctx context.Context, s solve.Step) error {
//	        fmt.Println(s)
//	        return nil
//	    }))
package pkg
