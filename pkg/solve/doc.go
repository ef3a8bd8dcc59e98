// Package solve searches a [grid.Grid] for a path between two cells and
// records every state change it makes as an ordered trace of [Step] values.
//
// Two traversals are provided:
//
//   - [DFS]: recursive depth-first search. Each cell is marked visited on
//     entry, and on a dead end it is reset to open and dropped from the path
//     (a backtrack). A failed search leaves the grid exactly as it found it.
//   - [BFS]: level-order breadth-first search over a FIFO queue. Cells are
//     marked visited when enqueued, each with a parent pointer; once the queue
//     drains, the path is rebuilt by walking parents back from the goal. The
//     path is therefore shortest.
//
// Both explore neighbors in the fixed order up, right, down, left, so a given
// grid always produces the same trace.
//
// # Purity
//
// The traversals are synchronous and never sleep. Pacing belongs to the
// presentation layer (see package replay), which consumes [Result.Steps]
// at whatever speed it likes. [DFS] and [BFS] mutate the grid they are given;
// [Solve] clones it first so the caller's layout is never touched.
//
// # Outcomes
//
// An unreachable goal is a normal outcome: Found is false and no error is
// returned. Errors are reserved for invalid input, context cancellation, a
// step hook failure, or exceeding the step budget ([DefaultMaxSteps] unless
// changed with [WithMaxSteps]). DFS unmarks cells as it backtracks, so on a
// board with no path it retries every simple path; the budget turns that into
// an [ErrStepLimit] instead of an unbounded trace.
package solve
