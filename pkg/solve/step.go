package solve

import (
	"fmt"

	"github.com/matzehuels/gridwalk/pkg/grid"
)

// Kind classifies a step in the trace.
type Kind uint8

const (
	// StepVisit marks a cell Open→Visited on depth-first entry.
	StepVisit Kind = iota
	// StepDiscover marks a cell Open→Visited as breadth-first enqueues it.
	StepDiscover
	// StepExpand reports a breadth-first dequeue. No state changes.
	StepExpand
	// StepLevel closes a breadth-first frontier. Cell is unset.
	StepLevel
	// StepBacktrack resets a cell Visited→Open as depth-first search unwinds.
	StepBacktrack
	// StepPath highlights one cell of the found path.
	StepPath
)

var kindNames = [...]string{
	StepVisit:     "visit",
	StepDiscover:  "discover",
	StepExpand:    "expand",
	StepLevel:     "level",
	StepBacktrack: "backtrack",
	StepPath:      "path",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	for i, name := range kindNames {
		if name == string(b) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("solve: unknown step kind %q", b)
}

// Step is one event of a traversal.
//
// Depth is the distance from the start: the index in the current path for
// depth-first steps, and the frontier number for breadth-first steps.
// Path steps use Depth for the cell's position in emission order.
type Step struct {
	Seq   int        `json:"seq"`
	Kind  Kind       `json:"kind"`
	Cell  grid.Coord `json:"cell"`
	Depth int        `json:"depth"`
}

// Transition returns the cell state this step leaves behind, and false for
// steps that do not change any cell.
func (s Step) Transition() (grid.State, bool) {
	switch s.Kind {
	case StepVisit, StepDiscover:
		return grid.Visited, true
	case StepBacktrack:
		return grid.Open, true
	}
	return 0, false
}

func (s Step) String() string {
	if s.Kind == StepLevel {
		return fmt.Sprintf("#%d %s %d", s.Seq, s.Kind, s.Depth)
	}
	return fmt.Sprintf("#%d %s %s", s.Seq, s.Kind, s.Cell)
}

// Apply replays the state-changing steps onto g. Steps for cells outside g
// are ignored. It is the inverse of recording: applying a run's trace to the
// run's input grid yields the run's final grid.
func Apply(g *grid.Grid, steps []Step) {
	for _, s := range steps {
		switch s.Kind {
		case StepVisit, StepDiscover:
			g.Visit(s.Cell)
		case StepBacktrack:
			g.Unvisit(s.Cell)
		}
	}
}
