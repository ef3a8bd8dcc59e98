// Package replay paces a recorded traversal for presentation.
//
// The traversal engine produces its whole step trace synchronously; a
// [Replayer] hands those steps to a [Sink] one at a time, sleeping between
// them according to a [Pacing]. Cancelling the context stops playback
// between steps, which is how a presentation layer aborts an animation.
package replay

import (
	"context"
	"time"

	"github.com/matzehuels/gridwalk/pkg/solve"
)

// DefaultPathDelay is the pause before each highlighted path cell.
const DefaultPathDelay = 50 * time.Millisecond

// Pacing decides how long to wait before each step is shown.
type Pacing struct {
	// Delay applies to visits, backtracks and the end of each BFS frontier.
	Delay time.Duration
	// PathDelay applies to path highlights.
	PathDelay time.Duration
}

// NewPacing builds a Pacing with the default path delay. Negative delays clamp to zero.
func NewPacing(delay time.Duration) Pacing {
	return Pacing{Delay: max(delay, 0), PathDelay: DefaultPathDelay}
}

// For returns the pause before s. Discover and expand steps are shown
// immediately so a BFS frontier appears at once.
func (p Pacing) For(s solve.Step) time.Duration {
	switch s.Kind {
	case solve.StepVisit, solve.StepBacktrack, solve.StepLevel:
		return max(p.Delay, 0)
	case solve.StepPath:
		return max(p.PathDelay, 0)
	}
	return 0
}

// Total is the playback time of steps under p.
func (p Pacing) Total(steps []solve.Step) time.Duration {
	var d time.Duration
	for _, s := range steps {
		d += p.For(s)
	}
	return d
}

// Sink receives replayed steps.
type Sink interface {
	Emit(ctx context.Context, s solve.Step) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, s solve.Step) error

// Emit calls f.
func (f SinkFunc) Emit(ctx context.Context, s solve.Step) error { return f(ctx, s) }

// Replayer plays step traces into sinks.
type Replayer struct {
	pacing Pacing
	sleep  func(ctx context.Context, d time.Duration) error
}

// Option configures a Replayer.
type Option func(*Replayer)

// WithSleep replaces the wait function, mainly for tests.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(r *Replayer) {
		if fn != nil {
			r.sleep = fn
		}
	}
}

// New creates a Replayer with the given pacing.
func New(p Pacing, opts ...Option) *Replayer {
	r := &Replayer{pacing: p, sleep: Sleep}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Pacing returns the replayer's pacing.
func (r *Replayer) Pacing() Pacing { return r.pacing }

// Play emits steps to sink in order, waiting before each as the pacing says.
// It stops at the first sink error or when ctx is done.
func (r *Replayer) Play(ctx context.Context, steps []solve.Step, sink Sink) error {
	for _, s := range steps {
		if d := r.pacing.For(s); d > 0 {
			if err := r.sleep(ctx, d); err != nil {
				return err
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
		if err := sink.Emit(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
