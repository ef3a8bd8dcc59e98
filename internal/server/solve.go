package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	gwerr "github.com/matzehuels/gridwalk/pkg/errors"
	"github.com/matzehuels/gridwalk/pkg/grid"
	"github.com/matzehuels/gridwalk/pkg/replay"
	"github.com/matzehuels/gridwalk/pkg/solve"
)

// startEvent opens a solve stream.
type startEvent struct {
	RunID     string          `json:"run_id"`
	BoardID   string          `json:"board_id"`
	Algorithm solve.Algorithm `json:"algorithm"`
	Size      int             `json:"size"`
	Steps     int             `json:"steps"`
	DelayMS   int64           `json:"delay_ms"`
}

// doneEvent closes a solve stream.
type doneEvent struct {
	RunID   string       `json:"run_id"`
	Found   bool         `json:"found"`
	Moves   int          `json:"moves"`
	Visited int          `json:"visited"`
	Path    []grid.Coord `json:"path"`
}

// sseWriter writes Server-Sent Events and flushes after each one.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSEWriter(w http.ResponseWriter) (*sseWriter, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, false
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	return &sseWriter{w: w, flusher: flusher}, true
}

func (s *sseWriter) send(event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Emit implements replay.Sink. Path highlights go out as "path" events,
// everything else as "step".
func (s *sseWriter) Emit(_ context.Context, step solve.Step) error {
	event := "step"
	if step.Kind == solve.StepPath {
		event = "path"
	}
	return s.send(event, step)
}

// handleSolveStream solves a board and streams the paced trace. A second
// solve on the same board while this one streams gets 409.
func (s *Server) handleSolveStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := loggerFromContext(ctx)

	alg, err := queryAlgorithm(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	delayMS, err := queryDelay(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	run, err := s.mgr.StartRun(ctx, chi.URLParam(r, "id"), alg)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer run.Finish(context.WithoutCancel(ctx))

	delay := run.Board.Delay()
	if delayMS >= 0 {
		delay = time.Duration(delayMS) * time.Millisecond
	}
	pacing := replay.Pacing{Delay: delay, PathDelay: s.pathDelay}
	if delay == 0 {
		pacing.PathDelay = 0
	}

	sse, ok := newSSEWriter(w)
	if !ok {
		s.writeError(w, r, gwerr.New(gwerr.ErrCodeUnsupported, "streaming not supported"))
		return
	}

	res := run.Result
	logger.Info("solve started", "run", run.ID, "board", run.Board.ID, "alg", res.Algorithm,
		"steps", len(res.Steps), "replay", pacing.Total(res.Steps))

	err = sse.send("start", startEvent{
		RunID:     run.ID,
		BoardID:   run.Board.ID,
		Algorithm: res.Algorithm,
		Size:      run.Board.Size,
		Steps:     len(res.Steps),
		DelayMS:   delay.Milliseconds(),
	})
	if err == nil {
		err = replay.New(pacing, replay.WithSleep(s.sleep)).Play(ctx, res.Steps, sse)
	}
	if err != nil {
		logger.Debug("solve stream ended early", "run", run.ID, "err", err)
		return
	}

	err = sse.send("done", doneEvent{
		RunID:   run.ID,
		Found:   res.Found,
		Moves:   res.Moves(),
		Visited: res.Visited,
		Path:    res.Path,
	})
	if err != nil {
		logger.Debug("solve stream lost before done", "run", run.ID, "err", err)
		return
	}
	logger.Info("solve finished", "run", run.ID, "found", res.Found, "moves", res.Moves())
}

// handleSolveInline solves a grid given in the query and returns the whole
// result at once. The grid is either ?rows=..#,.#.,... or ?size=N for an
// open grid; ?algo= defaults to DFS.
func (s *Server) handleSolveInline(w http.ResponseWriter, r *http.Request) {
	g, err := queryGrid(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	alg, err := queryAlgorithm(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if alg == "" {
		alg = solve.DepthFirst
	}

	res, err := s.solve(r.Context(), alg, g)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func queryGrid(r *http.Request) (*grid.Grid, error) {
	q := r.URL.Query()
	if rows := q.Get("rows"); rows != "" {
		g, err := grid.FromRows(strings.Split(rows, ","))
		if err != nil {
			return nil, gwerr.Wrap(gwerr.ErrCodeInvalidFormat, err, "rows")
		}
		if g.Size() > grid.MaxSize {
			return nil, gwerr.New(gwerr.ErrCodeInvalidSize, "grid is %dx%d, at most %d allowed", g.Size(), g.Size(), grid.MaxSize)
		}
		return g, nil
	}
	size := grid.DefaultSize
	if raw := q.Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, gwerr.Wrap(gwerr.ErrCodeInvalidSize, err, "size")
		}
		size = grid.ClampSize(n)
	}
	return grid.MustNew(size), nil
}
