// Package server is the gridwalk HTTP API: boards, wall edits, streamed
// solves as Server-Sent Events, rendered images, and the browser page.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/gridwalk/internal/metrics"
	"github.com/matzehuels/gridwalk/pkg/buildinfo"
	"github.com/matzehuels/gridwalk/pkg/cache"
	gwerr "github.com/matzehuels/gridwalk/pkg/errors"
	"github.com/matzehuels/gridwalk/pkg/grid"
	"github.com/matzehuels/gridwalk/pkg/render"
	"github.com/matzehuels/gridwalk/pkg/replay"
	"github.com/matzehuels/gridwalk/pkg/session"
	"github.com/matzehuels/gridwalk/pkg/solve"
)

// Server serves the API on top of a board Manager.
type Server struct {
	mgr       *session.Manager
	logger    *log.Logger
	cache     cache.Cache
	metrics   *metrics.Metrics
	pathDelay time.Duration
	cellSize  float64
	maxSteps  int
	timeout   time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the base logger; each request gets a child of it.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCache sets the render cache.
func WithCache(c cache.Cache) Option {
	return func(s *Server) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithMetrics counts requests and serves /metrics from m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithPathDelay sets the pause before each streamed path cell.
func WithPathDelay(d time.Duration) Option {
	return func(s *Server) { s.pathDelay = max(d, 0) }
}

// WithCellSize sets the Graphviz cell size for rendered images.
func WithCellSize(inches float64) Option {
	return func(s *Server) { s.cellSize = inches }
}

// WithSolveLimits bounds the inline and render solves by trace length and
// wall time. Non-positive values keep the defaults.
func WithSolveLimits(maxSteps int, timeout time.Duration) Option {
	return func(s *Server) {
		if maxSteps > 0 {
			s.maxSteps = maxSteps
		}
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// withSleep replaces the replay wait, for tests.
func withSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Server) { s.sleep = fn }
}

// New creates a Server.
func New(mgr *session.Manager, opts ...Option) *Server {
	s := &Server{
		mgr:       mgr,
		logger:    log.Default(),
		cache:     cache.NewNullCache(),
		pathDelay: replay.DefaultPathDelay,
		cellSize:  render.DefaultCellSize,
		maxSteps:  solve.DefaultMaxSteps,
		timeout:   10 * time.Second,
		sleep:     replay.Sleep,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handlePage)
	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/solve", s.handleSolveInline)
		r.Route("/boards", func(r chi.Router) {
			r.Get("/", s.handleListBoards)
			r.Post("/", s.handleCreateBoard)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetBoard)
				r.Delete("/", s.handleDeleteBoard)
				r.Patch("/", s.handleConfigureBoard)
				r.Post("/walls", s.handleToggleWall)
				r.Post("/resize", s.handleResize)
				// EventSource can only GET, so the stream answers both.
				r.Get("/solve", s.handleSolveStream)
				r.Post("/solve", s.handleSolveStream)
				r.Get("/render.{format}", s.handleRender)
			})
		})
	})
	return r
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr, "store", s.mgr.Store().Name())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"store":   s.mgr.Store().Name(),
		"version": buildinfo.Version,
	})
}

// boardResponse is a board plus its grid drawn as text rows.
type boardResponse struct {
	*session.Board
	Rows []string `json:"rows"`
}

func newBoardResponse(b *session.Board) (boardResponse, error) {
	g, err := b.Grid()
	if err != nil {
		return boardResponse{}, gwerr.Wrap(gwerr.ErrCodeInternal, err, "board %s is corrupt", b.ID)
	}
	return boardResponse{Board: b, Rows: g.Rows()}, nil
}

func (s *Server) writeBoard(w http.ResponseWriter, r *http.Request, status int, b *session.Board) {
	resp, err := newBoardResponse(b)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error struct {
		Code    gwerr.Code `json:"code"`
		Message string     `json:"message"`
	} `json:"error"`
}

// writeError maps err to a status through its error code. Errors without a
// code are classified by sentinel, and anything else is a 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := gwerr.GetCode(err)
	if code == "" {
		switch {
		case errors.Is(err, session.ErrNotFound):
			code = gwerr.ErrCodeNotFound
		case errors.Is(err, session.ErrRunInProgress):
			code = gwerr.ErrCodeRunInProgress
		case errors.Is(err, grid.ErrOutOfBounds), errors.Is(err, grid.ErrBadCell):
			code = gwerr.ErrCodeInvalidCell
		case errors.Is(err, solve.ErrUnknownAlgorithm):
			code = gwerr.ErrCodeInvalidAlgorithm
		case errors.Is(err, solve.ErrStepLimit), errors.Is(err, context.DeadlineExceeded):
			code = gwerr.ErrCodeTooComplex
		default:
			code = gwerr.ErrCodeInternal
		}
	}
	status := gwerr.HTTPStatus(code)

	logger := loggerFromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "err", err)
	} else {
		logger.Debug("request rejected", "code", code, "err", err)
	}

	var body errorBody
	body.Error.Code = code
	body.Error.Message = gwerr.UserMessage(err)
	writeJSON(w, status, body)
}

// solve runs a one-shot solve within the server's limits.
func (s *Server) solve(ctx context.Context, alg solve.Algorithm, g *grid.Grid) (*solve.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return solve.Solve(ctx, alg, g, solve.WithMaxSteps(s.maxSteps))
}
