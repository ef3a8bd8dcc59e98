package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	gwerr "github.com/matzehuels/gridwalk/pkg/errors"
	"github.com/matzehuels/gridwalk/pkg/grid"
	"github.com/matzehuels/gridwalk/pkg/solve"
)

type createBoardRequest struct {
	Size int `json:"size"`
}

type toggleWallRequest struct {
	Row *int `json:"row"`
	Col *int `json:"col"`
}

type configureRequest struct {
	Algorithm string `json:"algorithm"`
	DelayMS   *int   `json:"delay_ms"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	if r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return gwerr.Wrap(gwerr.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}

func (s *Server) handleCreateBoard(w http.ResponseWriter, r *http.Request) {
	req := createBoardRequest{Size: grid.DefaultSize}
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	b, err := s.mgr.Create(r.Context(), req.Size)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	loggerFromContext(r.Context()).Info("board created", "id", b.ID, "size", b.Size)
	s.writeBoard(w, r, http.StatusCreated, b)
}

func (s *Server) handleListBoards(w http.ResponseWriter, r *http.Request) {
	ids, err := s.mgr.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"boards": ids})
}

func (s *Server) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	b, err := s.mgr.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeBoard(w, r, http.StatusOK, b)
}

func (s *Server) handleDeleteBoard(w http.ResponseWriter, r *http.Request) {
	if err := s.mgr.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleWall(w http.ResponseWriter, r *http.Request) {
	var req toggleWallRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Row == nil || req.Col == nil {
		s.writeError(w, r, gwerr.New(gwerr.ErrCodeInvalidCell, "row and col are required"))
		return
	}
	b, state, err := s.mgr.ToggleWall(r.Context(), chi.URLParam(r, "id"), grid.At(*req.Row, *req.Col))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp, err := newBoardResponse(b)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		boardResponse
		Cell  grid.Coord `json:"cell"`
		State string     `json:"state"`
	}{resp, grid.At(*req.Row, *req.Col), state.String()})
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	var req createBoardRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	b, err := s.mgr.Resize(r.Context(), chi.URLParam(r, "id"), req.Size)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeBoard(w, r, http.StatusOK, b)
}

func (s *Server) handleConfigureBoard(w http.ResponseWriter, r *http.Request) {
	var req configureRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")

	var alg solve.Algorithm
	if req.Algorithm != "" {
		a, err := solve.ParseAlgorithm(req.Algorithm)
		if err != nil {
			s.writeError(w, r, gwerr.Wrap(gwerr.ErrCodeInvalidAlgorithm, err, "algorithm"))
			return
		}
		alg = a
	}
	if req.DelayMS != nil {
		if err := gwerr.ValidateDelayMillis(*req.DelayMS); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	b, err := s.mgr.Configure(r.Context(), id, alg, req.DelayMS)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeBoard(w, r, http.StatusOK, b)
}

// queryAlgorithm reads ?algo=, returning "" when absent.
func queryAlgorithm(r *http.Request) (solve.Algorithm, error) {
	raw := r.URL.Query().Get("algo")
	if raw == "" {
		return "", nil
	}
	alg, err := solve.ParseAlgorithm(raw)
	if err != nil {
		return "", gwerr.Wrap(gwerr.ErrCodeInvalidAlgorithm, err, "algo")
	}
	return alg, nil
}

// queryDelay reads ?delay= in milliseconds, returning -1 when absent.
func queryDelay(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("delay")
	if raw == "" {
		return -1, nil
	}
	ms, err := strconv.Atoi(raw)
	if err != nil {
		return 0, gwerr.Wrap(gwerr.ErrCodeInvalidInput, err, "delay must be milliseconds")
	}
	if err := gwerr.ValidateDelayMillis(ms); err != nil {
		return 0, err
	}
	return ms, nil
}
