package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/gridwalk/pkg/cache"
	gwerr "github.com/matzehuels/gridwalk/pkg/errors"
	"github.com/matzehuels/gridwalk/pkg/grid"
	"github.com/matzehuels/gridwalk/pkg/render"
)

var contentTypes = map[render.Format]string{
	render.FormatText: "text/plain; charset=utf-8",
	render.FormatANSI: "text/plain; charset=utf-8",
	render.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
	render.FormatSVG:  "image/svg+xml",
	render.FormatPNG:  "image/png",
}

// handleRender draws a board. With ?algo= the board is solved first and
// drawn with its visited cells and path.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "format")
	if strings.EqualFold(name, "txt") {
		name = string(render.FormatText)
	}
	format, err := render.ParseFormat(name)
	if err != nil {
		s.writeError(w, r, gwerr.Wrap(gwerr.ErrCodeInvalidFormat, err, "render"))
		return
	}
	alg, err := queryAlgorithm(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	b, err := s.mgr.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	g, err := b.Grid()
	if err != nil {
		s.writeError(w, r, gwerr.Wrap(gwerr.ErrCodeInternal, err, "board %s is corrupt", b.ID))
		return
	}

	opts := render.Options{CellSize: s.cellSize}
	if alg != "" {
		res, err := s.solve(r.Context(), alg, g)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		g = res.Grid
		opts.Path = res.Path
	}

	data, hit, err := s.renderCached(r, format, g, opts)
	if err != nil {
		s.writeError(w, r, gwerr.Wrap(gwerr.ErrCodeInternal, err, "render board %s", b.ID))
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	if hit {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) renderCached(r *http.Request, f render.Format, g *grid.Grid, opts render.Options) ([]byte, bool, error) {
	return cache.Rendered(r.Context(), s.cache, f, g, opts, cache.DefaultTTL)
}
