package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/matzehuels/controlgraph/pkg/core/geom"
	"github.com/matzehuels/controlgraph/pkg/core/radial"
	"github.com/matzehuels/controlgraph/pkg/errors"
)

// Viewport used when a layout request omits its dimensions.
const (
	defaultWidth  = 800
	defaultHeight = 600
)

type layoutNode struct {
	ID   string  `json:"id"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Ring string  `json:"ring"`
}

type layoutResponse struct {
	Focus    string        `json:"focus,omitempty"`
	Viewport geom.Viewport `json:"viewport"`
	Nodes    []layoutNode  `json:"nodes"`
	Skipped  int           `json:"skipped"`
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	vp, err := parseViewport(q.Get("width"), q.Get("height"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	focus := q.Get("focus")
	if focus != "" {
		if _, ok := s.catalog.Framework(focus); !ok {
			s.writeError(w, r, errors.New(errors.ErrCodeUnknownEntity, "unknown framework: %s", focus))
			return
		}
	}

	ctx := r.Context()
	key := s.keyer.LayoutKey(s.catalogHash, focus, vp)
	if data, ok := s.cached(r, key); ok {
		writeCached(w, "application/json", data, true)
		return
	}

	res := radial.Compute(s.catalog.Frameworks, s.catalog.Relations, focus, vp)
	resp := layoutResponse{
		Focus:    res.Focus,
		Viewport: vp,
		Nodes:    make([]layoutNode, 0, len(s.catalog.Frameworks)),
		Skipped:  len(res.Skipped),
	}
	for _, f := range s.catalog.Frameworks {
		p := res.Targets[f.ID]
		resp.Nodes = append(resp.Nodes, layoutNode{ID: f.ID, X: p.X, Y: p.Y, Ring: res.Rings[f.ID].String()})
	}

	data, err := json.Marshal(resp)
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "encode layout"))
		return
	}
	if err := s.cache.Set(ctx, key, data, s.artifactTTL); err != nil {
		s.logger.Warn("cache write failed", "key", key, "err", err)
	}
	writeCached(w, "application/json", data, false)
}

func parseViewport(ws, hs string) (geom.Viewport, error) {
	vp := geom.Viewport{Width: defaultWidth, Height: defaultHeight}
	var err error
	if ws != "" {
		if vp.Width, err = strconv.ParseFloat(ws, 64); err != nil {
			return vp, errors.Wrap(errors.ErrCodeInvalidViewport, err, "invalid width %q", ws)
		}
	}
	if hs != "" {
		if vp.Height, err = strconv.ParseFloat(hs, 64); err != nil {
			return vp, errors.Wrap(errors.ErrCodeInvalidViewport, err, "invalid height %q", hs)
		}
	}
	return vp, errors.ValidateViewport(vp.Width, vp.Height)
}

// cached looks key up, treating backend errors as misses.
func (s *Server) cached(r *http.Request, key string) ([]byte, bool) {
	data, ok, err := s.cache.Get(r.Context(), key)
	if err != nil {
		s.logger.Warn("cache read failed", "key", key, "err", err)
		return nil, false
	}
	return data, ok
}

func writeCached(w http.ResponseWriter, contentType string, data []byte, hit bool) {
	w.Header().Set("Content-Type", contentType)
	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
