package server

import (
	"net/http"
	"strconv"

	"github.com/matzehuels/controlgraph/pkg/core/geom"
	"github.com/matzehuels/controlgraph/pkg/errors"
	"github.com/matzehuels/controlgraph/pkg/pipeline"
	"github.com/matzehuels/controlgraph/pkg/view"
)

type viewportRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (v viewportRequest) viewport() (geom.Viewport, error) {
	if err := errors.ValidateViewport(v.Width, v.Height); err != nil {
		return geom.Viewport{}, err
	}
	return geom.Viewport{Width: v.Width, Height: v.Height}, nil
}

type viewResponse struct {
	ID    string     `json:"id"`
	Frame view.Frame `json:"frame"`
}

// Pointer event types.
const (
	pointerMove  = "move"
	pointerClick = "click"
	pointerLeave = "leave"
)

type pointerRequest struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type focusRequest struct {
	ID string `json:"id"`
}

func (s *Server) handleCreateView(w http.ResponseWriter, r *http.Request) {
	var req viewportRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	vp, err := req.viewport()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	opts := append([]view.Option{view.WithLogger(s.logger)}, s.viewOpts...)
	v := view.New(s.catalog, opts...)
	v.Resize(vp)

	sess, err := s.sessions.Create(v)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("view session created", "id", sess.ID, "viewport", vp)
	writeJSON(w, http.StatusCreated, viewResponse{ID: sess.ID, Frame: sess.Loop.Snapshot()})
}

func (s *Server) handleGetView(w http.ResponseWriter, r *http.Request) {
	s.writeFrame(w, r)
}

func (s *Server) handleDeleteView(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(sessionFrom(r).ID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePointer(w http.ResponseWriter, r *http.Request) {
	var req pointerRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	p := geom.Point{X: req.X, Y: req.Y}
	if req.Type != pointerLeave && !p.IsFinite() {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "pointer position must be finite"))
		return
	}

	loop := sessionFrom(r).Loop
	var err error
	switch req.Type {
	case pointerMove:
		_, _, err = loop.Hover(r.Context(), p)
	case pointerClick:
		_, _, err = loop.Click(r.Context(), p)
	case pointerLeave:
		err = loop.Leave(r.Context())
	default:
		err = errors.New(errors.ErrCodeInvalidInput, "unknown pointer event %q (want move, click or leave)", req.Type)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeFrame(w, r)
}

func (s *Server) handleFocus(w http.ResponseWriter, r *http.Request) {
	var req focusRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := sessionFrom(r).Loop.Focus(r.Context(), req.ID); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeFrame(w, r)
}

func (s *Server) handleClearFocus(w http.ResponseWriter, r *http.Request) {
	if err := sessionFrom(r).Loop.ClearFocus(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeFrame(w, r)
}

func (s *Server) handleViewport(w http.ResponseWriter, r *http.Request) {
	var req viewportRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	vp, err := req.viewport()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := sessionFrom(r).Loop.Resize(r.Context(), vp); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeFrame(w, r)
}

func (s *Server) writeFrame(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	writeJSON(w, http.StatusOK, viewResponse{ID: sess.ID, Frame: sess.Loop.Snapshot()})
}

// handleFrameSVG renders the session's latest frame. Identical pictures
// share a cache entry regardless of their sequence number.
func (s *Server) handleFrameSVG(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := pipeline.Options{
		Formats:  []string{pipeline.FormatSVG},
		Detailed: parseBool(q.Get("detailed")),
		Targets:  parseBool(q.Get("targets")),
	}

	f := sessionFrom(r).Loop.Snapshot()
	arts, hit, err := s.runner.RenderFrame(r.Context(), f, opts)
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "render frame"))
		return
	}
	writeCached(w, "image/svg+xml", arts[pipeline.FormatSVG], hit)
}

func parseBool(v string) bool {
	b, _ := strconv.ParseBool(v)
	return b
}
