package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/controlgraph/pkg/catalog"
	"github.com/matzehuels/controlgraph/pkg/compliance"
	"github.com/matzehuels/controlgraph/pkg/errors"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Len(),
	})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog)
}

type frameworkResponse struct {
	catalog.Framework
	Neighbors []catalog.Neighbor `json:"neighbors"`
	Controls  []catalog.Control  `json:"controls,omitempty"`
}

func (s *Server) handleFramework(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateID(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	f, ok := s.catalog.Framework(id)
	if !ok {
		s.writeError(w, r, errors.New(errors.ErrCodeUnknownEntity, "unknown framework: %s", id))
		return
	}
	resp := frameworkResponse{
		Framework: f,
		Neighbors: s.catalog.Neighbors(id),
		Controls:  s.catalog.ControlsFor(id),
	}
	if resp.Neighbors == nil {
		resp.Neighbors = []catalog.Neighbor{}
	}
	writeJSON(w, http.StatusOK, resp)
}

type complianceResponse struct {
	Seed        uint64                  `json:"seed"`
	Summary     compliance.Summary      `json:"summary"`
	Assessments []compliance.Assessment `json:"assessments"`
}

// handleCompliance serves the tracker's assessments, or a fresh stateless
// assessment when the request names a seed.
func (s *Server) handleCompliance(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	seed := s.seed
	as := s.tracker.Assessments()
	if v := q.Get("seed"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid seed %q", v))
			return
		}
		seed = n
		as = compliance.Assess(s.catalog.Controls, compliance.Seeded(seed), time.Now())
	}

	resp := complianceResponse{Seed: seed, Summary: compliance.Summarize(as), Assessments: as}
	if v := q.Get("status"); v != "" {
		st, err := compliance.ParseStatus(v)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		resp.Assessments = compliance.Filter(as, st)
	}
	if resp.Assessments == nil {
		resp.Assessments = []compliance.Assessment{}
	}
	writeJSON(w, http.StatusOK, resp)
}

type cycleResponse struct {
	Assessment compliance.Assessment `json:"assessment"`
	Summary    compliance.Summary    `json:"summary"`
}

func (s *Server) handleCycleControl(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateID(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	a, err := s.tracker.Cycle(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Debug("control cycled", "control", id, "status", a.Status)
	writeJSON(w, http.StatusOK, cycleResponse{Assessment: a, Summary: compliance.Summarize(s.tracker.Assessments())})
}

func (s *Server) handleResources(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := catalog.Query{
		Text:     q.Get("q"),
		Category: catalog.Category(q.Get("category")),
	}
	if err := errors.ValidateQuery(query.Text); err != nil {
		s.writeError(w, r, err)
		return
	}
	if query.Category != "" && !query.Category.Valid() {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "unknown category: %s", query.Category))
		return
	}
	res := s.catalog.Search(query)
	if res.Frameworks == nil {
		res.Frameworks = []catalog.CategoryGroup{}
	}
	if res.Domains == nil {
		res.Domains = []catalog.DomainMatch{}
	}
	writeJSON(w, http.StatusOK, res)
}
