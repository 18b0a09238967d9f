package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/controlgraph/pkg/cache"
	"github.com/matzehuels/controlgraph/pkg/catalog"
	"github.com/matzehuels/controlgraph/pkg/compliance"
	"github.com/matzehuels/controlgraph/pkg/errors"
	"github.com/matzehuels/controlgraph/pkg/observability"
	"github.com/matzehuels/controlgraph/pkg/session"
)

type recordingHooks struct {
	observability.NoopHTTPHooks
	mu          sync.Mutex
	routes      []string
	rateLimited int
}

func (h *recordingHooks) OnRequest(_ context.Context, method, route string, status int, _ time.Duration) {
	h.mu.Lock()
	h.routes = append(h.routes, method+" "+route)
	h.mu.Unlock()
}

func (h *recordingHooks) OnRateLimited(context.Context, string) {
	h.mu.Lock()
	h.rateLimited++
	h.mu.Unlock()
}

type fixture struct {
	srv     *Server
	hooks   *recordingHooks
	renders atomic.Int64
}

func newFixture(t *testing.T, storeOpts ...session.Option) *fixture {
	t.Helper()
	fx := &fixture{hooks: &recordingHooks{}}
	store := session.NewStore(storeOpts...)
	t.Cleanup(func() { store.Close() })

	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	fx.srv = New(Options{
		Catalog:  catalog.Default(),
		Sessions: store,
		Cache:    fc,
		Seed:     42,
		Now:      func() time.Time { return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC) },
		Hooks:    fx.hooks,
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("# metrics\n"))
		}),
		RenderSVG: func(_ context.Context, dot string) ([]byte, error) {
			fx.renders.Add(1)
			return []byte("<svg>" + dot + "</svg>"), nil
		},
	})
	return fx
}

func (fx *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	rec := httptest.NewRecorder()
	fx.srv.Handler().ServeHTTP(rec, httptest.NewRequest(method, path, &buf))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) errors.Code {
	t.Helper()
	return decode[errorBody](t, rec).Error.Code
}

func TestHealthAndMetrics(t *testing.T) {
	fx := newFixture(t)

	if rec := fx.do(t, "GET", "/healthz", nil); rec.Code != http.StatusOK {
		t.Errorf("GET /healthz = %d", rec.Code)
	}
	rec := fx.do(t, "GET", "/metrics", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "# metrics") {
		t.Errorf("GET /metrics = %d %q", rec.Code, rec.Body.String())
	}
}

func TestCatalogEndpoints(t *testing.T) {
	fx := newFixture(t)
	def := catalog.Default()

	rec := fx.do(t, "GET", "/api/catalog", nil)
	if got := decode[catalog.Catalog](t, rec); len(got.Frameworks) != len(def.Frameworks) {
		t.Errorf("catalog frameworks = %d, want %d", len(got.Frameworks), len(def.Frameworks))
	}

	rec = fx.do(t, "GET", "/api/frameworks/iso27001", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET framework = %d: %s", rec.Code, rec.Body)
	}
	fw := decode[frameworkResponse](t, rec)
	if fw.ID != "iso27001" || len(fw.Neighbors) != len(def.Neighbors("iso27001")) {
		t.Errorf("framework = %s with %d neighbors", fw.ID, len(fw.Neighbors))
	}
	if len(fw.Neighbors) > 0 && fw.Neighbors[0].Framework.ID != "iso27002" {
		t.Errorf("strongest neighbor = %s, want iso27002", fw.Neighbors[0].Framework.ID)
	}
	if len(fw.Controls) != len(def.Controls) || fw.Controls[0].Mappings[0].Reference != "5.1, 5.2, 5.3" {
		t.Errorf("controls = %+v", fw.Controls)
	}

	tests := []struct {
		path   string
		status int
		code   errors.Code
	}{
		{"/api/frameworks/nope", http.StatusNotFound, errors.ErrCodeUnknownEntity},
		{"/api/frameworks/bad%20id", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"/api/layout?width=abc", http.StatusBadRequest, errors.ErrCodeInvalidViewport},
		{"/api/layout?width=-5", http.StatusBadRequest, errors.ErrCodeInvalidViewport},
		{"/api/layout?focus=nope", http.StatusNotFound, errors.ErrCodeUnknownEntity},
		{"/api/compliance?seed=x", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"/api/compliance?status=great", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"/api/resources?category=misc", http.StatusBadRequest, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		rec := fx.do(t, "GET", tt.path, nil)
		if rec.Code != tt.status {
			t.Errorf("GET %s = %d, want %d", tt.path, rec.Code, tt.status)
			continue
		}
		if code := errorCode(t, rec); code != tt.code {
			t.Errorf("GET %s code = %s, want %s", tt.path, code, tt.code)
		}
	}
}

func TestLayoutCached(t *testing.T) {
	fx := newFixture(t)
	path := "/api/layout?focus=iso27001&width=1000&height=800"

	first := fx.do(t, "GET", path, nil)
	if first.Code != http.StatusOK || first.Header().Get("X-Cache") != "MISS" {
		t.Fatalf("first GET = %d, X-Cache %q", first.Code, first.Header().Get("X-Cache"))
	}
	lr := decode[layoutResponse](t, first)
	if lr.Focus != "iso27001" || len(lr.Nodes) != len(catalog.Default().Frameworks) {
		t.Errorf("layout focus=%q nodes=%d", lr.Focus, len(lr.Nodes))
	}
	for _, n := range lr.Nodes {
		if n.ID == "iso27001" && (n.X != 500 || n.Y != 400 || n.Ring != "center") {
			t.Errorf("focus node = %+v, want centred", n)
		}
	}

	second := fx.do(t, "GET", path, nil)
	if second.Header().Get("X-Cache") != "HIT" {
		t.Errorf("second GET X-Cache = %q, want HIT", second.Header().Get("X-Cache"))
	}
	if !bytes.Equal(first.Body.Bytes(), second.Body.Bytes()) {
		t.Error("cached layout differs from computed one")
	}
}

func TestCompliance(t *testing.T) {
	fx := newFixture(t)

	all := decode[complianceResponse](t, fx.do(t, "GET", "/api/compliance", nil))
	if all.Seed != 42 || all.Summary.Total != len(catalog.Default().Controls) {
		t.Errorf("seed=%d total=%d", all.Seed, all.Summary.Total)
	}

	partial := decode[complianceResponse](t, fx.do(t, "GET", "/api/compliance?status=partial", nil))
	for _, a := range partial.Assessments {
		if a.Status != compliance.StatusPartial {
			t.Errorf("filtered assessment %s has status %s", a.Control.ID, a.Status)
		}
	}
	if len(partial.Assessments) != all.Summary.Counts[compliance.StatusPartial] {
		t.Errorf("partial = %d, summary says %d", len(partial.Assessments), all.Summary.Counts[compliance.StatusPartial])
	}
}

func TestComplianceCycle(t *testing.T) {
	fx := newFixture(t)

	before := decode[complianceResponse](t, fx.do(t, "GET", "/api/compliance", nil))
	first := before.Assessments[0]

	rec := fx.do(t, "POST", "/api/compliance/controls/"+first.Control.ID+"/cycle", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST cycle = %d: %s", rec.Code, rec.Body)
	}
	got := decode[cycleResponse](t, rec)
	if got.Assessment.Status != first.Status.Next() || got.Assessment.Date() != "2026-03-14" {
		t.Errorf("cycled = %s %s, want %s 2026-03-14", got.Assessment.Status, got.Assessment.Date(), first.Status.Next())
	}
	if got.Summary.Counts[got.Assessment.Status] != before.Summary.Counts[got.Assessment.Status]+1 {
		t.Errorf("summary not updated: %+v", got.Summary.Counts)
	}

	// The tracker keeps the change; a seeded request does not see it.
	after := decode[complianceResponse](t, fx.do(t, "GET", "/api/compliance", nil))
	if after.Assessments[0].Status != got.Assessment.Status {
		t.Errorf("tracker status = %s, want %s", after.Assessments[0].Status, got.Assessment.Status)
	}
	seeded := decode[complianceResponse](t, fx.do(t, "GET", "/api/compliance?seed=42", nil))
	if seeded.Assessments[0].Status != first.Status {
		t.Errorf("seeded status = %s, want %s", seeded.Assessments[0].Status, first.Status)
	}

	rec = fx.do(t, "POST", "/api/compliance/controls/NOPE-99/cycle", nil)
	if rec.Code != http.StatusNotFound || errorCode(t, rec) != errors.ErrCodeUnknownEntity {
		t.Errorf("cycle unknown = %d %s", rec.Code, rec.Body)
	}
}

func TestResources(t *testing.T) {
	fx := newFixture(t)
	def := catalog.Default()

	got := decode[catalog.SearchResult](t, fx.do(t, "GET", "/api/resources", nil))
	if got.Len() != len(def.Frameworks)+len(def.Domains) {
		t.Errorf("resources = %d, want %d", got.Len(), len(def.Frameworks)+len(def.Domains))
	}
	if len(got.Frameworks) != len(catalog.Categories) || got.Frameworks[0].Category != catalog.CategoryInternational {
		t.Errorf("groups = %+v", got.Frameworks)
	}

	got = decode[catalog.SearchResult](t, fx.do(t, "GET", "/api/resources?q=privacy&category=regional", nil))
	if len(got.Frameworks) != 1 || got.Frameworks[0].Frameworks[0].ID != "gdpr" {
		t.Errorf("privacy/regional frameworks = %+v", got.Frameworks)
	}
	want := def.SearchDomains("privacy")
	if len(got.Domains) != len(want) {
		t.Errorf("privacy domains = %d, want %d", len(got.Domains), len(want))
	}
}

func TestViewLifecycle(t *testing.T) {
	fx := newFixture(t)

	rec := fx.do(t, "POST", "/api/views", viewportRequest{Width: 800, Height: 600})
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /api/views = %d: %s", rec.Code, rec.Body)
	}
	created := decode[viewResponse](t, rec)
	base := "/api/views/" + created.ID
	if created.Frame.Animating || len(created.Frame.Nodes) == 0 {
		t.Fatalf("first frame animating=%v nodes=%d", created.Frame.Animating, len(created.Frame.Nodes))
	}

	// Click the node where it is drawn.
	iso, _ := created.Frame.Node("iso27001")
	rec = fx.do(t, "POST", base+"/pointer", pointerRequest{Type: "click", X: iso.Current.X, Y: iso.Current.Y})
	if got := decode[viewResponse](t, rec); got.Frame.Selected != "iso27001" || !got.Frame.Animating {
		t.Errorf("after click selected=%q animating=%v", got.Frame.Selected, got.Frame.Animating)
	}

	rec = fx.do(t, "PUT", base+"/focus", focusRequest{ID: "nope"})
	if rec.Code != http.StatusNotFound || errorCode(t, rec) != errors.ErrCodeUnknownEntity {
		t.Errorf("PUT focus nope = %d %s", rec.Code, rec.Body)
	}

	rec = fx.do(t, "PUT", base+"/focus", focusRequest{ID: "nistcsf"})
	if got := decode[viewResponse](t, rec); got.Frame.Selected != "nistcsf" {
		t.Errorf("after PUT focus selected=%q", got.Frame.Selected)
	}

	rec = fx.do(t, "DELETE", base+"/focus", nil)
	if got := decode[viewResponse](t, rec); got.Frame.Selected != "" {
		t.Errorf("after DELETE focus selected=%q", got.Frame.Selected)
	}

	rec = fx.do(t, "PUT", base+"/viewport", viewportRequest{Width: 0, Height: 10})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("PUT viewport 0x10 = %d", rec.Code)
	}
	rec = fx.do(t, "PUT", base+"/viewport", viewportRequest{Width: 1200, Height: 900})
	if got := decode[viewResponse](t, rec); got.Frame.Viewport.Width != 1200 {
		t.Errorf("viewport = %+v", got.Frame.Viewport)
	}

	rec = fx.do(t, "POST", base+"/pointer", pointerRequest{Type: "wiggle"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown pointer type = %d", rec.Code)
	}

	if rec := fx.do(t, "DELETE", base, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE view = %d", rec.Code)
	}
	rec = fx.do(t, "GET", base, nil)
	if rec.Code != http.StatusNotFound || errorCode(t, rec) != errors.ErrCodeSessionNotFound {
		t.Errorf("GET deleted view = %d %s", rec.Code, rec.Body)
	}
}

func TestCreateViewInvalid(t *testing.T) {
	fx := newFixture(t)

	rec := fx.do(t, "POST", "/api/views", map[string]any{"width": 10, "height": 10, "depth": 3})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown field = %d", rec.Code)
	}
	rec = fx.do(t, "POST", "/api/views", viewportRequest{Width: -1, Height: 10})
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != errors.ErrCodeInvalidViewport {
		t.Errorf("negative width = %d %s", rec.Code, rec.Body)
	}
}

func TestFrameSVGCached(t *testing.T) {
	fx := newFixture(t)
	created := decode[viewResponse](t, fx.do(t, "POST", "/api/views", viewportRequest{Width: 400, Height: 400}))
	path := "/api/views/" + created.ID + "/frame.svg"

	first := fx.do(t, "GET", path, nil)
	if first.Code != http.StatusOK || first.Header().Get("Content-Type") != "image/svg+xml" {
		t.Fatalf("GET frame.svg = %d %q", first.Code, first.Header().Get("Content-Type"))
	}
	if !strings.Contains(first.Body.String(), "layout=neato") {
		t.Error("svg was not rendered from the frame's DOT")
	}

	second := fx.do(t, "GET", path, nil)
	if second.Header().Get("X-Cache") != "HIT" || fx.renders.Load() != 1 {
		t.Errorf("second GET X-Cache=%q renders=%d, want HIT and 1", second.Header().Get("X-Cache"), fx.renders.Load())
	}

	fx.do(t, "GET", path+"?detailed=true", nil)
	if fx.renders.Load() != 2 {
		t.Errorf("detailed render shared a cache entry: renders=%d", fx.renders.Load())
	}
}

func TestPointerRateLimit(t *testing.T) {
	fx := newFixture(t, session.WithEventLimit(0.001, 1))
	created := decode[viewResponse](t, fx.do(t, "POST", "/api/views", viewportRequest{Width: 400, Height: 400}))
	path := "/api/views/" + created.ID + "/pointer"

	if rec := fx.do(t, "POST", path, pointerRequest{Type: "move", X: 1, Y: 1}); rec.Code != http.StatusOK {
		t.Fatalf("first pointer = %d", rec.Code)
	}
	rec := fx.do(t, "POST", path, pointerRequest{Type: "move", X: 2, Y: 2})
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") == "" {
		t.Errorf("second pointer = %d, want 429 with Retry-After", rec.Code)
	}

	fx.hooks.mu.Lock()
	defer fx.hooks.mu.Unlock()
	if fx.hooks.rateLimited != 1 {
		t.Errorf("OnRateLimited called %d times", fx.hooks.rateLimited)
	}
}

func TestRequestHooksUseRoutePattern(t *testing.T) {
	fx := newFixture(t)
	fx.do(t, "GET", "/api/frameworks/iso27001", nil)

	fx.hooks.mu.Lock()
	defer fx.hooks.mu.Unlock()
	if len(fx.hooks.routes) != 1 || fx.hooks.routes[0] != "GET /api/frameworks/{id}" {
		t.Errorf("routes = %q", fx.hooks.routes)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.New(errors.ErrCodeInvalidViewport, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeSessionNotFound, "x"), http.StatusNotFound},
		{errors.New(errors.ErrCodeRateLimited, "x"), http.StatusTooManyRequests},
		{errors.New(errors.ErrCodeInternal, "x"), http.StatusInternalServerError},
		{context.Canceled, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
