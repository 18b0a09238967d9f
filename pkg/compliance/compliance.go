// Package compliance tracks the assessed status of sample controls.
//
// Status data is fabricated: a [Generator] decides the status of every
// control. [Seeded] derives statuses and assessment dates deterministically
// from a seed and the control ID, so the same seed always yields the same
// dashboard. A [Tracker] holds assessments that users cycle by hand.
package compliance

import (
	"hash/fnv"
	"math"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/matzehuels/controlgraph/pkg/catalog"
	"github.com/matzehuels/controlgraph/pkg/errors"
)

// Status is the assessed state of a control.
type Status string

const (
	StatusCompliant    Status = "compliant"
	StatusPartial      Status = "partial"
	StatusNonCompliant Status = "non_compliant"
	StatusNotAssessed  Status = "not_assessed"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusCompliant, StatusPartial, StatusNonCompliant, StatusNotAssessed}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Label returns a human-readable form of s.
func (s Status) Label() string {
	switch s {
	case StatusCompliant:
		return "Compliant"
	case StatusPartial:
		return "Partial"
	case StatusNonCompliant:
		return "Non-compliant"
	case StatusNotAssessed:
		return "Not assessed"
	}
	return string(s)
}

// Next returns the status a manual toggle moves to:
// not assessed, non-compliant, partial, compliant, then back to not assessed.
func (s Status) Next() Status {
	switch s {
	case StatusNotAssessed:
		return StatusNonCompliant
	case StatusNonCompliant:
		return StatusPartial
	case StatusPartial:
		return StatusCompliant
	}
	return StatusNotAssessed
}

// ParseStatus parses a status name. Dashes are accepted in place of
// underscores.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if s == "non-compliant" {
		st = StatusNonCompliant
	} else if s == "not-assessed" {
		st = StatusNotAssessed
	}
	if !st.Valid() {
		return "", errors.New(errors.ErrCodeInvalidInput, "unknown status %q", s)
	}
	return st, nil
}

// =============================================================================
// Generators
// =============================================================================

// Generator assigns a status to a control.
type Generator interface {
	Status(c catalog.Control) Status
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(c catalog.Control) Status

// Status implements Generator.
func (f GeneratorFunc) Status(c catalog.Control) Status { return f(c) }

// Dater is implemented by generators that also choose when a control was
// last assessed. Assessments from other generators are dated today.
type Dater interface {
	LastAssessed(c catalog.Control, now time.Time) time.Time
}

// MaxAge bounds how far back [Seeded] dates an assessment.
const MaxAge = 90 * 24 * time.Hour

// Fixed returns a generator that assigns s to every control.
func Fixed(s Status) Generator {
	return GeneratorFunc(func(catalog.Control) Status { return s })
}

// weights is the cumulative distribution used by Seeded, in percent.
var weights = []struct {
	upTo   int
	status Status
}{
	{45, StatusCompliant},
	{70, StatusPartial},
	{90, StatusNonCompliant},
	{100, StatusNotAssessed},
}

type seeded struct {
	seed uint64
}

// Seeded returns a generator whose output depends only on seed and the
// control ID, not on call order.
func Seeded(seed uint64) Generator {
	return seeded{seed: seed}
}

func (g seeded) rng(c catalog.Control) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(c.ID))
	return rand.New(rand.NewPCG(g.seed, h.Sum64()))
}

func (g seeded) Status(c catalog.Control) Status {
	return pickStatus(g.rng(c))
}

// LastAssessed implements Dater. The date is drawn after the status from
// the same stream, so dating does not change statuses.
func (g seeded) LastAssessed(c catalog.Control, now time.Time) time.Time {
	rng := g.rng(c)
	pickStatus(rng)
	return Day(now.Add(-time.Duration(rng.Int64N(int64(MaxAge)))))
}

func pickStatus(rng *rand.Rand) Status {
	n := rng.IntN(100)
	for _, w := range weights {
		if n < w.upTo {
			return w.status
		}
	}
	return StatusNotAssessed
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// Assessments
// =============================================================================

// Assessment is the status of one control.
type Assessment struct {
	Control      catalog.Control `json:"control"`
	Status       Status          `json:"status"`
	LastAssessed time.Time       `json:"last_assessed"` // midnight UTC
}

// Date returns LastAssessed as YYYY-MM-DD.
func (a Assessment) Date() string {
	return a.LastAssessed.Format(time.DateOnly)
}

// Cycle moves the assessment to its next status and dates it now.
func (a *Assessment) Cycle(now time.Time) {
	a.Status = a.Status.Next()
	a.LastAssessed = Day(now)
}

// Assess assigns a status and date to every control, in order.
func Assess(controls []catalog.Control, gen Generator, now time.Time) []Assessment {
	dater, _ := gen.(Dater)
	out := make([]Assessment, len(controls))
	for i, c := range controls {
		out[i] = Assessment{Control: c, Status: gen.Status(c), LastAssessed: Day(now)}
		if dater != nil {
			out[i].LastAssessed = Day(dater.LastAssessed(c, now))
		}
	}
	return out
}

// Filter returns the assessments with the given status. An empty status
// returns all of them.
func Filter(as []Assessment, s Status) []Assessment {
	if s == "" {
		return as
	}
	var out []Assessment
	for _, a := range as {
		if a.Status == s {
			out = append(out, a)
		}
	}
	return out
}

// ForFramework returns the assessments of controls mapped to fwID.
func ForFramework(as []Assessment, fwID string) []Assessment {
	var out []Assessment
	for _, a := range as {
		if a.Control.MapsTo(fwID) {
			out = append(out, a)
		}
	}
	return out
}

// =============================================================================
// Summary
// =============================================================================

// Tally counts assessments per status.
type Tally struct {
	Total  int            `json:"total"`
	Counts map[Status]int `json:"counts"`
	// Score is (compliant + 0.5·partial) / total, in [0, 1]. Controls not
	// yet assessed count against it. Zero when there are no controls.
	Score float64 `json:"score"`
}

// Assessed returns the number of controls with a status other than
// not-assessed.
func (t Tally) Assessed() int {
	return t.Total - t.Counts[StatusNotAssessed]
}

func (t *Tally) add(s Status) {
	if t.Counts == nil {
		t.Counts = make(map[Status]int, len(Statuses))
	}
	t.Total++
	t.Counts[s]++
}

func (t *Tally) finish() {
	if t.Total > 0 {
		t.Score = (float64(t.Counts[StatusCompliant]) + 0.5*float64(t.Counts[StatusPartial])) / float64(t.Total)
	}
}

// Percent returns the score as a whole percentage, rounded half up.
func (t Tally) Percent() int {
	return int(math.Floor(t.Score*100 + 0.5))
}

// FrameworkTally is the tally of the controls mapped to one framework.
type FrameworkTally struct {
	Framework string `json:"framework"`
	Tally
}

// Summary is the overall and per-framework tally of a set of assessments.
type Summary struct {
	Tally
	Frameworks []FrameworkTally `json:"frameworks"`
}

// Summarize tallies assessments overall and per mapped framework.
// Frameworks are sorted by ID.
func Summarize(as []Assessment) Summary {
	var sum Summary
	sum.Counts = make(map[Status]int, len(Statuses))
	per := make(map[string]*Tally)
	for _, a := range as {
		sum.add(a.Status)
		for _, id := range a.Control.FrameworkIDs() {
			t, ok := per[id]
			if !ok {
				t = &Tally{}
				per[id] = t
			}
			t.add(a.Status)
		}
	}
	sum.finish()

	ids := make([]string, 0, len(per))
	for id := range per {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		t := per[id]
		t.finish()
		sum.Frameworks = append(sum.Frameworks, FrameworkTally{Framework: id, Tally: *t})
	}
	return sum
}

// =============================================================================
// Tracker
// =============================================================================

// Tracker holds assessments that can be cycled one control at a time. It is
// safe for concurrent use.
type Tracker struct {
	mu  sync.RWMutex
	as  []Assessment
	now func() time.Time
}

// NewTracker assesses controls with gen and keeps the result. A nil now
// defaults to time.Now.
func NewTracker(controls []catalog.Control, gen Generator, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{as: Assess(controls, gen, now()), now: now}
}

// Assessments returns a copy of the current assessments.
func (t *Tracker) Assessments() []Assessment {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Assessment, len(t.as))
	copy(out, t.as)
	return out
}

// Cycle advances the status of one control and returns its new assessment.
func (t *Tracker) Cycle(controlID string) (Assessment, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.as {
		if t.as[i].Control.ID == controlID {
			t.as[i].Cycle(t.now())
			return t.as[i], nil
		}
	}
	return Assessment{}, errors.New(errors.ErrCodeUnknownEntity, "unknown control: %s", controlID)
}
