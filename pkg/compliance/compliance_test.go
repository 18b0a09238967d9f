package compliance

import (
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/controlgraph/pkg/catalog"
	"github.com/matzehuels/controlgraph/pkg/errors"
)

func controls(n int) []catalog.Control {
	out := make([]catalog.Control, n)
	for i := range out {
		out[i] = catalog.Control{ID: fmt.Sprintf("CTL-%03d", i), Mappings: mapped("x")}
	}
	return out
}

func mapped(ids ...string) []catalog.Mapping {
	out := make([]catalog.Mapping, len(ids))
	for i, id := range ids {
		out[i] = catalog.Mapping{Framework: id}
	}
	return out
}

var today = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

func TestSeededIsDeterministic(t *testing.T) {
	cs := controls(50)
	a := Assess(cs, Seeded(42), today)
	b := Assess(cs, Seeded(42), today)
	for i := range a {
		if a[i].Status != b[i].Status || a[i].LastAssessed != b[i].LastAssessed {
			t.Errorf("control %s: %s %s != %s %s", a[i].Control.ID, a[i].Status, a[i].Date(), b[i].Status, b[i].Date())
		}
	}

	// Independent of call order.
	reversed := make([]catalog.Control, len(cs))
	for i, c := range cs {
		reversed[len(cs)-1-i] = c
	}
	r := Assess(reversed, Seeded(42), today)
	for i := range r {
		if r[i].Status != a[len(a)-1-i].Status {
			t.Errorf("control %s depends on order", r[i].Control.ID)
		}
	}
}

func TestSeededVariesWithSeed(t *testing.T) {
	cs := controls(200)
	a := Assess(cs, Seeded(1), today)
	b := Assess(cs, Seeded(2), today)
	diff := 0
	for i := range a {
		if a[i].Status != b[i].Status {
			diff++
		}
	}
	if diff == 0 {
		t.Error("seeds 1 and 2 produced identical statuses")
	}

	seen := map[Status]bool{}
	for _, x := range a {
		if !x.Status.Valid() {
			t.Fatalf("invalid status %q", x.Status)
		}
		seen[x.Status] = true
	}
	if len(seen) != len(Statuses) {
		t.Errorf("200 controls covered %d statuses, want %d", len(seen), len(Statuses))
	}
}

func TestSummarize(t *testing.T) {
	as := []Assessment{
		{Control: catalog.Control{ID: "1", Mappings: mapped("b", "a")}, Status: StatusCompliant},
		{Control: catalog.Control{ID: "2", Mappings: mapped("a")}, Status: StatusCompliant},
		{Control: catalog.Control{ID: "3", Mappings: mapped("a")}, Status: StatusPartial},
		{Control: catalog.Control{ID: "4"}, Status: StatusNonCompliant},
		{Control: catalog.Control{ID: "5", Mappings: mapped("b")}, Status: StatusNotAssessed},
	}
	s := Summarize(as)

	if s.Total != 5 || s.Assessed() != 4 {
		t.Errorf("Total = %d, Assessed = %d, want 5, 4", s.Total, s.Assessed())
	}
	// 2.5 / 5: the not-assessed control counts against the score.
	if math.Abs(s.Score-0.5) > 1e-9 || s.Percent() != 50 {
		t.Errorf("Score = %v (%d%%), want 0.5", s.Score, s.Percent())
	}
	if len(s.Frameworks) != 2 || s.Frameworks[0].Framework != "a" || s.Frameworks[1].Framework != "b" {
		t.Fatalf("Frameworks = %+v, want [a b]", s.Frameworks)
	}
	if a := s.Frameworks[0]; a.Total != 3 || math.Abs(a.Score-2.5/3) > 1e-9 || a.Percent() != 83 {
		t.Errorf("a = %+v, want 3 controls, score 0.833", a)
	}
	if b := s.Frameworks[1]; b.Total != 2 || b.Score != 0.5 {
		t.Errorf("b = %+v, want 2 controls, score 0.5", b)
	}
}

func TestScoreCountsUnassessed(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     int
	}{
		{"all compliant", []Status{StatusCompliant, StatusCompliant}, 100},
		{"half unassessed", []Status{StatusCompliant, StatusNotAssessed}, 50},
		{"partial and unassessed", []Status{StatusPartial, StatusNotAssessed, StatusNotAssessed}, 17},
		{"mixed", []Status{StatusCompliant, StatusPartial, StatusNonCompliant, StatusNotAssessed}, 38},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			as := make([]Assessment, len(tt.statuses))
			for i, st := range tt.statuses {
				as[i] = Assessment{Control: catalog.Control{ID: fmt.Sprint(i)}, Status: st}
			}
			if got := Summarize(as).Percent(); got != tt.want {
				t.Errorf("Percent() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.Total != 0 || s.Score != 0 || len(s.Frameworks) != 0 {
		t.Errorf("Summarize(nil) = %+v", s)
	}
	s = Summarize(Assess(controls(3), Fixed(StatusNotAssessed), today))
	if s.Score != 0 {
		t.Errorf("all not assessed: Score = %v, want 0", s.Score)
	}
}

func TestFilter(t *testing.T) {
	as := Assess(catalog.Default().Controls, Fixed(StatusPartial), today)
	if got := Filter(as, StatusPartial); len(got) != len(as) {
		t.Errorf("Filter(partial) = %d, want %d", len(got), len(as))
	}
	if got := Filter(as, StatusCompliant); len(got) != 0 {
		t.Errorf("Filter(compliant) = %d, want 0", len(got))
	}
	if got := Filter(as, ""); len(got) != len(as) {
		t.Errorf("Filter(\"\") = %d, want all", len(got))
	}
	if got := ForFramework(as, "gdpr"); len(got) != 2 {
		t.Errorf("ForFramework(gdpr) = %d, want 2", len(got))
	}
}

func TestStatusNext(t *testing.T) {
	want := []Status{StatusNonCompliant, StatusPartial, StatusCompliant, StatusNotAssessed, StatusNonCompliant}
	s := StatusNotAssessed
	for i, w := range want {
		s = s.Next()
		if s != w {
			t.Fatalf("step %d: Next() = %s, want %s", i, s, w)
		}
	}
	if got := Status("bogus").Next(); got != StatusNotAssessed {
		t.Errorf("unknown.Next() = %s, want %s", got, StatusNotAssessed)
	}
}

func TestSeededLastAssessed(t *testing.T) {
	cs := controls(200)
	as := Assess(cs, Seeded(7), today)

	earliest := Day(today.Add(-MaxAge))
	distinct := map[string]bool{}
	for _, a := range as {
		if a.LastAssessed.After(Day(today)) || a.LastAssessed.Before(earliest) {
			t.Errorf("%s: LastAssessed %s outside [%s, %s]", a.Control.ID, a.Date(), earliest.Format(time.DateOnly), Day(today).Format(time.DateOnly))
		}
		if a.LastAssessed != Day(a.LastAssessed) {
			t.Errorf("%s: LastAssessed %v is not a date", a.Control.ID, a.LastAssessed)
		}
		distinct[a.Date()] = true
	}
	if len(distinct) < 10 {
		t.Errorf("200 controls spread over %d dates, want more", len(distinct))
	}

	// Dating draws after the status, so statuses match the bare generator.
	for i, c := range cs {
		if got := Seeded(7).Status(c); got != as[i].Status {
			t.Errorf("%s: Status = %s, Assess = %s", c.ID, got, as[i].Status)
		}
	}

	// Generators without dates stamp today.
	if got := Assess(cs[:1], Fixed(StatusCompliant), today)[0].Date(); got != "2026-03-14" {
		t.Errorf("Fixed date = %s, want 2026-03-14", got)
	}
}

func TestTrackerCycle(t *testing.T) {
	now := today
	tr := NewTracker(controls(2), Fixed(StatusNotAssessed), func() time.Time { return now })

	now = today.Add(48 * time.Hour)
	for _, want := range []Status{StatusNonCompliant, StatusPartial, StatusCompliant, StatusNotAssessed} {
		a, err := tr.Cycle("CTL-001")
		if err != nil {
			t.Fatalf("Cycle: %v", err)
		}
		if a.Status != want || a.Date() != "2026-03-16" {
			t.Fatalf("Cycle() = %s %s, want %s 2026-03-16", a.Status, a.Date(), want)
		}
	}
	if a := tr.Assessments()[0]; a.Status != StatusNotAssessed || a.Date() != "2026-03-14" {
		t.Errorf("untouched control = %s %s", a.Status, a.Date())
	}

	if _, err := tr.Cycle("missing"); !errors.Is(err, errors.ErrCodeUnknownEntity) {
		t.Errorf("Cycle(missing) code = %v, want %v", errors.GetCode(err), errors.ErrCodeUnknownEntity)
	}
}

func TestTrackerConcurrent(t *testing.T) {
	tr := NewTracker(controls(1), Fixed(StatusNotAssessed), nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = tr.Cycle("CTL-000")
			_ = tr.Assessments()
		}()
	}
	wg.Wait()

	// Eight steps around a four-status cycle lands where it started.
	if got := tr.Assessments()[0].Status; got != StatusNotAssessed {
		t.Errorf("Status = %s, want %s", got, StatusNotAssessed)
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{"compliant", StatusCompliant, false},
		{"non_compliant", StatusNonCompliant, false},
		{"non-compliant", StatusNonCompliant, false},
		{"not-assessed", StatusNotAssessed, false},
		{"green", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseStatus(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseStatus(%q) = (%q, %v), want %q", tt.in, got, err, tt.want)
		}
	}
}
