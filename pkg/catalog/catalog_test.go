package catalog

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/controlgraph/pkg/errors"
)

func sample() *Catalog {
	return &Catalog{
		Frameworks: []Framework{
			{ID: "a", ShortName: "A", Category: CategoryIndustry},
			{ID: "b", Category: CategoryRegional},
			{ID: "c", Category: CategoryUSFederal},
			{ID: "d", Category: CategoryUSState},
		},
		Relations: []Relation{
			{Source: "c", Target: "a", Strength: 0.4},
			{Source: "a", Target: "b", Strength: 0.5},
			{Source: "b", Target: "a", Strength: 0.9},
			{Source: "a", Target: "zz", Strength: 0.1},
		},
	}
}

func TestDefault(t *testing.T) {
	c := Default()

	if got := len(c.Frameworks); got != 28 {
		t.Errorf("frameworks = %d, want 28", got)
	}
	if got := len(c.Relations); got != 20 {
		t.Errorf("relations = %d, want 20", got)
	}
	if got := len(c.Domains); got != 32 {
		t.Errorf("domains = %d, want 32", got)
	}
	if got := len(c.Controls); got != 8 {
		t.Errorf("controls = %d, want 8", got)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if issues := c.Integrity(); len(issues) != 0 {
		t.Errorf("Integrity() = %v, want none", issues)
	}

	iso, _ := c.Framework("iso27001")
	if iso.RelationCount != 8 {
		t.Errorf("iso27001 RelationCount = %d, want 8", iso.RelationCount)
	}
	if iso.ShortName != "ISO 27001" || iso.Region != "Global" || iso.ControlCount != 93 {
		t.Errorf("iso27001 = %+v", iso)
	}
	if sox, _ := c.Framework("sox"); sox.RelationCount != 0 {
		t.Errorf("sox RelationCount = %d, want 0", sox.RelationCount)
	}

	ctl := c.Controls[0]
	if ctl.ID != "GOV-01" || ctl.Domain != "gov" || ctl.Cadence != "Annual" || ctl.Question == "" {
		t.Errorf("Controls[0] = %+v", ctl)
	}
	if ref, ok := ctl.Reference("hipaa"); !ok || ref != "164.308(a)(1)" {
		t.Errorf("GOV-01 hipaa reference = %q, %v", ref, ok)
	}

	// Default must hand out independent copies.
	c.Frameworks[0].ShortName = "mutated"
	if Default().Frameworks[0].ShortName == "mutated" {
		t.Error("Default() shares state between calls")
	}
}

func TestNeighbors(t *testing.T) {
	c := sample()
	got := c.Neighbors("a")

	// b (0.5) outranks c (0.4); the later 0.9 a–b relation is a duplicate.
	want := []string{"b", "c"}
	if len(got) != len(want) {
		t.Fatalf("Neighbors(a) = %d entries, want %d", len(got), len(want))
	}
	for i, n := range got {
		if n.Framework.ID != want[i] {
			t.Errorf("Neighbors(a)[%d] = %s, want %s", i, n.Framework.ID, want[i])
		}
	}
	if got[0].Strength != 0.5 {
		t.Errorf("first a–b relation strength = %v, want 0.5", got[0].Strength)
	}
	if n := c.Neighbors("d"); len(n) != 0 {
		t.Errorf("Neighbors(d) = %v, want empty", n)
	}
}

func TestNeighborsByStrength(t *testing.T) {
	got := Default().Neighbors("nist80053")

	// iso27001 and nist800171 tie at 0.85 and keep relation order.
	want := []struct {
		id       string
		strength float64
	}{
		{"fedramp", 0.95},
		{"nistcsf", 0.9},
		{"iso27001", 0.85},
		{"nist800171", 0.85},
		{"hipaa", 0.7},
	}
	if len(got) != len(want) {
		t.Fatalf("Neighbors(nist80053) = %d entries, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Framework.ID != w.id || got[i].Strength != w.strength {
			t.Errorf("[%d] = %s %.2f, want %s %.2f", i, got[i].Framework.ID, got[i].Strength, w.id, w.strength)
		}
	}
}

func TestQuickAccess(t *testing.T) {
	c := Default()

	tests := []struct {
		n     int
		first string
		last  string
		len   int
	}{
		{2, "iso27001", "iso27002", 2},
		{QuickAccessSize, "iso27001", "hipaa", 12},
		{0, "iso27001", "txramp", 28},
		{100, "iso27001", "txramp", 28},
	}
	for _, tt := range tests {
		got := c.QuickAccess(tt.n)
		if len(got) != tt.len {
			t.Fatalf("QuickAccess(%d) returned %d, want %d", tt.n, len(got), tt.len)
		}
		if got[0].ID != tt.first || got[len(got)-1].ID != tt.last {
			t.Errorf("QuickAccess(%d) = [%s .. %s], want [%s .. %s]", tt.n, got[0].ID, got[len(got)-1].ID, tt.first, tt.last)
		}
	}

	// Catalog order, not relation count: nist80053 has more relations than
	// iso27002 but comes later.
	got := c.QuickAccess(QuickAccessSize)
	for i, f := range got {
		if f.ID != c.Frameworks[i].ID {
			t.Errorf("QuickAccess[%d] = %s, want %s", i, f.ID, c.Frameworks[i].ID)
		}
	}
}

func TestCategoryTitle(t *testing.T) {
	tests := []struct {
		in   Category
		want string
	}{
		{CategoryInternational, "International"},
		{CategoryUSFederal, "US Federal"},
		{CategoryUSState, "US State"},
		{CategoryRegional, "Regional"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := tt.in.Title(); got != tt.want {
			t.Errorf("%q.Title() = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Catalog)
		wantErr bool
	}{
		{"valid", func(c *Catalog) {}, false},
		{"dangling relation is not fatal", func(c *Catalog) {
			c.Relations = append(c.Relations, Relation{Source: "x", Target: "y", Strength: 0.2})
		}, false},
		{"duplicate id", func(c *Catalog) {
			c.Frameworks = append(c.Frameworks, Framework{ID: "a", Category: CategoryIndustry})
		}, true},
		{"empty id", func(c *Catalog) { c.Frameworks[0].ID = "" }, true},
		{"unknown category", func(c *Catalog) { c.Frameworks[0].Category = "misc" }, true},
		{"strength too high", func(c *Catalog) { c.Relations[0].Strength = 1.5 }, true},
		{"negative strength", func(c *Catalog) { c.Relations[0].Strength = -0.1 }, true},
		{"duplicate control", func(c *Catalog) {
			c.Controls = []Control{{ID: "x"}, {ID: "x"}}
		}, true},
		{"negative control count", func(c *Catalog) { c.Frameworks[0].ControlCount = -1 }, true},
		{"mapping without framework", func(c *Catalog) {
			c.Controls = []Control{{ID: "x", Mappings: []Mapping{{Reference: "1.1"}}}}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := sample()
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidCatalog) {
				t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidCatalog)
			}
		})
	}
}

func TestIntegrity(t *testing.T) {
	c := sample()
	c.Relations = append(c.Relations, Relation{Source: "d", Target: "d", Strength: 1})
	c.Controls = []Control{{ID: "ctl", Mappings: []Mapping{{Framework: "a"}, {Framework: "nope"}}}}

	issues := c.Integrity()
	if len(issues) != 3 {
		t.Fatalf("Integrity() = %v, want 3 issues", issues)
	}
	if !strings.Contains(issues[0].Message, "zz") {
		t.Errorf("issue[0] = %v, want unknown target zz", issues[0])
	}
	if issues[1].Message != "self-relation" {
		t.Errorf("issue[1] = %v, want self-relation", issues[1])
	}
	if issues[2].Kind != "control" {
		t.Errorf("issue[2].Kind = %s, want control", issues[2].Kind)
	}
}

func TestDecodeFormats(t *testing.T) {
	tests := []struct {
		name   string
		format string
		input  string
	}{
		{
			name:   "toml",
			format: FormatTOML,
			input: `
[[frameworks]]
id = "a"
category = "industry"

[[frameworks]]
id = "b"
category = "regional"

[[relations]]
source = "a"
target = "b"
strength = 0.5
`,
		},
		{
			name:   "yaml",
			format: FormatYAML,
			input: `
frameworks:
  - id: a
    category: industry
  - id: b
    category: regional
relations:
  - source: a
    target: b
    strength: 0.5
`,
		},
		{
			name:   "json",
			format: FormatJSON,
			input: `{"frameworks":[{"id":"a","category":"industry"},{"id":"b","category":"regional"}],
"relations":[{"source":"a","target":"b","strength":0.5}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Decode(strings.NewReader(tt.input), tt.format)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if len(c.Frameworks) != 2 || len(c.Relations) != 1 {
				t.Fatalf("got %d frameworks, %d relations", len(c.Frameworks), len(c.Relations))
			}
			if c.Frameworks[0].RelationCount != 1 {
				t.Errorf("derived RelationCount = %d, want 1", c.Frameworks[0].RelationCount)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := Decode(strings.NewReader("not = [valid"), FormatTOML); !errors.Is(err, errors.ErrCodeInvalidCatalog) {
		t.Errorf("bad toml: code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidCatalog)
	}
	if _, err := Decode(strings.NewReader(""), "csv"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("csv: code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidFormat)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	var buf bytes.Buffer
	if err := Default().WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	path := filepath.Join(dir, "catalog.json")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.Frameworks) != len(Default().Frameworks) {
		t.Errorf("frameworks = %d, want %d", len(c.Frameworks), len(Default().Frameworks))
	}

	if _, err := Load(filepath.Join(dir, "missing.toml")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file: code = %v, want %v", errors.GetCode(err), errors.ErrCodeFileNotFound)
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"a.toml", FormatTOML},
		{"a.YAML", FormatYAML},
		{"a.yml", FormatYAML},
		{"a.json", FormatJSON},
		{"a", FormatTOML},
	}
	for _, tt := range tests {
		if got := FormatFromPath(tt.path); got != tt.want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
