package catalog

import (
	"cmp"
	"slices"
	"strings"
)

// =============================================================================
// Categories
// =============================================================================

// Category tags a framework for colouring and grouping. It plays no part in
// layout.
type Category string

// Framework categories.
const (
	CategoryInternational Category = "international"
	CategoryUSFederal     Category = "us-federal"
	CategoryUSState       Category = "us-state"
	CategoryIndustry      Category = "industry"
	CategoryRegional      Category = "regional"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryInternational,
	CategoryUSFederal,
	CategoryUSState,
	CategoryIndustry,
	CategoryRegional,
}

// Valid reports whether c is one of the enumerated categories.
func (c Category) Valid() bool {
	return slices.Contains(Categories, c)
}

// Title returns the category as a heading, e.g. "US Federal".
func (c Category) Title() string {
	switch c {
	case CategoryUSFederal:
		return "US Federal"
	case CategoryUSState:
		return "US State"
	}
	s := string(c)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// =============================================================================
// Frameworks and relations
// =============================================================================

// Framework is a node of the relationship graph.
type Framework struct {
	ID        string   `json:"id" toml:"id" yaml:"id"`
	ShortName string   `json:"short_name" toml:"short_name" yaml:"short_name"` // drawn on the node
	Name      string   `json:"name" toml:"name" yaml:"name"`
	Category  Category `json:"category" toml:"category" yaml:"category"`
	Region    string   `json:"region,omitempty" toml:"region" yaml:"region"`
	// ControlCount is the number of controls the framework defines.
	ControlCount int `json:"control_count" toml:"control_count" yaml:"control_count"`
	// RelationCount is the number of frameworks it relates to. Derived from
	// the relations when zero.
	RelationCount int    `json:"relation_count" toml:"relation_count" yaml:"relation_count"`
	Description   string `json:"description,omitempty" toml:"description" yaml:"description"`
}

// DisplayLabel returns the short name if set, otherwise the ID.
func (f *Framework) DisplayLabel() string {
	if f.ShortName != "" {
		return f.ShortName
	}
	return f.ID
}

// Relation is an undirected, weighted edge between two frameworks.
// Source and Target are interchangeable; the names only record how the
// relation was written in the catalog.
type Relation struct {
	Source   string  `json:"source" toml:"source" yaml:"source"`
	Target   string  `json:"target" toml:"target" yaml:"target"`
	Strength float64 `json:"strength" toml:"strength" yaml:"strength"`
	Kind     string  `json:"kind,omitempty" toml:"kind" yaml:"kind"` // e.g. "maps-to", "derived-from"
}

// Touches reports whether id is one of the relation's endpoints.
func (r Relation) Touches(id string) bool {
	return r.Source == id || r.Target == id
}

// Other returns the endpoint opposite to id and whether id was an endpoint.
func (r Relation) Other(id string) (string, bool) {
	switch id {
	case r.Source:
		return r.Target, true
	case r.Target:
		return r.Source, true
	}
	return "", false
}

// =============================================================================
// Domains and controls
// =============================================================================

// Domain groups controls by security function.
type Domain struct {
	ID         string `json:"id" toml:"id" yaml:"id"`
	Name       string `json:"name" toml:"name" yaml:"name"`
	Identifier string `json:"identifier" toml:"identifier" yaml:"identifier"` // control ID prefix, e.g. "GOV"
	Principle  string `json:"principle,omitempty" toml:"principle" yaml:"principle"`
	Intent     string `json:"intent,omitempty" toml:"intent" yaml:"intent"`
}

// Mapping ties a control to a framework requirement.
type Mapping struct {
	Framework string `json:"framework" toml:"framework" yaml:"framework"`
	Reference string `json:"reference" toml:"reference" yaml:"reference"` // e.g. "A.5.15, A.5.16"
}

// Control is a sample security control tracked for compliance.
type Control struct {
	ID          string    `json:"id" toml:"id" yaml:"id"`
	Domain      string    `json:"domain" toml:"domain" yaml:"domain"`
	Name        string    `json:"name" toml:"name" yaml:"name"`
	Description string    `json:"description,omitempty" toml:"description" yaml:"description"`
	Question    string    `json:"question,omitempty" toml:"question" yaml:"question"`
	Cadence     string    `json:"cadence,omitempty" toml:"cadence" yaml:"cadence"`
	Mappings    []Mapping `json:"mappings" toml:"mappings" yaml:"mappings"`
}

// FrameworkIDs returns the mapped framework IDs in mapping order.
func (c *Control) FrameworkIDs() []string {
	ids := make([]string, len(c.Mappings))
	for i, m := range c.Mappings {
		ids[i] = m.Framework
	}
	return ids
}

// Reference returns the requirement reference for a framework.
func (c *Control) Reference(frameworkID string) (string, bool) {
	for _, m := range c.Mappings {
		if m.Framework == frameworkID {
			return m.Reference, true
		}
	}
	return "", false
}

// MapsTo reports whether the control is mapped to a framework.
func (c *Control) MapsTo(frameworkID string) bool {
	_, ok := c.Reference(frameworkID)
	return ok
}

// =============================================================================
// Catalog
// =============================================================================

// Catalog is the complete static data set. Slices are in catalog order,
// which is significant: it drives layout ordering and pick tie-breaking.
type Catalog struct {
	Frameworks []Framework `json:"frameworks" toml:"frameworks" yaml:"frameworks"`
	Relations  []Relation  `json:"relations" toml:"relations" yaml:"relations"`
	Domains    []Domain    `json:"domains,omitempty" toml:"domains" yaml:"domains"`
	Controls   []Control   `json:"controls,omitempty" toml:"controls" yaml:"controls"`
}

// Framework returns the framework with the given ID.
func (c *Catalog) Framework(id string) (Framework, bool) {
	for _, f := range c.Frameworks {
		if f.ID == id {
			return f, true
		}
	}
	return Framework{}, false
}

// Domain returns the domain with the given ID.
func (c *Catalog) Domain(id string) (Domain, bool) {
	for _, d := range c.Domains {
		if d.ID == id {
			return d, true
		}
	}
	return Domain{}, false
}

// Neighbor is a framework connected to another by a relation.
type Neighbor struct {
	Framework Framework `json:"framework"`
	Strength  float64   `json:"strength"`
	Kind      string    `json:"kind,omitempty"`
}

// Neighbors returns the frameworks connected to id, strongest relation
// first. Equal strengths keep relation order. Relations to unknown
// frameworks are skipped.
//
// The layout's inner ring uses relation order instead; see radial.Compute.
func (c *Catalog) Neighbors(id string) []Neighbor {
	seen := map[string]bool{id: true}
	var out []Neighbor
	for _, r := range c.Relations {
		other, ok := r.Other(id)
		if !ok || seen[other] {
			continue
		}
		f, ok := c.Framework(other)
		if !ok {
			continue
		}
		seen[other] = true
		out = append(out, Neighbor{Framework: f, Strength: r.Strength, Kind: r.Kind})
	}
	slices.SortStableFunc(out, func(a, b Neighbor) int {
		return cmp.Compare(b.Strength, a.Strength)
	})
	return out
}

// QuickAccessSize is the length of the quick access list.
const QuickAccessSize = 12

// QuickAccess returns the first n frameworks in catalog order. n <= 0
// returns all frameworks.
func (c *Catalog) QuickAccess(n int) []Framework {
	out := slices.Clone(c.Frameworks)
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// IDs returns framework IDs in catalog order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.Frameworks))
	for i, f := range c.Frameworks {
		ids[i] = f.ID
	}
	return ids
}

// deriveRelationCounts fills RelationCount for frameworks that leave it
// zero, counting distinct connected frameworks.
func (c *Catalog) deriveRelationCounts() {
	for i := range c.Frameworks {
		if c.Frameworks[i].RelationCount == 0 {
			c.Frameworks[i].RelationCount = len(c.Neighbors(c.Frameworks[i].ID))
		}
	}
}
