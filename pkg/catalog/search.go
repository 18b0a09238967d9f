package catalog

import (
	"strings"
)

// Query filters the resource browser. Zero-valued fields match everything;
// set fields are combined with AND.
type Query struct {
	Text     string   // case-insensitive substring
	Category Category // limits frameworks to one category; domains are unaffected
}

// IsZero reports whether the query matches everything.
func (q Query) IsZero() bool {
	return strings.TrimSpace(q.Text) == "" && q.Category == ""
}

// CategoryGroup is a run of frameworks sharing a category.
type CategoryGroup struct {
	Category   Category    `json:"category"`
	Title      string      `json:"title"`
	Frameworks []Framework `json:"frameworks"`
}

// DomainMatch is a domain with the number of sample controls it holds.
type DomainMatch struct {
	Domain   Domain `json:"domain"`
	Controls int    `json:"controls"`
}

// SearchResult is the resource browser listing.
type SearchResult struct {
	Frameworks []CategoryGroup `json:"frameworks"`
	Domains    []DomainMatch   `json:"domains"`
}

// Len returns the number of matched frameworks and domains.
func (r SearchResult) Len() int {
	n := len(r.Domains)
	for _, g := range r.Frameworks {
		n += len(g.Frameworks)
	}
	return n
}

// SearchFrameworks returns the frameworks whose name, short name or
// description contains text, in catalog order.
func (c *Catalog) SearchFrameworks(text string) []Framework {
	needle := strings.ToLower(strings.TrimSpace(text))
	var out []Framework
	for _, f := range c.Frameworks {
		if needle == "" || containsAny(needle, f.Name, f.ShortName, f.Description) {
			out = append(out, f)
		}
	}
	return out
}

// SearchDomains returns the domains whose name, identifier or principle
// contains text, in catalog order.
func (c *Catalog) SearchDomains(text string) []Domain {
	needle := strings.ToLower(strings.TrimSpace(text))
	var out []Domain
	for _, d := range c.Domains {
		if needle == "" || containsAny(needle, d.Name, d.Identifier, d.Principle) {
			out = append(out, d)
		}
	}
	return out
}

// Search runs both searches. Frameworks are grouped in [Categories] order
// and empty groups are omitted.
func (c *Catalog) Search(q Query) SearchResult {
	var res SearchResult

	byCategory := make(map[Category][]Framework)
	for _, f := range c.SearchFrameworks(q.Text) {
		if q.Category != "" && f.Category != q.Category {
			continue
		}
		byCategory[f.Category] = append(byCategory[f.Category], f)
	}
	for _, cat := range Categories {
		if fws := byCategory[cat]; len(fws) > 0 {
			res.Frameworks = append(res.Frameworks, CategoryGroup{Category: cat, Title: cat.Title(), Frameworks: fws})
		}
	}

	for _, d := range c.SearchDomains(q.Text) {
		res.Domains = append(res.Domains, DomainMatch{Domain: d, Controls: c.domainControlCount(d)})
	}
	return res
}

// domainControlCount counts sample controls whose ID starts with the
// domain identifier.
func (c *Catalog) domainControlCount(d Domain) int {
	if d.Identifier == "" {
		return 0
	}
	prefix := d.Identifier + "-"
	n := 0
	for _, ctl := range c.Controls {
		if strings.HasPrefix(ctl.ID, prefix) {
			n++
		}
	}
	return n
}

func containsAny(lowerNeedle string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), lowerNeedle) {
			return true
		}
	}
	return false
}

// ControlsFor returns the controls mapped to the framework, in catalog order.
func (c *Catalog) ControlsFor(frameworkID string) []Control {
	var out []Control
	for _, ctl := range c.Controls {
		if ctl.MapsTo(frameworkID) {
			out = append(out, ctl)
		}
	}
	return out
}
