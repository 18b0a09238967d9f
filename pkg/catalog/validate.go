package catalog

import (
	"fmt"
	"math"

	"github.com/matzehuels/controlgraph/pkg/errors"
)

// Validate checks the catalog for problems that make it unusable: empty or
// duplicate framework IDs, unknown categories, and relation strengths
// outside [0,1]. Dangling references are not errors; see [Catalog.Integrity].
func (c *Catalog) Validate() error {
	seen := make(map[string]bool, len(c.Frameworks))
	for i, f := range c.Frameworks {
		if err := errors.ValidateID(f.ID); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidCatalog, err, "framework #%d", i)
		}
		if seen[f.ID] {
			return errors.New(errors.ErrCodeInvalidCatalog, "duplicate framework id: %s", f.ID)
		}
		seen[f.ID] = true
		if !f.Category.Valid() {
			return errors.New(errors.ErrCodeInvalidCatalog, "framework %s: unknown category %q", f.ID, f.Category)
		}
		if f.RelationCount < 0 || f.ControlCount < 0 {
			return errors.New(errors.ErrCodeInvalidCatalog, "framework %s: negative count", f.ID)
		}
	}

	for i, r := range c.Relations {
		if math.IsNaN(r.Strength) || r.Strength < 0 || r.Strength > 1 {
			return errors.New(errors.ErrCodeInvalidCatalog, "relation #%d (%s–%s): strength %v outside [0,1]", i, r.Source, r.Target, r.Strength)
		}
	}

	if err := uniqueIDs("control", c.Controls, func(x Control) string { return x.ID }); err != nil {
		return err
	}
	if err := uniqueIDs("domain", c.Domains, func(x Domain) string { return x.ID }); err != nil {
		return err
	}
	for _, ctl := range c.Controls {
		for _, m := range ctl.Mappings {
			if m.Framework == "" {
				return errors.New(errors.ErrCodeInvalidCatalog, "control %s: mapping without framework", ctl.ID)
			}
		}
	}
	return nil
}

func uniqueIDs[T any](what string, items []T, id func(T) string) error {
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		key := id(it)
		if key == "" {
			return errors.New(errors.ErrCodeInvalidCatalog, "%s with empty id", what)
		}
		if seen[key] {
			return errors.New(errors.ErrCodeInvalidCatalog, "duplicate %s id: %s", what, key)
		}
		seen[key] = true
	}
	return nil
}

// Issue is a non-fatal integrity problem.
type Issue struct {
	Kind    string `json:"kind"` // "relation", "control"
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s %s: %s", i.Kind, i.Subject, i.Message)
}

// Integrity reports dangling references. Relations listed here are skipped
// by the layout engine rather than failing it.
func (c *Catalog) Integrity() []Issue {
	known := make(map[string]bool, len(c.Frameworks))
	for _, f := range c.Frameworks {
		known[f.ID] = true
	}

	var issues []Issue
	for i, r := range c.Relations {
		subject := fmt.Sprintf("#%d %s–%s", i, r.Source, r.Target)
		switch {
		case !known[r.Source]:
			issues = append(issues, Issue{Kind: "relation", Subject: subject, Message: "unknown source " + r.Source})
		case !known[r.Target]:
			issues = append(issues, Issue{Kind: "relation", Subject: subject, Message: "unknown target " + r.Target})
		case r.Source == r.Target:
			issues = append(issues, Issue{Kind: "relation", Subject: subject, Message: "self-relation"})
		}
	}

	domains := make(map[string]bool, len(c.Domains))
	for _, d := range c.Domains {
		domains[d.ID] = true
	}
	for _, ctl := range c.Controls {
		if len(c.Domains) > 0 && !domains[ctl.Domain] {
			issues = append(issues, Issue{Kind: "control", Subject: ctl.ID, Message: "unknown domain " + ctl.Domain})
		}
		for _, m := range ctl.Mappings {
			if !known[m.Framework] {
				issues = append(issues, Issue{Kind: "control", Subject: ctl.ID, Message: "unknown framework " + m.Framework})
			}
		}
	}
	return issues
}
