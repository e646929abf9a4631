package flow

import (
	"fmt"

	"github.com/devicelab-dev/domquery/pkg/core"
)

// Target names the element a step works on. Pure data structure: the
// executor decides how to run it. A scalar step value is the query.
type Target struct {
	By       string `yaml:"by"`       // Strategy base: text, id, label, display-value, role, placeholder
	Query    string `yaml:"query"`    // What to look for
	Contains bool   `yaml:"contains"` // Substring instead of exact match
	Within   string `yaml:"within"`   // Id of an element that scopes the query
}

// Strategy resolves By and Contains. An empty By means text.
func (t *Target) Strategy() (core.Strategy, error) {
	by := t.By
	if by == "" {
		by = "text"
	}
	s, ok := core.StrategyFor(by, t.Contains)
	if !ok {
		if t.Contains {
			return "", fmt.Errorf("strategy %q has no contains variant", by)
		}
		return "", fmt.Errorf("unknown strategy %q", by)
	}
	return s, nil
}

// IsEmpty returns true if nothing is being looked for.
func (t *Target) IsEmpty() bool {
	return t.Query == ""
}

// Describe returns a quoted description like by_label="Email".
func (t *Target) Describe() string {
	s, err := t.Strategy()
	if err != nil {
		return fmt.Sprintf("%s=%q", t.By, t.Query)
	}
	d := core.NewDescriptor(s, t.Query).String()
	if t.Within != "" {
		d += " within #" + t.Within
	}
	return d
}
