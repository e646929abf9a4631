// Package core provides the shared query model for domquery: strategies, query
// descriptors, typed query errors and the result model of a flow run.
package core

import "strings"

// Strategy names one matching rule. The value doubles as the method tag
// reported in errors (by_text, by_id_contains, ...).
type Strategy string

// Strategy constants.
const (
	StrategyText                 Strategy = "by_text"
	StrategyTextContains         Strategy = "by_text_contains"
	StrategyID                   Strategy = "by_id"
	StrategyIDContains           Strategy = "by_id_contains"
	StrategyLabel                Strategy = "by_label"
	StrategyLabelContains        Strategy = "by_label_contains"
	StrategyDisplayValue         Strategy = "by_display_value"
	StrategyDisplayValueContains Strategy = "by_display_value_contains"
	StrategyRole                 Strategy = "by_role"
	StrategyPlaceholder          Strategy = "by_placeholder"
	StrategyPlaceholderContains  Strategy = "by_placeholder_contains"
)

// Strategies lists every strategy in a stable order.
var Strategies = []Strategy{
	StrategyText, StrategyTextContains,
	StrategyID, StrategyIDContains,
	StrategyLabel, StrategyLabelContains,
	StrategyDisplayValue, StrategyDisplayValueContains,
	StrategyRole,
	StrategyPlaceholder, StrategyPlaceholderContains,
}

const containsSuffix = "_contains"

// String returns the strategy tag.
func (s Strategy) String() string { return string(s) }

// Exact reports whether the strategy compares full strings.
func (s Strategy) Exact() bool {
	return !strings.HasSuffix(string(s), containsSuffix)
}

// Base returns the strategy without its contains suffix, e.g. "text" for
// by_text_contains.
func (s Strategy) Base() string {
	return strings.TrimSuffix(strings.TrimPrefix(string(s), "by_"), containsSuffix)
}

// IsValid reports whether s is a known strategy.
func (s Strategy) IsValid() bool {
	for _, known := range Strategies {
		if s == known {
			return true
		}
	}
	return false
}

// StrategyFor resolves a base name (text, id, label, display-value,
// display_value, role, placeholder) plus the contains flag to a strategy.
// ok is false for unknown names and for role with contains, which has no
// substring form.
func StrategyFor(base string, contains bool) (Strategy, bool) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(base)), "-", "_")
	s := Strategy("by_" + name)
	if contains {
		s += containsSuffix
	}
	return s, s.IsValid()
}

// Descriptor identifies a query for error reporting. It is a value and is
// never modified after construction.
type Descriptor struct {
	Strategy Strategy `json:"strategy"`
	Query    string   `json:"query"`
	Exact    bool     `json:"exact"`
}

// NewDescriptor builds the descriptor of a query.
func NewDescriptor(strategy Strategy, query string) Descriptor {
	return Descriptor{
		Strategy: strategy,
		Query:    query,
		Exact:    strategy.Exact(),
	}
}

// String returns strategy="query".
func (d Descriptor) String() string {
	return string(d.Strategy) + "=\"" + d.Query + "\""
}
