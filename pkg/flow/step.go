package flow

import (
	"fmt"
	"strings"

	"github.com/devicelab-dev/domquery/pkg/core"
)

// StepType represents the type of step.
type StepType string

// Step type constants.
const (
	// Singular queries
	StepGetByText         StepType = "getByText"
	StepGetByID           StepType = "getById"
	StepGetByLabel        StepType = "getByLabel"
	StepGetByDisplayValue StepType = "getByDisplayValue"
	StepGetByRole         StepType = "getByRole"
	StepGetByPlaceholder  StepType = "getByPlaceholder"

	// Plural queries
	StepGetAllByText         StepType = "getAllByText"
	StepGetAllByID           StepType = "getAllById"
	StepGetAllByLabel        StepType = "getAllByLabel"
	StepGetAllByDisplayValue StepType = "getAllByDisplayValue"
	StepGetAllByRole         StepType = "getAllByRole"
	StepGetAllByPlaceholder  StepType = "getAllByPlaceholder"

	// Interaction & assertions
	StepSetDisplayValue StepType = "setDisplayValue"
	StepAssertText      StepType = "assertText"
)

// queryStepBases maps query step types to the strategy base they run.
var queryStepBases = map[StepType]string{
	StepGetByText:            "text",
	StepGetByID:              "id",
	StepGetByLabel:           "label",
	StepGetByDisplayValue:    "display_value",
	StepGetByRole:            "role",
	StepGetByPlaceholder:     "placeholder",
	StepGetAllByText:         "text",
	StepGetAllByID:           "id",
	StepGetAllByLabel:        "label",
	StepGetAllByDisplayValue: "display_value",
	StepGetAllByRole:         "role",
	StepGetAllByPlaceholder:  "placeholder",
}

// IsQuery reports whether t is a getBy or getAllBy step.
func (t StepType) IsQuery() bool {
	_, ok := queryStepBases[t]
	return ok
}

// IsPlural reports whether t is a getAllBy step.
func (t StepType) IsPlural() bool {
	return t.IsQuery() && strings.HasPrefix(string(t), "getAllBy")
}

// Expectation is what a query step expects of its singular result.
type Expectation string

// Expectations.
const (
	ExpectFound       Expectation = "found"
	ExpectNotFound    Expectation = "notFound"
	ExpectMoreThanOne Expectation = "moreThanOne"
)

// IsValid reports whether e is a known expectation. Empty means found.
func (e Expectation) IsValid() bool {
	switch e {
	case "", ExpectFound, ExpectNotFound, ExpectMoreThanOne:
		return true
	}
	return false
}

// Step is the interface for all flow steps.
type Step interface {
	Type() StepType
	IsOptional() bool
	Label() string
	Describe() string
}

// BaseStep contains common fields for all steps.
type BaseStep struct {
	StepType  StepType `yaml:"-"`
	Optional  bool     `yaml:"optional"`
	StepLabel string   `yaml:"label"`
}

// Type returns the step type.
func (b *BaseStep) Type() StepType { return b.StepType }

// IsOptional returns whether the step is optional.
func (b *BaseStep) IsOptional() bool { return b.Optional }

// Label returns the step label.
func (b *BaseStep) Label() string { return b.StepLabel }

// Describe returns a human-readable description.
func (b *BaseStep) Describe() string { return string(b.StepType) }

// ============================================
// Query Steps
// ============================================

// QueryStep runs one getBy or getAllBy query.
type QueryStep struct {
	BaseStep `yaml:",inline"`
	Target   Target      `yaml:",inline"`
	Expect   Expectation `yaml:"expect"`
	Count    *int        `yaml:"count"` // Exact match count, plural steps only
}

// Strategy returns the strategy the step runs, or "" when the step type
// has no variant for the contains flag.
func (s *QueryStep) Strategy() core.Strategy {
	st, ok := core.StrategyFor(queryStepBases[s.StepType], s.Target.Contains)
	if !ok {
		return ""
	}
	return st
}

// Expectation returns the expectation, defaulting to found.
func (s *QueryStep) Expectation() Expectation {
	if s.Expect == "" {
		return ExpectFound
	}
	return s.Expect
}

// Describe returns a human-readable description.
func (s *QueryStep) Describe() string {
	d := fmt.Sprintf("%s %q", s.StepType, s.Target.Query)
	if s.Target.Contains {
		d += " (contains)"
	}
	if s.Target.Within != "" {
		d += " within #" + s.Target.Within
	}
	return d
}

// ============================================
// Interaction & Assertion Steps
// ============================================

// SetDisplayValueStep changes what a form control shows.
type SetDisplayValueStep struct {
	BaseStep `yaml:",inline"`
	Target   Target `yaml:",inline"`
	Value    string `yaml:"value"`
}

// Describe returns a human-readable description.
func (s *SetDisplayValueStep) Describe() string {
	return fmt.Sprintf("setDisplayValue %s = %q", s.Target.Describe(), s.Value)
}

// AssertTextStep checks the rendered text of one element.
type AssertTextStep struct {
	BaseStep     `yaml:",inline"`
	Target       Target  `yaml:",inline"`
	Equals       *string `yaml:"equals"`
	TextContains string  `yaml:"textContains"`
}

// Describe returns a human-readable description.
func (s *AssertTextStep) Describe() string {
	switch {
	case s.Equals != nil:
		return fmt.Sprintf("assertText %s == %q", s.Target.Describe(), *s.Equals)
	case s.TextContains != "":
		return fmt.Sprintf("assertText %s contains %q", s.Target.Describe(), s.TextContains)
	default:
		return "assertText " + s.Target.Describe()
	}
}
