// Package query finds elements the way a user perceives them: by visible
// text, label, role, placeholder, displayed value or id.
//
// Every strategy comes in two forms. GetAllByX returns the matches in
// document order and never fails. GetByX is GetAllByX passed through Reduce,
// so it returns exactly one element or a *core.QueryError that is either
// NotFound or MoreThanOne.
package query

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/devicelab-dev/domquery/pkg/core"
	"github.com/devicelab-dev/domquery/pkg/dom"
)

// Holder is anything that can supply a subtree to query: a document, an
// element, or a harness screen.
type Holder interface {
	QueryRoot() *html.Node
}

// Queries carries every query scoped to one root. Types that embed it gain
// the whole query surface.
type Queries struct {
	root *html.Node
}

// Within scopes queries to h.
func Within(h Holder) Queries {
	return Queries{root: h.QueryRoot()}
}

// Root returns the node the queries run against.
func (q Queries) Root() *html.Node { return q.root }

// GetAllByText returns elements whose rendered text equals text.
func (q Queries) GetAllByText(text string) []dom.Element {
	return allByText(q.root, text, true)
}

// GetByText returns the single element whose rendered text equals text.
func (q Queries) GetByText(text string) (dom.Element, error) {
	return Reduce(q.GetAllByText(text), core.StrategyText, text)
}

// GetAllByTextContains returns elements whose rendered text contains text
// within a single text node.
func (q Queries) GetAllByTextContains(text string) []dom.Element {
	return allByText(q.root, text, false)
}

// GetByTextContains returns the single element whose text contains text.
func (q Queries) GetByTextContains(text string) (dom.Element, error) {
	return Reduce(q.GetAllByTextContains(text), core.StrategyTextContains, text)
}

// GetAllByID returns descendants whose id equals id.
func (q Queries) GetAllByID(id string) []dom.Element {
	return allByID(q.root, id, true)
}

// GetByID returns the single descendant with the given id.
func (q Queries) GetByID(id string) (dom.Element, error) {
	return Reduce(q.GetAllByID(id), core.StrategyID, id)
}

// GetAllByIDContains returns descendants whose id contains id.
func (q Queries) GetAllByIDContains(id string) []dom.Element {
	return allByID(q.root, id, false)
}

// GetByIDContains returns the single descendant whose id contains id.
func (q Queries) GetByIDContains(id string) (dom.Element, error) {
	return Reduce(q.GetAllByIDContains(id), core.StrategyIDContains, id)
}

// GetAllByLabel returns the controls labelled by labels whose text equals
// text. Labels pointing at a missing or ambiguous id are skipped.
func (q Queries) GetAllByLabel(text string) []dom.Element {
	return ResolveEachLabel(q.GetAllByText(text))
}

// GetByLabel returns the one control labelled text. A label whose target
// cannot be resolved fails the query with the by-id error of that label.
func (q Queries) GetByLabel(text string) (dom.Element, error) {
	return reduceLabels(q.GetAllByText(text), core.StrategyLabel, text)
}

// GetAllByLabelContains is GetAllByLabel with a containing text match.
func (q Queries) GetAllByLabelContains(text string) []dom.Element {
	return ResolveEachLabel(q.GetAllByTextContains(text))
}

// GetByLabelContains is GetByLabel with a containing text match.
func (q Queries) GetByLabelContains(text string) (dom.Element, error) {
	return reduceLabels(q.GetAllByTextContains(text), core.StrategyLabelContains, text)
}

// GetAllByDisplayValue returns text inputs, textareas and single selects
// currently showing value.
func (q Queries) GetAllByDisplayValue(value string) []dom.Element {
	return allByDisplayValue(q.root, value, true)
}

// GetByDisplayValue returns the single form control showing value.
func (q Queries) GetByDisplayValue(value string) (dom.Element, error) {
	return Reduce(q.GetAllByDisplayValue(value), core.StrategyDisplayValue, value)
}

// GetAllByDisplayValueContains returns form controls whose shown value
// contains value.
func (q Queries) GetAllByDisplayValueContains(value string) []dom.Element {
	return allByDisplayValue(q.root, value, false)
}

// GetByDisplayValueContains returns the single form control whose shown
// value contains value.
func (q Queries) GetByDisplayValueContains(value string) (dom.Element, error) {
	return Reduce(q.GetAllByDisplayValueContains(value), core.StrategyDisplayValueContains, value)
}

// GetAllByRole returns descendants whose role attribute equals role.
func (q Queries) GetAllByRole(role string) []dom.Element {
	return allByRole(q.root, role)
}

// GetByRole returns the single descendant with the given role.
func (q Queries) GetByRole(role string) (dom.Element, error) {
	return Reduce(q.GetAllByRole(role), core.StrategyRole, role)
}

// GetAllByPlaceholder returns text inputs and textareas whose placeholder
// equals text.
func (q Queries) GetAllByPlaceholder(text string) []dom.Element {
	return allByPlaceholder(q.root, text, true)
}

// GetByPlaceholder returns the single text input or textarea whose
// placeholder equals text.
func (q Queries) GetByPlaceholder(text string) (dom.Element, error) {
	return Reduce(q.GetAllByPlaceholder(text), core.StrategyPlaceholder, text)
}

// GetAllByPlaceholderContains returns text inputs and textareas whose
// placeholder contains text.
func (q Queries) GetAllByPlaceholderContains(text string) []dom.Element {
	return allByPlaceholder(q.root, text, false)
}

// GetByPlaceholderContains returns the single text input or textarea whose
// placeholder contains text.
func (q Queries) GetByPlaceholderContains(text string) (dom.Element, error) {
	return Reduce(q.GetAllByPlaceholderContains(text), core.StrategyPlaceholderContains, text)
}

// FindAll runs the plural query for strategy.
func (q Queries) FindAll(strategy core.Strategy, query string) ([]dom.Element, error) {
	switch strategy {
	case core.StrategyText:
		return q.GetAllByText(query), nil
	case core.StrategyTextContains:
		return q.GetAllByTextContains(query), nil
	case core.StrategyID:
		return q.GetAllByID(query), nil
	case core.StrategyIDContains:
		return q.GetAllByIDContains(query), nil
	case core.StrategyLabel:
		return q.GetAllByLabel(query), nil
	case core.StrategyLabelContains:
		return q.GetAllByLabelContains(query), nil
	case core.StrategyDisplayValue:
		return q.GetAllByDisplayValue(query), nil
	case core.StrategyDisplayValueContains:
		return q.GetAllByDisplayValueContains(query), nil
	case core.StrategyRole:
		return q.GetAllByRole(query), nil
	case core.StrategyPlaceholder:
		return q.GetAllByPlaceholder(query), nil
	case core.StrategyPlaceholderContains:
		return q.GetAllByPlaceholderContains(query), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", strategy)
	}
}

// Find runs the singular query for strategy.
func (q Queries) Find(strategy core.Strategy, query string) (dom.Element, error) {
	switch strategy {
	case core.StrategyLabel:
		return q.GetByLabel(query)
	case core.StrategyLabelContains:
		return q.GetByLabelContains(query)
	}
	all, err := q.FindAll(strategy, query)
	if err != nil {
		return dom.Element{}, err
	}
	return Reduce(all, strategy, query)
}

func reduceLabels(labels []dom.Element, strategy core.Strategy, text string) (dom.Element, error) {
	targets, err := ResolveLabels(labels)
	if err != nil {
		return dom.Element{}, err
	}
	return Reduce(targets, strategy, text)
}
