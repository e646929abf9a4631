package query

import (
	"github.com/devicelab-dev/domquery/pkg/core"
	"github.com/devicelab-dev/domquery/pkg/dom"
)

// Reduce turns the result of a plural query into the singular answer: the
// only candidate, or NotFound / MoreThanOne tagged with strategy and q.
func Reduce(candidates []dom.Element, strategy core.Strategy, q string) (dom.Element, error) {
	switch len(candidates) {
	case 0:
		return dom.Element{}, core.NotFound(core.NewDescriptor(strategy, q))
	case 1:
		return candidates[0], nil
	default:
		return dom.Element{}, core.MoreThanOne(core.NewDescriptor(strategy, q))
	}
}
