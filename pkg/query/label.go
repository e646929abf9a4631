package query

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/devicelab-dev/domquery/pkg/core"
	"github.com/devicelab-dev/domquery/pkg/dom"
	"github.com/devicelab-dev/domquery/pkg/logger"
)

// ResolveLabels maps label elements to the controls they label. The first
// label that cannot be resolved aborts the batch and its error is returned
// unchanged. Elements that are not labels are ignored.
func ResolveLabels(labels []dom.Element) ([]dom.Element, error) {
	var out []dom.Element
	for _, l := range labels {
		if !l.Is(atom.Label) {
			continue
		}
		target, err := resolveLabel(l)
		if err != nil {
			return nil, err
		}
		out = append(out, target)
	}
	return out, nil
}

// ResolveEachLabel is ResolveLabels with per-label failure: a label whose
// target is missing or ambiguous contributes nothing, the rest still
// resolve.
func ResolveEachLabel(labels []dom.Element) []dom.Element {
	var out []dom.Element
	for _, l := range labels {
		if !l.Is(atom.Label) {
			continue
		}
		target, err := resolveLabel(l)
		if err != nil {
			logger.Debug("label %s skipped: %v", l, err)
			continue
		}
		out = append(out, target)
	}
	return out
}

// resolveLabel follows the for attribute through a by-id lookup over the
// label's whole document. A label without for labels its first nested
// control.
func resolveLabel(l dom.Element) (dom.Element, error) {
	if id, ok := l.Attr("for"); ok {
		return Reduce(allByID(treeRoot(l.Node()), id, true), core.StrategyID, id)
	}
	if controls := dom.FormControls(l.Node()); len(controls) > 0 {
		return controls[0], nil
	}
	return dom.Element{}, core.NotFound(core.NewDescriptor(core.StrategyLabel, l.Text()))
}

func treeRoot(n *html.Node) *html.Node {
	for n.Parent != nil {
		n = n.Parent
	}
	return n
}
