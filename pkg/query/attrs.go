package query

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/devicelab-dev/domquery/pkg/core"
	"github.com/devicelab-dev/domquery/pkg/dom"
)

// matchFunc compares a candidate string against the query.
type matchFunc func(got, q string) bool

func equals(got, q string) bool { return got == q }

func matcher(exact bool) matchFunc {
	if exact {
		return equals
	}
	return strings.Contains
}

func filter(candidates []dom.Element, keep func(dom.Element) bool) []dom.Element {
	var out []dom.Element
	for _, e := range candidates {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func allByID(root *html.Node, q string, exact bool) []dom.Element {
	match := matcher(exact)
	return filter(dom.Descendants(root), func(e dom.Element) bool {
		id, ok := e.Attr("id")
		return ok && match(id, q)
	})
}

func allByRole(root *html.Node, q string) []dom.Element {
	found, err := dom.Select(root, dom.AttrEquals("role", q))
	if err != nil {
		// Literal quoting makes every role query a valid expression.
		panic(core.ContractViolation("role selector for %q: %v", q, err))
	}
	return found
}

func allByPlaceholder(root *html.Node, q string, exact bool) []dom.Element {
	match := matcher(exact)
	return filter(dom.FormControls(root), func(e dom.Element) bool {
		p, ok := e.Placeholder()
		return ok && match(p, q)
	})
}

func allByDisplayValue(root *html.Node, q string, exact bool) []dom.Element {
	match := matcher(exact)
	return filter(dom.FormControls(root), func(e dom.Element) bool {
		v, ok := e.DisplayValue()
		return ok && match(v, q)
	})
}

func allByText(root *html.Node, q string, exact bool) []dom.Element {
	nodes := CollectTextNodes(root)
	if exact {
		return FindParentsExact(nodes, q)
	}
	return FindParentsContaining(nodes, q)
}
