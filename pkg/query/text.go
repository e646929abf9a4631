package query

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/devicelab-dev/domquery/pkg/dom"
)

// FindParentsExact maps each text node to its nearest element ancestor and
// keeps the ancestors whose rendered text equals q. Rendered text has its
// whitespace collapsed, see dom.Element.RenderedText.
func FindParentsExact(textNodes []*html.Node, q string) []dom.Element {
	return findParents(textNodes, func(n *html.Node, parent dom.Element) bool {
		return parent.RenderedText() == q
	})
}

// FindParentsContaining keeps the nearest element ancestor of each text
// node that itself contains q, provided the ancestor's rendered text also
// contains q.
func FindParentsContaining(textNodes []*html.Node, q string) []dom.Element {
	return findParents(textNodes, func(n *html.Node, parent dom.Element) bool {
		return strings.Contains(n.Data, q) && strings.Contains(parent.RenderedText(), q)
	})
}

// findParents keeps the first occurrence of each element. Several text
// nodes can share one parent, e.g. text split by a comment or by a child
// element.
func findParents(textNodes []*html.Node, keep func(*html.Node, dom.Element) bool) []dom.Element {
	var out []dom.Element
	seen := make(map[*html.Node]bool)
	for _, n := range textNodes {
		parent, ok := dom.ParentElement(n)
		if !ok || seen[parent.Node()] {
			continue
		}
		if keep(n, parent) {
			seen[parent.Node()] = true
			out = append(out, parent)
		}
	}
	return out
}
