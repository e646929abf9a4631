// Package dom is the host side of domquery: it owns parsing markup into a
// golang.org/x/net/html tree and exposes the read API the query engine needs
// (tag, attributes, parent, rendered text, display values, selector
// evaluation). The query engine never creates or frees nodes; it only reads
// them through this package.
package dom

import (
	"io"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/devicelab-dev/domquery/pkg/core"
)

// Document wraps a parsed HTML document node.
type Document struct {
	root *html.Node
}

// Parse reads markup into a new document. Fragments are placed in <body>
// the way a browser would.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return &Document{root: root}, nil
}

// ParseString is Parse over a string.
func ParseString(markup string) (*Document, error) {
	return Parse(strings.NewReader(markup))
}

// NewDocument wraps an existing document node. A nil or non-document node
// breaks the host contract and panics.
func NewDocument(root *html.Node) *Document {
	if root == nil || root.Type != html.DocumentNode {
		panic(core.ContractViolation("expected a document node, got %s", describeNode(root)))
	}
	return &Document{root: root}
}

// Node returns the underlying document node.
func (d *Document) Node() *html.Node { return d.root }

// QueryRoot returns the node queries are evaluated against.
func (d *Document) QueryRoot() *html.Node { return d.root }

// Body returns the <body> element.
func (d *Document) Body() (Element, bool) {
	n := htmlquery.FindOne(d.root, "//body")
	if n == nil {
		return Element{}, false
	}
	return Wrap(n), true
}

// HTML renders the whole document.
func (d *Document) HTML() string {
	return htmlquery.OutputHTML(d.root, true)
}

// Element is a handle on one element node. Handles compare equal with ==
// exactly when they refer to the same node. The zero Element refers to
// nothing.
type Element struct {
	node *html.Node
}

// Wrap builds a handle for an element node. Anything else is a host
// contract violation and panics.
func Wrap(n *html.Node) Element {
	if n == nil || n.Type != html.ElementNode {
		panic(core.ContractViolation("expected an element node, got %s", describeNode(n)))
	}
	return Element{node: n}
}

// IsZero reports whether e refers to no node.
func (e Element) IsZero() bool { return e.node == nil }

// Node returns the underlying element node.
func (e Element) Node() *html.Node { return e.node }

// QueryRoot scopes queries to this element's subtree.
func (e Element) QueryRoot() *html.Node { return e.node }

// TagName returns the lower-case tag name.
func (e Element) TagName() string { return e.node.Data }

// Is reports whether the element has the given tag.
func (e Element) Is(tag atom.Atom) bool {
	return e.node.DataAtom == tag || (e.node.DataAtom == 0 && e.node.Data == tag.String())
}

// Attr returns the value of an attribute and whether it is present.
func (e Element) Attr(name string) (string, bool) {
	return attr(e.node, name)
}

// ID returns the id attribute, or "" when absent.
func (e Element) ID() string {
	id, _ := e.Attr("id")
	return id
}

// Role returns the role attribute, or "" when absent.
func (e Element) Role() string {
	role, _ := e.Attr("role")
	return role
}

// Parent returns the nearest element ancestor.
func (e Element) Parent() (Element, bool) {
	return ParentElement(e.node)
}

// Text returns what a user reads inside the element: every descendant text
// node concatenated in document order.
func (e Element) Text() string {
	return htmlquery.InnerText(e.node)
}

// RenderedText is Text with whitespace runs collapsed to one space and the
// ends trimmed, so indentation in the source does not count.
func (e Element) RenderedText() string {
	return collapseSpace(e.Text())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// OuterHTML renders the element with its subtree.
func (e Element) OuterHTML() string {
	return htmlquery.OutputHTML(e.node, true)
}

// String is a short description used in logs and reports.
func (e Element) String() string {
	if e.node == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString("<")
	b.WriteString(e.node.Data)
	if id := e.ID(); id != "" {
		b.WriteString(` id="` + id + `"`)
	}
	b.WriteString(">")
	return b.String()
}

// ParentElement returns the nearest ancestor of n that is an element.
func ParentElement(n *html.Node) (Element, bool) {
	if n == nil {
		return Element{}, false
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode {
			return Element{node: p}, true
		}
		if p.Type == html.DocumentNode {
			break
		}
	}
	return Element{}, false
}

// Attr reads an attribute of any node.
func Attr(n *html.Node, name string) (string, bool) {
	return attr(n, name)
}

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, name, value string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

func removeAttr(n *html.Node, name string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			continue
		}
		kept = append(kept, a)
	}
	n.Attr = kept
}

func describeNode(n *html.Node) string {
	if n == nil {
		return "nil"
	}
	switch n.Type {
	case html.TextNode:
		return "text node"
	case html.DocumentNode:
		return "document node"
	case html.CommentNode:
		return "comment node"
	case html.DoctypeNode:
		return "doctype node"
	case html.ElementNode:
		return "<" + n.Data + "> element"
	default:
		return "unknown node"
	}
}
