package dom

import (
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html"
)

// Precompiled selectors over a query root. All of them exclude the root
// itself, matching querySelectorAll.
var (
	descendantElements = xpath.MustCompile(".//*")
	formControls       = xpath.MustCompile(".//*[self::input or self::textarea or self::select]")
)

// SelectAll evaluates a compiled expression against root and returns the
// element matches in document order. Non-element matches are skipped.
func SelectAll(root *html.Node, expr *xpath.Expr) []Element {
	if root == nil {
		return nil
	}
	var out []Element
	for _, n := range htmlquery.QuerySelectorAll(root, expr) {
		if n.Type == html.ElementNode {
			out = append(out, Element{node: n})
		}
	}
	return out
}

// Select compiles expr and evaluates it like SelectAll.
func Select(root *html.Node, expr string) ([]Element, error) {
	compiled, err := xpath.Compile(expr)
	if err != nil {
		return nil, err
	}
	return SelectAll(root, compiled), nil
}

// Descendants returns every element below root in document order.
func Descendants(root *html.Node) []Element {
	return SelectAll(root, descendantElements)
}

// FormControls returns every input, textarea and select below root.
func FormControls(root *html.Node) []Element {
	return SelectAll(root, formControls)
}

// AttrEquals builds the expression for elements below the root whose
// attribute name equals value, the XPath form of [name='value'].
func AttrEquals(name, value string) string {
	return ".//*[@" + name + "=" + Literal(value) + "]"
}

// Literal quotes s as an XPath string literal. XPath 1.0 has no escapes, so
// a string holding both quote kinds is built with concat().
func Literal(s string) string {
	if !strings.Contains(s, `'`) {
		return `'` + s + `'`
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, `'`)
	var b strings.Builder
	b.WriteString("concat(")
	for i, p := range parts {
		if i > 0 {
			b.WriteString(`, "'", `)
		}
		b.WriteString(`'` + p + `'`)
	}
	b.WriteString(")")
	return b.String()
}
