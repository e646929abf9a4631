package dom

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/devicelab-dev/domquery/pkg/core"
)

// nonTextInputTypes are <input> types whose value attribute is not text the
// user reads or edits.
var nonTextInputTypes = map[string]bool{
	"hidden":   true,
	"checkbox": true,
	"radio":    true,
	"file":     true,
	"image":    true,
	"submit":   true,
	"reset":    true,
	"button":   true,
	"range":    true,
	"color":    true,
}

// IsTextInput reports whether n is an <input> that shows editable text.
func IsTextInput(n *html.Node) bool {
	if n.Type != html.ElementNode || n.DataAtom != atom.Input {
		return false
	}
	typ, _ := attr(n, "type")
	return !nonTextInputTypes[strings.ToLower(strings.TrimSpace(typ))]
}

// IsTextArea reports whether n is a <textarea>.
func IsTextArea(n *html.Node) bool {
	return n.Type == html.ElementNode && n.DataAtom == atom.Textarea
}

// IsSingleSelect reports whether n is a <select> without the multiple flag.
func IsSingleSelect(n *html.Node) bool {
	if n.Type != html.ElementNode || n.DataAtom != atom.Select {
		return false
	}
	_, multiple := attr(n, "multiple")
	return !multiple
}

// HasPlaceholderConcept reports whether a placeholder on n is shown to users:
// single-line text inputs and textareas.
func HasPlaceholderConcept(n *html.Node) bool {
	return IsTextInput(n) || IsTextArea(n)
}

// HasDisplayValue reports whether n has a value the user sees and edits.
// Elements carrying value for other purposes (progress, li, option) do not.
func HasDisplayValue(n *html.Node) bool {
	return IsTextInput(n) || IsTextArea(n) || IsSingleSelect(n)
}

// Placeholder returns the placeholder of a text input or textarea.
func (e Element) Placeholder() (string, bool) {
	if !HasPlaceholderConcept(e.node) {
		return "", false
	}
	return e.Attr("placeholder")
}

// DisplayValue returns the value the user sees in a form control. ok is
// false for elements without a display value.
func (e Element) DisplayValue() (value string, ok bool) {
	switch {
	case IsTextInput(e.node):
		v, _ := e.Attr("value")
		return v, true
	case IsTextArea(e.node):
		return e.Text(), true
	case IsSingleSelect(e.node):
		if opt := selectedOption(e.node); opt != nil {
			return optionValue(opt), true
		}
		return "", true
	default:
		return "", false
	}
}

// SetDisplayValue changes what the user would see in a text input,
// textarea or single-selection list. Setting a select to a value none of
// its options carries is an error, as is calling this on any other element.
func (e Element) SetDisplayValue(value string) error {
	switch {
	case IsTextInput(e.node):
		setAttr(e.node, "value", value)
		return nil
	case IsTextArea(e.node):
		for c := e.node.FirstChild; c != nil; {
			next := c.NextSibling
			e.node.RemoveChild(c)
			c = next
		}
		e.node.AppendChild(&html.Node{Type: html.TextNode, Data: value})
		return nil
	case IsSingleSelect(e.node):
		options := collectOptions(e.node)
		var target *html.Node
		for _, opt := range options {
			if optionValue(opt) == value {
				target = opt
				break
			}
		}
		if target == nil {
			return core.ContractViolation("select %s has no option with value %q", e, value)
		}
		for _, opt := range options {
			removeAttr(opt, "selected")
		}
		setAttr(target, "selected", "")
		return nil
	default:
		return core.ContractViolation(
			"expected an input, textarea or select to set a display value, got %s", e)
	}
}

// Int parses the element's text as an integer.
func (e Element) Int() (int, error) {
	return strconv.Atoi(strings.TrimSpace(e.Text()))
}

// Float parses the element's text as a float.
func (e Element) Float() (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(e.Text()), 64)
}

func collectOptions(sel *html.Node) []*html.Node {
	var options []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			if c.DataAtom == atom.Option {
				options = append(options, c)
				continue
			}
			walk(c)
		}
	}
	walk(sel)
	return options
}

// selectedOption follows the browser rule for single selects: the last
// option marked selected wins, otherwise the first option.
func selectedOption(sel *html.Node) *html.Node {
	options := collectOptions(sel)
	var chosen *html.Node
	for _, opt := range options {
		if _, ok := attr(opt, "selected"); ok {
			chosen = opt
		}
	}
	if chosen == nil && len(options) > 0 {
		chosen = options[0]
	}
	return chosen
}

func optionValue(opt *html.Node) string {
	if v, ok := attr(opt, "value"); ok {
		return v
	}
	var b strings.Builder
	for c := opt.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return collapseSpace(b.String())
}
