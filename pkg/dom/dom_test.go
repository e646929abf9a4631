package dom

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/devicelab-dev/domquery/pkg/core"
)

func mustParse(t *testing.T, markup string) *Document {
	t.Helper()
	doc, err := ParseString(markup)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	return doc
}

func byID(t *testing.T, doc *Document, id string) Element {
	t.Helper()
	for _, e := range Descendants(doc.QueryRoot()) {
		if e.ID() == id {
			return e
		}
	}
	t.Fatalf("no element with id %q", id)
	return Element{}
}

func TestParseString_FragmentGoesToBody(t *testing.T) {
	doc := mustParse(t, `<div id="a">hi</div>`)
	body, ok := doc.Body()
	if !ok {
		t.Fatal("Body() not found")
	}
	if body.TagName() != "body" {
		t.Errorf("TagName() = %q, want body", body.TagName())
	}
	if !strings.Contains(doc.HTML(), `<div id="a">hi</div>`) {
		t.Errorf("HTML() = %q", doc.HTML())
	}
}

func TestWrap_PanicsOnTextNode(t *testing.T) {
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, core.ErrContractViolation) {
			t.Errorf("recover() = %v, want contract violation", r)
		}
	}()
	Wrap(&html.Node{Type: html.TextNode, Data: "x"})
}

func TestNewDocument_PanicsOnElement(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	NewDocument(&html.Node{Type: html.ElementNode, Data: "div"})
}

func TestElement_Basics(t *testing.T) {
	doc := mustParse(t, `<section id="s" role="region"><p id="p">Hello <b>world</b></p></section>`)
	p := byID(t, doc, "p")

	if p.Text() != "Hello world" {
		t.Errorf("Text() = %q, want %q", p.Text(), "Hello world")
	}
	if !p.Is(atom.P) {
		t.Error("Is(atom.P) = false")
	}
	parent, ok := p.Parent()
	if !ok || parent.ID() != "s" {
		t.Errorf("Parent() = %v, %v", parent, ok)
	}
	if parent.Role() != "region" {
		t.Errorf("Role() = %q, want region", parent.Role())
	}
	if p.String() != `<p id="p">` {
		t.Errorf("String() = %q", p.String())
	}
	if p.OuterHTML() != `<p id="p">Hello <b>world</b></p>` {
		t.Errorf("OuterHTML() = %q", p.OuterHTML())
	}
	if p != byID(t, doc, "p") {
		t.Error("handles to the same node should compare equal")
	}
}

func TestElement_RenderedText(t *testing.T) {
	doc := mustParse(t, "<button id=\"b\">\n    Save\n\t  draft\n  </button><p id=\"e\"> </p>")

	b := byID(t, doc, "b")
	if got := b.RenderedText(); got != "Save draft" {
		t.Errorf("RenderedText() = %q, want %q", got, "Save draft")
	}
	if b.Text() == b.RenderedText() {
		t.Error("Text() should keep the source whitespace")
	}
	if got := byID(t, doc, "e").RenderedText(); got != "" {
		t.Errorf("RenderedText() of blank element = %q, want empty", got)
	}
}

func TestParentElement_StopsAtDocument(t *testing.T) {
	doc := mustParse(t, `<p>x</p>`)
	p, ok := ParentElement(doc.Node().FirstChild)
	if ok {
		t.Errorf("ParentElement(<html>) = %v, want none", p)
	}
}

func TestElement_IntFloat(t *testing.T) {
	doc := mustParse(t, `<span id="i"> 42 </span><span id="f">3.5</span><span id="x">abc</span>`)
	if n, err := byID(t, doc, "i").Int(); err != nil || n != 42 {
		t.Errorf("Int() = %d, %v", n, err)
	}
	if f, err := byID(t, doc, "f").Float(); err != nil || f != 3.5 {
		t.Errorf("Float() = %v, %v", f, err)
	}
	if _, err := byID(t, doc, "x").Int(); err == nil {
		t.Error("Int() on text should fail")
	}
}

func TestIsTextInput(t *testing.T) {
	tests := []struct {
		markup string
		want   bool
	}{
		{`<input id="e">`, true},
		{`<input id="e" type="text">`, true},
		{`<input id="e" type="email">`, true},
		{`<input id="e" type="password">`, true},
		{`<input id="e" type="Checkbox">`, false},
		{`<input id="e" type="hidden">`, false},
		{`<input id="e" type="submit">`, false},
		{`<textarea id="e"></textarea>`, false},
		{`<div id="e"></div>`, false},
	}

	for _, tt := range tests {
		t.Run(tt.markup, func(t *testing.T) {
			e := byID(t, mustParse(t, tt.markup), "e")
			if got := IsTextInput(e.Node()); got != tt.want {
				t.Errorf("IsTextInput() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDisplayValue(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
		ok     bool
	}{
		{"input", `<input id="e" value="1234">`, "1234", true},
		{"input without value", `<input id="e">`, "", true},
		{"textarea", `<textarea id="e">notes</textarea>`, "notes", true},
		{"select first option", `<select id="e"><option>One</option><option>Two</option></select>`, "One", true},
		{"select selected", `<select id="e"><option value="1">One</option><option value="2" selected>Two</option></select>`, "2", true},
		{"select in optgroup", `<select id="e"><optgroup><option selected>  A  b </option></optgroup></select>`, "A b", true},
		{"empty select", `<select id="e"></select>`, "", true},
		{"multiple select", `<select id="e" multiple><option selected>x</option></select>`, "", false},
		{"checkbox", `<input id="e" type="checkbox" value="on">`, "", false},
		{"progress", `<progress id="e" value="1234"></progress>`, "", false},
		{"li", `<ul><li id="e" value="3">x</li></ul>`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := byID(t, mustParse(t, tt.markup), "e")
			got, ok := e.DisplayValue()
			if got != tt.want || ok != tt.ok {
				t.Errorf("DisplayValue() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestSetDisplayValue(t *testing.T) {
	doc := mustParse(t, `
		<input id="in" value="old">
		<textarea id="ta">old <b>text</b></textarea>
		<select id="sel"><option value="a" selected>A</option><option value="b">B</option></select>
		<div id="div">x</div>`)

	for _, id := range []string{"in", "ta"} {
		e := byID(t, doc, id)
		if err := e.SetDisplayValue("new"); err != nil {
			t.Fatalf("SetDisplayValue(%s): %v", id, err)
		}
		if v, _ := e.DisplayValue(); v != "new" {
			t.Errorf("%s DisplayValue() = %q, want new", id, v)
		}
	}

	sel := byID(t, doc, "sel")
	if err := sel.SetDisplayValue("b"); err != nil {
		t.Fatalf("SetDisplayValue(select): %v", err)
	}
	if v, _ := sel.DisplayValue(); v != "b" {
		t.Errorf("select DisplayValue() = %q, want b", v)
	}
	if err := sel.SetDisplayValue("zzz"); !errors.Is(err, core.ErrContractViolation) {
		t.Errorf("SetDisplayValue(unknown option) = %v, want contract violation", err)
	}

	err := byID(t, doc, "div").SetDisplayValue("x")
	if !errors.Is(err, core.ErrContractViolation) {
		t.Errorf("SetDisplayValue(div) = %v, want contract violation", err)
	}
}

func TestPlaceholder(t *testing.T) {
	doc := mustParse(t, `<input id="a" placeholder="Name"><div id="b" placeholder="Name"></div>`)
	if p, ok := byID(t, doc, "a").Placeholder(); !ok || p != "Name" {
		t.Errorf("input Placeholder() = (%q, %v)", p, ok)
	}
	if _, ok := byID(t, doc, "b").Placeholder(); ok {
		t.Error("div should have no placeholder")
	}
}

func TestSelectAll_ExcludesRoot(t *testing.T) {
	doc := mustParse(t, `<div id="outer"><div id="inner"><span id="leaf"></span></div></div>`)
	outer := byID(t, doc, "outer")

	got := Descendants(outer.QueryRoot())
	if len(got) != 2 || got[0].ID() != "inner" || got[1].ID() != "leaf" {
		t.Errorf("Descendants(outer) = %v", got)
	}
}

func TestFormControls_DocumentOrder(t *testing.T) {
	doc := mustParse(t, `<select id="1"></select><input id="2"><textarea id="3"></textarea><input id="4">`)
	var ids []string
	for _, e := range FormControls(doc.QueryRoot()) {
		ids = append(ids, e.ID())
	}
	if strings.Join(ids, ",") != "1,2,3,4" {
		t.Errorf("FormControls() ids = %v", ids)
	}
}

func TestLiteral(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"button", `'button'`},
		{"it's", `"it's"`},
		{`a'b"c`, `concat('a', "'", 'b"c')`},
	}
	for _, tt := range tests {
		if got := Literal(tt.in); got != tt.want {
			t.Errorf("Literal(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestSelect_AttrEqualsWithQuotes(t *testing.T) {
	doc := mustParse(t, `<div id="x" role="a'b&quot;c"></div><div role="ab"></div>`)
	got, err := Select(doc.QueryRoot(), AttrEquals("role", `a'b"c`))
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(got) != 1 || got[0].ID() != "x" {
		t.Errorf("Select() = %v", got)
	}
}
