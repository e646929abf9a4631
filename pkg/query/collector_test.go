package query

import (
	"testing"

	"golang.org/x/net/html"

	"github.com/devicelab-dev/domquery/pkg/dom"
)

func TestCollectTextNodes(t *testing.T) {
	doc, err := dom.ParseString(`<div id="r">a<!--skip--><span>b<i>c</i></span>d</div>`)
	if err != nil {
		t.Fatal(err)
	}
	root, err := Within(doc).GetByID("r")
	if err != nil {
		t.Fatal(err)
	}

	var got string
	for _, n := range CollectTextNodes(root.Node()) {
		if n.Type != html.TextNode {
			t.Fatalf("non-text node %v collected", n.Type)
		}
		got += n.Data
	}
	if got != "abcd" {
		t.Errorf("collected text = %q, want abcd", got)
	}
}

func TestCollectTextNodes_Empty(t *testing.T) {
	if got := CollectTextNodes(nil); len(got) != 0 {
		t.Errorf("CollectTextNodes(nil) = %v", got)
	}
	empty := &html.Node{Type: html.ElementNode, Data: "div"}
	if got := CollectTextNodes(empty); len(got) != 0 {
		t.Errorf("CollectTextNodes(<div>) = %v", got)
	}
}
