package query

import (
	"reflect"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/devicelab-dev/domquery/pkg/dom"
)

// genFragment yields markup pieces that may repeat the probe text "ab"
// under one parent, nest it, or separate it with comments.
func genFragment() gopter.Gen {
	return gen.OneConstOf(
		"ab",
		"x",
		"<!-- c -->",
		"<b>ab</b>",
		"<i>x</i>",
		"<p>ab</p>",
		"<span>ab<i>ab</i>ab</span>",
		"<div><!-- c -->ab<!-- c -->ab</div>",
	)
}

func genMarkup() gopter.Gen {
	return gen.SliceOfN(6, genFragment()).Map(func(parts []string) string {
		return "<div>" + strings.Join(parts, "") + "</div>"
	})
}

func TestTextMatcherProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	queryAll := func(markup string) Queries {
		doc, err := dom.ParseString(markup)
		if err != nil {
			t.Fatalf("ParseString: %v", err)
		}
		return Within(doc)
	}

	properties.Property("plural text results have no duplicates", prop.ForAll(
		func(markup string) bool {
			q := queryAll(markup)
			for _, list := range [][]dom.Element{q.GetAllByText("ab"), q.GetAllByTextContains("ab")} {
				seen := map[dom.Element]bool{}
				for _, e := range list {
					if seen[e] {
						t.Logf("duplicate %s in %s", e, markup)
						return false
					}
					seen[e] = true
				}
			}
			return true
		},
		genMarkup(),
	))

	properties.Property("exact matches are a subset of containing matches", prop.ForAll(
		func(markup string) bool {
			q := queryAll(markup)
			contains := map[dom.Element]bool{}
			for _, e := range q.GetAllByTextContains("ab") {
				contains[e] = true
			}
			for _, e := range q.GetAllByText("ab") {
				if !contains[e] {
					t.Logf("%s matched exactly but not by contains in %s", e, markup)
					return false
				}
			}
			return true
		},
		genMarkup(),
	))

	properties.Property("every exact match renders the query", prop.ForAll(
		func(markup string) bool {
			for _, e := range queryAll(markup).GetAllByText("ab") {
				if e.RenderedText() != "ab" {
					return false
				}
			}
			return true
		},
		genMarkup(),
	))

	properties.Property("plural queries are idempotent", prop.ForAll(
		func(markup string) bool {
			q := queryAll(markup)
			return reflect.DeepEqual(q.GetAllByTextContains("ab"), q.GetAllByTextContains("ab")) &&
				reflect.DeepEqual(q.GetAllByText("ab"), q.GetAllByText("ab"))
		},
		genMarkup(),
	))

	properties.Property("collected text nodes reassemble the raw text", prop.ForAll(
		func(markup string) bool {
			doc, err := dom.ParseString(markup)
			if err != nil {
				return false
			}
			body, ok := doc.Body()
			if !ok {
				return false
			}
			var b strings.Builder
			for _, n := range CollectTextNodes(body.Node()) {
				b.WriteString(n.Data)
			}
			return b.String() == body.Text()
		},
		genMarkup(),
	))

	properties.TestingRun(t)
}
