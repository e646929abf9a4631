package cli

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"
	"golang.org/x/net/html"

	"github.com/devicelab-dev/domquery/pkg/dom"
)

var hierarchyCommand = &cli.Command{
	Name:      "hierarchy",
	Usage:     "Print the element tree of an HTML file",
	ArgsUsage: "<file.html|->",
	Description: `Print every element with its tag, id, role and own text, as an
indented tree or, with --compact, as CSV.

Examples:
  domquery hierarchy page.html
  domquery hierarchy --compact page.html > page.csv`,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "compact",
			Usage: "Output in CSV format",
		},
	},
	Action: runHierarchy,
}

// hierarchyRow is one element of the printed tree.
type hierarchyRow struct {
	depth int
	tag   string
	id    string
	role  string
	text  string
}

func runHierarchy(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected one HTML file, got %d argument(s)", c.NArg())
	}
	doc, err := loadHTML(c.Args().First(), c.App.Reader)
	if err != nil {
		return err
	}

	rows := collectHierarchy(doc.Node())
	if c.Bool("compact") {
		return writeHierarchyCSV(c.App.Writer, rows)
	}
	writeHierarchyTree(c.App.Writer, rows)
	return nil
}

// collectHierarchy walks the element tree in document order.
func collectHierarchy(root *html.Node) []hierarchyRow {
	var rows []hierarchyRow
	var walk func(n *html.Node, depth int)
	walk = func(n *html.Node, depth int) {
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if child.Type != html.ElementNode {
				continue
			}
			el := dom.Wrap(child)
			rows = append(rows, hierarchyRow{
				depth: depth,
				tag:   el.TagName(),
				id:    el.ID(),
				role:  el.Role(),
				text:  ownText(child),
			})
			walk(child, depth+1)
		}
	}
	walk(root, 0)
	return rows
}

// ownText joins the element's direct text children with whitespace collapsed.
func ownText(n *html.Node) string {
	var parts []string
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.TextNode {
			if s := strings.Join(strings.Fields(child.Data), " "); s != "" {
				parts = append(parts, s)
			}
		}
	}
	return strings.Join(parts, " ")
}

func writeHierarchyTree(w io.Writer, rows []hierarchyRow) {
	for _, r := range rows {
		var b strings.Builder
		b.WriteString(strings.Repeat("  ", r.depth))
		b.WriteString(r.tag)
		if r.id != "" {
			b.WriteString("#" + r.id)
		}
		if r.role != "" {
			b.WriteString(" [" + r.role + "]")
		}
		if r.text != "" {
			fmt.Fprintf(&b, " %q", r.text)
		}
		fmt.Fprintln(w, b.String())
	}
}

func writeHierarchyCSV(w io.Writer, rows []hierarchyRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"depth", "tag", "id", "role", "text"}); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{fmt.Sprint(r.depth), r.tag, r.id, r.role, r.text}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
