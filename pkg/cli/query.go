package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/domquery/pkg/core"
	"github.com/devicelab-dev/domquery/pkg/dom"
	"github.com/devicelab-dev/domquery/pkg/logger"
	"github.com/devicelab-dev/domquery/pkg/query"
)

var queryCommand = &cli.Command{
	Name:      "query",
	Usage:     "Run one query against an HTML file",
	ArgsUsage: "<file.html|-> <query>",
	Description: `Print the outer HTML of the matched element(s), or the query error.

A singular query (the default) fails when it finds nothing or more than one
element. With --all every match is printed and the command never fails on
the match count.

Examples:
  domquery query page.html "Sign in"
  domquery query --by label page.html Email
  domquery query --by text --contains --all page.html Welcome
  curl -s https://example.com | domquery query --by role - navigation`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "by",
			Usage: "Strategy: text, id, label, display_value, role, placeholder",
			Value: "text",
		},
		&cli.BoolFlag{
			Name:  "contains",
			Usage: "Match a substring instead of the whole value",
		},
		&cli.BoolFlag{
			Name:  "all",
			Usage: "Return every match (getAllBy)",
		},
		&cli.StringFlag{
			Name:  "within",
			Usage: "Id of an element that scopes the query",
		},
	},
	Action: runQuery,
}

func runQuery(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("expected <file.html> and <query>, got %d argument(s)", c.NArg())
	}

	strategy, ok := core.StrategyFor(c.String("by"), c.Bool("contains"))
	if !ok {
		return fmt.Errorf("unknown strategy %q", strategy)
	}

	doc, err := loadHTML(c.Args().Get(0), c.App.Reader)
	if err != nil {
		return err
	}
	text := c.Args().Get(1)

	q := query.Within(doc)
	if id := c.String("within"); id != "" {
		container, err := q.GetByID(id)
		if err != nil {
			return cli.Exit(fmt.Sprintf("within: %v", err), 1)
		}
		q = query.Within(container)
	}

	logger.Info("query %s", core.NewDescriptor(strategy, text))

	if c.Bool("all") {
		all, err := q.FindAll(strategy, text)
		if err != nil {
			return err
		}
		for _, el := range all {
			fmt.Fprintln(c.App.Writer, el.OuterHTML())
		}
		fmt.Fprintf(c.App.ErrWriter, "%d match(es)\n", len(all))
		return nil
	}

	el, err := q.Find(strategy, text)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	fmt.Fprintln(c.App.Writer, el.OuterHTML())
	return nil
}

// loadHTML parses path, or stdin when path is "-".
func loadHTML(path string, stdin io.Reader) (*dom.Document, error) {
	if path == "-" {
		if stdin == nil {
			stdin = os.Stdin
		}
		return dom.Parse(stdin)
	}

	f, err := os.Open(path) //#nosec G304 -- user-provided document
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := dom.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}
