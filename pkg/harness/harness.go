// Package harness mounts markup into a fresh document for the duration of
// a test and hands back a Screen carrying every query.
package harness

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"golang.org/x/net/html"

	"github.com/devicelab-dev/domquery/pkg/dom"
	"github.com/devicelab-dev/domquery/pkg/logger"
	"github.com/devicelab-dev/domquery/pkg/query"
)

// ErrClosed is returned when a closed screen is used.
var ErrClosed = errors.New("screen is closed")

// Screen is one mounted document. Queries run against the <body> the
// markup was placed in.
type Screen struct {
	query.Queries

	doc    *dom.Document
	body   dom.Element
	mu     sync.Mutex
	closed bool
}

// Render parses markup into a new document. The caller must Close the
// screen when done.
func Render(markup string) (*Screen, error) {
	doc, err := dom.ParseString(markup)
	if err != nil {
		return nil, err
	}
	body, ok := doc.Body()
	if !ok {
		// Parsing always synthesizes a body; a frameset document has none.
		return nil, errors.New("rendered document has no body")
	}
	s := &Screen{doc: doc, body: body}
	s.Queries = query.Within(s)
	logger.Debug("rendered screen with %d bytes of markup", len(markup))
	return s, nil
}

// RenderT renders markup and closes the screen when the test finishes.
func RenderT(t testing.TB, markup string) *Screen {
	t.Helper()
	s, err := Render(markup)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

// QueryRoot returns the body of the mounted document.
func (s *Screen) QueryRoot() *html.Node { return s.body.Node() }

// Document returns the mounted document.
func (s *Screen) Document() *dom.Document { return s.doc }

// Container returns the body element the markup was mounted into.
func (s *Screen) Container() dom.Element { return s.body }

// HTML renders the mounted markup.
func (s *Screen) HTML() string {
	var b strings.Builder
	for c := s.body.Node().FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&b, c); err != nil {
			logger.Warn("render screen: %v", err)
		}
	}
	return b.String()
}

// Within scopes queries to one element of the screen.
func (s *Screen) Within(e dom.Element) query.Queries {
	return query.Within(e)
}

// Close unmounts the markup. Further queries see an empty body. Calling
// Close twice is a no-op.
func (s *Screen) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	body := s.body.Node()
	for c := body.FirstChild; c != nil; {
		next := c.NextSibling
		body.RemoveChild(c)
		c = next
	}
}

// Closed reports whether Close has been called.
func (s *Screen) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Update mounts new markup in place of the current content, as a re-render
// would.
func (s *Screen) Update(markup string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), s.body.Node())
	if err != nil {
		return err
	}
	body := s.body.Node()
	for c := body.FirstChild; c != nil; {
		next := c.NextSibling
		body.RemoveChild(c)
		c = next
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}
	return nil
}
