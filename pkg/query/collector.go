package query

import "golang.org/x/net/html"

// CollectTextNodes returns every text node under root in document order.
// The walk descends into element nodes only, so text inside comments or
// doctype nodes is never reported. A document root is entered as well.
func CollectTextNodes(root *html.Node) []*html.Node {
	if root == nil {
		return nil
	}
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			out = append(out, n)
		case html.ElementNode, html.DocumentNode:
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
		}
	}
	walk(root)
	return out
}
