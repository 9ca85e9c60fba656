// Package markup exposes the small set of HTML queries the scraper needs:
// CSS selection, closest-ancestor lookup, attribute access and flattened text.
// The scraper algorithms are written against Node so they never touch the
// parser's own types.
package markup

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Node is one element (or the document root) in a parsed page.
type Node interface {
	// Find returns every descendant matching the CSS selector, in document order.
	Find(selector string) []Node
	// Closest returns the nearest ancestor-or-self matching selector.
	Closest(selector string) (Node, bool)
	// Attr returns the named attribute and whether it was present.
	Attr(name string) (string, bool)
	// Text returns the concatenated text content of the node and its descendants.
	Text() string
}

// Document is a parsed HTML page.
type Document struct {
	root *goquery.Document
}

// Parse reads an HTML document from r.
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{root: doc}, nil
}

// ParseString parses an in-memory HTML string.
func ParseString(html string) (*Document, error) {
	return Parse(strings.NewReader(html))
}

// Find implements Node for the document root.
func (d *Document) Find(selector string) []Node {
	return wrap(d.root.Find(selector))
}

// Closest on the document root never matches.
func (d *Document) Closest(string) (Node, bool) {
	return nil, false
}

// Attr on the document root is always absent.
func (d *Document) Attr(string) (string, bool) {
	return "", false
}

// Text returns the flattened text of the whole page.
func (d *Document) Text() string {
	return d.root.Text()
}

type element struct {
	sel *goquery.Selection
}

func wrap(sel *goquery.Selection) []Node {
	if sel == nil || sel.Length() == 0 {
		return nil
	}
	nodes := make([]Node, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, element{sel: s})
	})
	return nodes
}

func (e element) Find(selector string) []Node {
	return wrap(e.sel.Find(selector))
}

func (e element) Closest(selector string) (Node, bool) {
	match := e.sel.Closest(selector)
	if match.Length() == 0 {
		return nil, false
	}
	return element{sel: match.First()}, true
}

func (e element) Attr(name string) (string, bool) {
	return e.sel.Attr(name)
}

func (e element) Text() string {
	return e.sel.Text()
}

// AttrValues collects the non-empty values of attr across the nodes matching
// selector beneath n.
func AttrValues(n Node, selector, attr string) []string {
	var values []string
	for _, node := range n.Find(selector) {
		if value, ok := node.Attr(attr); ok && strings.TrimSpace(value) != "" {
			values = append(values, value)
		}
	}
	return values
}
