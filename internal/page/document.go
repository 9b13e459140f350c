package page

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// Document implements Page over a parsed HTML tree.
type Document struct {
	url  string
	root *html.Node
	doc  *goquery.Document
}

// NewDocument wraps an already parsed tree.
func NewDocument(url string, root *html.Node) *Document {
	return &Document{
		url:  url,
		root: root,
		doc:  goquery.NewDocumentFromNode(root),
	}
}

func (d *Document) URL() string {
	return d.url
}

func (d *Document) Title() string {
	return normalizeSpace(d.doc.Find("title").First().Text())
}

// Find runs a CSS selector over the whole document.
func (d *Document) Find(selector string) ([]Element, error) {
	m, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return wrap(d.doc.FindMatcher(m)), nil
}

// XPath runs an XPath expression that selects element nodes.
func (d *Document) XPath(expr string) ([]Element, error) {
	nodes, err := htmlquery.QueryAll(d.root, expr)
	if err != nil {
		return nil, fmt.Errorf("invalid xpath %q: %w", expr, err)
	}
	out := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		if n.Type != html.ElementNode {
			continue
		}
		out = append(out, &element{sel: d.doc.FindNodes(n)})
	}
	return out, nil
}

// HTML renders the document back to markup.
func (d *Document) HTML() (string, error) {
	return goquery.OuterHtml(d.doc.Selection)
}

type element struct {
	sel *goquery.Selection
}

func wrap(sel *goquery.Selection) []Element {
	out := make([]Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, &element{sel: s})
	})
	return out
}

func (e *element) Attr(name string) (string, bool) {
	return e.sel.Attr(name)
}

func (e *element) Text() string {
	return normalizeSpace(e.sel.Text())
}

func (e *element) Tag() string {
	return strings.ToLower(goquery.NodeName(e.sel))
}

func (e *element) Find(selector string) []Element {
	m, err := cascadia.Compile(selector)
	if err != nil {
		return nil
	}
	return wrap(e.sel.FindMatcher(m))
}

func (e *element) Is(selector string) bool {
	m, err := cascadia.Compile(selector)
	if err != nil {
		return false
	}
	return e.sel.IsMatcher(m)
}

func (e *element) Closest(selector string) (Element, bool) {
	m, err := cascadia.Compile(selector)
	if err != nil {
		return nil, false
	}
	s := e.sel.ClosestMatcher(m)
	if s.Length() == 0 {
		return nil, false
	}
	return &element{sel: s}, true
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
