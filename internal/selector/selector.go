// Package selector compiles the structural queries used by extraction rules.
//
// An expression starting with "/" or "(" is XPath. Anything else is CSS, which may
// carry a trailing pseudo element: "::text" selects the direct text nodes of each
// match and "::attr(name)" selects an attribute value. Plain CSS yields the full
// text of each match.
package selector

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html"
)

type Kind int

const (
	CSS Kind = iota
	XPath
)

type cssMode int

const (
	cssFullText cssMode = iota
	cssOwnText
	cssAttr
)

const textSuffix = "::text"

var (
	errEmptySelector = errors.New("empty selector")
	attrSuffix       = regexp.MustCompile(`::attr\(\s*([^)\s]+)\s*\)$`)
)

// Selector is an immutable compiled query. The zero value selects nothing.
type Selector struct {
	raw   string
	kind  Kind
	css   cascadia.Selector
	mode  cssMode
	attr  string
	xpath *xpath.Expr
}

// Compile parses expr as XPath or CSS.
func Compile(expr string) (Selector, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Selector{}, errEmptySelector
	}
	if strings.HasPrefix(expr, "/") || strings.HasPrefix(expr, "(") {
		e, err := xpath.Compile(expr)
		if err != nil {
			return Selector{}, fmt.Errorf("compile xpath %q: %w", expr, err)
		}
		return Selector{raw: expr, kind: XPath, xpath: e}, nil
	}

	s := Selector{raw: expr, kind: CSS}
	css := expr
	switch {
	case strings.HasSuffix(css, textSuffix):
		s.mode = cssOwnText
		css = strings.TrimSuffix(css, textSuffix)
	case attrSuffix.MatchString(css):
		m := attrSuffix.FindStringSubmatchIndex(css)
		s.mode = cssAttr
		s.attr = css[m[2]:m[3]]
		css = css[:m[0]]
	}
	sel, err := cascadia.Compile(css)
	if err != nil {
		return Selector{}, fmt.Errorf("compile css %q: %w", expr, err)
	}
	s.css = sel
	return s, nil
}

// MustCompile is like Compile but panics on error. Meant for presets.
func MustCompile(expr string) Selector {
	s, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return s
}

func (s Selector) String() string {
	return s.raw
}

func (s Selector) Kind() Kind {
	return s.kind
}

func (s Selector) IsZero() bool {
	return s.raw == ""
}

// Eval runs the selector against doc and returns the selected strings in
// document order. Missing matches yield an empty slice.
func (s Selector) Eval(doc *goquery.Document) []string {
	if s.IsZero() || doc == nil || len(doc.Nodes) == 0 {
		return nil
	}
	if s.kind == XPath {
		return s.evalXPath(doc.Nodes[0])
	}
	return s.evalCSS(doc)
}

func (s Selector) evalXPath(root *html.Node) []string {
	nodes := htmlquery.QuerySelectorAll(root, s.xpath)
	sortDocumentOrder(root, nodes)
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, htmlquery.InnerText(n))
	}
	return out
}

// sortDocumentOrder puts nodes in document order. Union expressions come back
// grouped by operand. Attribute results are detached copies with no position,
// so the slice is left alone when any node is not part of the tree.
func sortDocumentOrder(root *html.Node, nodes []*html.Node) {
	if len(nodes) < 2 {
		return
	}
	pos := make(map[*html.Node]int)
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		pos[n] = len(pos)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	for _, n := range nodes {
		if _, ok := pos[n]; !ok {
			return
		}
	}
	sort.SliceStable(nodes, func(i, j int) bool {
		return pos[nodes[i]] < pos[nodes[j]]
	})
}

func (s Selector) evalCSS(doc *goquery.Document) []string {
	var out []string
	doc.FindMatcher(s.css).Each(func(_ int, sel *goquery.Selection) {
		switch s.mode {
		case cssAttr:
			if v, ok := sel.Attr(s.attr); ok {
				out = append(out, v)
			}
		case cssOwnText:
			for _, n := range sel.Nodes {
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					if c.Type == html.TextNode {
						out = append(out, c.Data)
					}
				}
			}
		default:
			out = append(out, sel.Text())
		}
	})
	return out
}
