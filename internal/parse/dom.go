// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/pdiddy/vehicle-history/internal/lexical"
)

// matcher selects element nodes during a tree walk.
type matcher func(*html.Node) bool

func byClass(class string) matcher {
	return func(n *html.Node) bool { return hasClass(n, class) }
}

func byTag(a atom.Atom) matcher {
	return func(n *html.Node) bool { return n.DataAtom == a }
}

// findAll returns every element under n (n included) that m accepts, in
// document order.
func findAll(n *html.Node, m matcher) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.ElementNode && m(c) {
			out = append(out, c)
		}
		for k := c.FirstChild; k != nil; k = k.NextSibling {
			walk(k)
		}
	}
	if n != nil {
		walk(n)
	}
	return out
}

// findFirst returns the first element under n that m accepts, or nil.
func findFirst(n *html.Node, m matcher) *html.Node {
	if n == nil {
		return nil
	}
	if n.Type == html.ElementNode && m(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, m); found != nil {
			return found
		}
	}
	return nil
}

// childElements returns n's direct element children accepted by m.
func childElements(n *html.Node, m matcher) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && m(c) {
			out = append(out, c)
		}
	}
	return out
}

// closest walks up from n to the nearest ancestor m accepts.
func closest(n *html.Node, m matcher) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && m(p) {
			return p
		}
	}
	return nil
}

func attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val), true
		}
	}
	return "", false
}

// attrOr returns the attribute value, or "" when absent.
func attrOr(n *html.Node, key string) string {
	v, _ := attr(n, key)
	return v
}

func hasClass(n *html.Node, class string) bool {
	v, ok := attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

// text returns the whitespace-collapsed text content of n on one line.
func text(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		switch c.Type {
		case html.TextNode:
			b.WriteString(c.Data)
			b.WriteByte(' ')
		case html.ElementNode:
			if c.DataAtom == atom.Script || c.DataAtom == atom.Style {
				return
			}
		}
		for k := c.FirstChild; k != nil; k = k.NextSibling {
			walk(k)
		}
	}
	walk(n)
	return lexical.CleanText(b.String())
}

// blockAtoms start a new line in textLines.
var blockAtoms = map[atom.Atom]bool{
	atom.Br: true, atom.P: true, atom.Div: true, atom.Li: true,
	atom.Tr: true, atom.H1: true, atom.H2: true, atom.H3: true,
}

// textLines returns the text content of n with block boundaries and <br>
// kept as newlines. Blank lines are dropped.
func textLines(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		switch c.Type {
		case html.TextNode:
			b.WriteString(c.Data)
		case html.ElementNode:
			if c.DataAtom == atom.Script || c.DataAtom == atom.Style {
				return
			}
			if blockAtoms[c.DataAtom] {
				b.WriteByte('\n')
			}
		}
		for k := c.FirstChild; k != nil; k = k.NextSibling {
			walk(k)
		}
		if c.Type == html.ElementNode && blockAtoms[c.DataAtom] {
			b.WriteByte('\n')
		}
	}
	walk(n)

	var lines []string
	for _, line := range strings.Split(b.String(), "\n") {
		if line = lexical.CleanText(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// cells returns the td/th children of a table row.
func cells(tr *html.Node) []*html.Node {
	return childElements(tr, func(n *html.Node) bool {
		return n.DataAtom == atom.Td || n.DataAtom == atom.Th
	})
}

// rows returns the rows of a table in order, looking through thead, tbody
// and tfoot.
func rows(table *html.Node) []*html.Node {
	return findAll(table, byTag(atom.Tr))
}

// labelPairs collects label/value pairs from a container: two-cell table
// rows, dt/dd pairs, and "Label: value" list items. Labels are lowercased.
func labelPairs(n *html.Node) [][2]string {
	if n == nil {
		return nil
	}
	var out [][2]string
	add := func(label, value string) {
		label = strings.ToLower(strings.TrimSuffix(lexical.CleanText(label), ":"))
		value = lexical.CleanText(value)
		if label != "" {
			out = append(out, [2]string{label, value})
		}
	}

	for _, tr := range rows(n) {
		if cs := cells(tr); len(cs) == 2 {
			add(text(cs[0]), text(cs[1]))
		}
	}

	var label string
	for _, el := range findAll(n, func(n *html.Node) bool {
		return n.DataAtom == atom.Dt || n.DataAtom == atom.Dd
	}) {
		if el.DataAtom == atom.Dt {
			label = text(el)
			continue
		}
		add(label, text(el))
		label = ""
	}

	for _, li := range findAll(n, byTag(atom.Li)) {
		if k, v, ok := strings.Cut(text(li), ":"); ok {
			add(k, v)
		}
	}

	for _, el := range findAll(n, func(n *html.Node) bool {
		_, ok := attr(n, "data-label")
		return ok
	}) {
		add(attrOr(el, "data-label"), text(el))
	}
	return out
}
