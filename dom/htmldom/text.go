package htmldom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var blockTags = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Dd: true, atom.Div: true, atom.Dl: true, atom.Dt: true, atom.Fieldset: true,
	atom.Figcaption: true, atom.Figure: true, atom.Footer: true, atom.Form: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Header: true, atom.Hr: true, atom.Li: true, atom.Main: true, atom.Nav: true,
	atom.Ol: true, atom.P: true, atom.Pre: true, atom.Section: true, atom.Table: true,
	atom.Tr: true, atom.Ul: true,
}

var hiddenTags = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Template: true, atom.Noscript: true, atom.Head: true,
}

// textOf approximates innerText: block boundaries and <br> become line
// breaks, runs of whitespace collapse, blank lines are dropped. For input
// elements the current value is returned.
func textOf(root *html.Node) string {
	if root.Type == html.ElementNode && root.DataAtom == atom.Input {
		return getAttr(root, "value")
	}

	var b strings.Builder
	walk(root,
		func(n *html.Node) bool {
			switch n.Type {
			case html.TextNode:
				b.WriteString(n.Data)
			case html.ElementNode:
				if hiddenTags[n.DataAtom] {
					return false
				}
				if n.DataAtom == atom.Br || blockTags[n.DataAtom] {
					b.WriteByte('\n')
				}
			}
			return true
		},
		func(n *html.Node) {
			if n.Type == html.ElementNode && blockTags[n.DataAtom] {
				b.WriteByte('\n')
			}
		},
	)

	var lines []string
	for _, line := range strings.Split(b.String(), "\n") {
		if f := strings.Fields(line); len(f) > 0 {
			lines = append(lines, strings.Join(f, " "))
		}
	}
	return strings.Join(lines, "\n")
}

// walk visits the subtree below root in document order without recursion.
// enter returns false to skip a node's children; leave runs once a node's
// subtree is done.
func walk(root *html.Node, enter func(*html.Node) bool, leave func(*html.Node)) {
	n := root.FirstChild
	for n != nil {
		if enter(n) && n.FirstChild != nil {
			n = n.FirstChild
			continue
		}
		leave(n)
		for n.NextSibling == nil {
			n = n.Parent
			if n == nil || n == root {
				return
			}
			leave(n)
		}
		n = n.NextSibling
	}
}
