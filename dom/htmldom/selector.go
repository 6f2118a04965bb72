package htmldom

import (
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// selector is a compiled selector list with Element.querySelector
// semantics: ancestors named by a combinator may lie outside the queried
// subtree, and the query root itself never matches.
type selector = cascadia.SelectorGroup

func compile(src string) (selector, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, fmt.Errorf("htmldom: empty selector")
	}
	sel, err := cascadia.ParseGroup(src)
	if err != nil {
		return nil, fmt.Errorf("htmldom: selector %q: %w", src, err)
	}
	return sel, nil
}

func parentElement(n *html.Node) *html.Node {
	p := n.Parent
	if p == nil || p.Type != html.ElementNode {
		return nil
	}
	return p
}

// getAttr returns the value of an attribute on a node.
func getAttr(n *html.Node, key string) string {
	v, _ := lookupAttr(n, key)
	return v
}

func lookupAttr(n *html.Node, key string) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Namespace == "" && attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != key {
			kept = append(kept, a)
		}
	}
	n.Attr = kept
}

// eachElement visits the element descendants of root (root excluded) in
// document order until fn returns false. The walk is iterative.
func eachElement(root *html.Node, fn func(*html.Node) bool) {
	n := root.FirstChild
	for n != nil {
		if n.Type == html.ElementNode && !fn(n) {
			return
		}
		if n.FirstChild != nil {
			n = n.FirstChild
			continue
		}
		for n != root && n.NextSibling == nil {
			n = n.Parent
		}
		if n == root {
			return
		}
		n = n.NextSibling
	}
}

func queryFirst(root *html.Node, sel selector) *html.Node {
	return cascadia.Query(root, sel)
}

func queryAll(root *html.Node, sel selector) []*html.Node {
	return cascadia.QueryAll(root, sel)
}
