package htmldom

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/hazyhaar/repli/dom"
)

// Node is an element of a Document.
type Node struct {
	doc *Document
	n   *html.Node
}

var _ dom.Node = (*Node)(nil)

func (n *Node) Parent() (dom.Node, error) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	p := parentElement(n.n)
	if p == nil {
		return nil, nil
	}
	return n.doc.wrap(p), nil
}

func (n *Node) Query(selector string) (dom.Node, error) {
	sel, err := compile(selector)
	if err != nil {
		return nil, err
	}
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	m := queryFirst(n.n, sel)
	if m == nil {
		return nil, nil
	}
	return n.doc.wrap(m), nil
}

func (n *Node) QueryAll(selector string) ([]dom.Node, error) {
	sel, err := compile(selector)
	if err != nil {
		return nil, err
	}
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	var out []dom.Node
	for _, m := range queryAll(n.n, sel) {
		out = append(out, n.doc.wrap(m))
	}
	return out, nil
}

func (n *Node) Text() (string, error) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return textOf(n.n), nil
}

func (n *Node) Attribute(name string) (string, bool, error) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	v, ok := lookupAttr(n.n, name)
	return v, ok, nil
}

// Key is the address of the underlying html.Node, stable for as long as
// the element exists.
func (n *Node) Key() (string, error) {
	return fmt.Sprintf("%p", n.n), nil
}

func (n *Node) Connected() (bool, error) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	for p := n.n; p != nil; p = p.Parent {
		if p == n.doc.root {
			return true, nil
		}
	}
	return false, nil
}

// Tag returns the element's tag name.
func (n *Node) Tag() string { return n.n.Data }
