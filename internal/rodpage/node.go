package rodpage

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/cdp"

	"github.com/hazyhaar/repli/dom"
)

// Node is a dom.Node backed by a remote element handle.
type Node struct {
	el *rod.Element
}

var _ dom.Node = (*Node)(nil)

func wrap(el *rod.Element) dom.Node {
	if el == nil {
		return nil
	}
	return &Node{el: el}
}

// Element returns the underlying rod element.
func (n *Node) Element() *rod.Element { return n.el }

func (n *Node) Parent() (dom.Node, error) {
	p, err := n.el.Parent()
	if err != nil {
		var nf *rod.ElementNotFoundError
		if errors.As(err, &nf) {
			return nil, nil
		}
		return nil, fmt.Errorf("rodpage: parent: %w", err)
	}
	return wrap(p), nil
}

func (n *Node) Query(selector string) (dom.Node, error) {
	has, el, err := n.el.Has(selector)
	if err != nil {
		return nil, fmt.Errorf("rodpage: query %q: %w", selector, err)
	}
	if !has {
		return nil, nil
	}
	return wrap(el), nil
}

func (n *Node) QueryAll(selector string) ([]dom.Node, error) {
	els, err := n.el.Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("rodpage: query all %q: %w", selector, err)
	}
	out := make([]dom.Node, 0, len(els))
	for _, el := range els {
		out = append(out, wrap(el))
	}
	return out, nil
}

func (n *Node) Text() (string, error) {
	s, err := n.el.Text()
	if err != nil {
		return "", fmt.Errorf("rodpage: text: %w", err)
	}
	return s, nil
}

func (n *Node) Attribute(name string) (string, bool, error) {
	v, err := n.el.Attribute(name)
	if err != nil {
		return "", false, fmt.Errorf("rodpage: attribute %q: %w", name, err)
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

// Key is the backend node id, stable for the lifetime of the document.
func (n *Node) Key() (string, error) {
	d, err := n.el.Describe(0, false)
	if err != nil {
		return "", fmt.Errorf("rodpage: describe: %w", err)
	}
	return strconv.Itoa(int(d.BackendNodeID)), nil
}

// Connected is false once the element left the document, including when
// the document itself was replaced and the handle went stale.
func (n *Node) Connected() (bool, error) {
	res, err := n.el.Eval(`() => this.isConnected`)
	if err != nil {
		var ce *cdp.Error
		if errors.As(err, &ce) {
			return false, nil
		}
		return false, fmt.Errorf("rodpage: connected: %w", err)
	}
	return res.Value.Bool(), nil
}

func unwrap(n dom.Node) (*rod.Element, error) {
	rn, ok := n.(*Node)
	if !ok || rn == nil {
		return nil, fmt.Errorf("rodpage: foreign node %T", n)
	}
	return rn.el, nil
}
