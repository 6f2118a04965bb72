package dom

import "fmt"

// FindDescendant runs a single query below root.
func FindDescendant(root Node, selector string) (Node, error) {
	if root == nil {
		return nil, nil
	}
	return root.Query(selector)
}

// FindNearestAncestorMatchingDescendant walks upward from start and, at
// each level, searches that element's descendants for selector. The first
// match found while ascending is returned, so the closest enclosing context
// wins. It returns nil once the document root has been searched without a
// match.
//
// The walk is iterative and bounded by the depth of start; each level costs
// one query. Nothing is cached: the host may mutate the tree between calls.
func FindNearestAncestorMatchingDescendant(start Node, selector string) (Node, error) {
	n := start
	for n != nil {
		m, err := n.Query(selector)
		if err != nil {
			return nil, fmt.Errorf("dom: query %q: %w", selector, err)
		}
		if m != nil {
			return m, nil
		}
		p, err := n.Parent()
		if err != nil {
			return nil, fmt.Errorf("dom: parent: %w", err)
		}
		n = p
	}
	return nil, nil
}

// Ancestor climbs exactly depth parents from n. It returns nil when the
// tree above n is shallower than depth.
func Ancestor(n Node, depth int) (Node, error) {
	for i := 0; i < depth && n != nil; i++ {
		p, err := n.Parent()
		if err != nil {
			return nil, fmt.Errorf("dom: parent: %w", err)
		}
		n = p
	}
	return n, nil
}

// Require turns a nil lookup result into ErrElementNotFound.
//
//	post, err := dom.Require(dom.FindNearestAncestorMatchingDescendant(t, sel))
func Require(n Node, err error) (Node, error) {
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, ErrElementNotFound
	}
	return n, nil
}
