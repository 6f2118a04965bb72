// Package dom defines the engine's view of a live host document: borrowed
// element references, the handful of writes repli performs on a page, and
// the locator primitives every other component searches with.
//
// Nodes are owned by the host page. A Node obtained before an asynchronous
// step (a completion call, a settle delay) may have been detached or
// replaced by the host in the meantime and must be re-resolved.
package dom

import (
	"context"
	"errors"
)

// ErrElementNotFound is returned when a required anchor cannot be located.
var ErrElementNotFound = errors.New("dom: element not found")

// TriggerAttr is the marker attribute carried by every injected trigger.
// Its presence inside a container is the container's injection record.
const TriggerAttr = "data-repli-trigger"

// TriggerSelector matches any injected trigger.
const TriggerSelector = "[" + TriggerAttr + "]"

// Node is a borrowed reference to an element of the host document.
type Node interface {
	// Parent returns the parent element, or nil at the document root.
	Parent() (Node, error)
	// Query returns the first descendant matching selector in document
	// order, or nil when nothing matches.
	Query(selector string) (Node, error)
	// QueryAll returns every descendant matching selector in document order.
	QueryAll(selector string) ([]Node, error)
	// Text returns the rendered text of the element.
	Text() (string, error)
	// Attribute returns the attribute value and whether it is present.
	Attribute(name string) (string, bool, error)
	// Key identifies the underlying element for the lifetime of the page.
	// Two Nodes referencing the same element return the same key.
	Key() (string, error)
	// Connected reports whether the element is still attached to the document.
	Connected() (bool, error)
}

// TriggerState is the visual state of an injected trigger.
type TriggerState int

const (
	TriggerIdle    TriggerState = iota // enabled, icon shown
	TriggerPending                     // disabled, loading indicator shown
)

func (s TriggerState) String() string {
	switch s {
	case TriggerIdle:
		return "idle"
	case TriggerPending:
		return "pending"
	default:
		return "unknown"
	}
}

// TriggerSpec describes a trigger to insert.
type TriggerSpec struct {
	ID    string // value of TriggerAttr
	Title string // tooltip / accessible label
}

// Page is the host document plus the writes the engine performs on it.
type Page interface {
	// Root returns the document element.
	Root(ctx context.Context) (Node, error)
	// InsertTrigger inserts a trigger into container, immediately before
	// the child before, and returns the inserted element.
	InsertTrigger(ctx context.Context, container, before Node, t TriggerSpec) (Node, error)
	// FindTrigger re-resolves a trigger by id. Returns ErrElementNotFound
	// when the host removed it.
	FindTrigger(ctx context.Context, id string) (Node, error)
	// SetTriggerState switches a trigger between idle and pending.
	SetTriggerState(ctx context.Context, trigger Node, state TriggerState) error
	// ShowError opens the modal error panel with a single dismiss action.
	ShowError(ctx context.Context, message string) error

	Focus(ctx context.Context, n Node) error
	// SelectContents selects the whole current content of an editable
	// element: select() for input/textarea, a range otherwise.
	SelectContents(ctx context.Context, n Node) error
	// DispatchPaste dispatches a synthetic paste event carrying text as
	// text/plain clipboard data on n.
	DispatchPaste(ctx context.Context, n Node, text string) error
}

// Activator delivers trigger activations (user clicks) as trigger ids.
type Activator interface {
	Activations() <-chan string
}
