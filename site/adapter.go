// Package site holds the per-host selector contracts.
//
// An Adapter is pure configuration plus one predicate. It carries every
// piece of host-specific knowledge the engine needs, so the injection
// controller and the reply orchestrator stay host-agnostic. When a host
// changes its markup structurally the adapter is edited, not patched at
// runtime.
package site

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/hazyhaar/repli/dom"
)

// Mode selects how triggers are injected on a page.
type Mode int

const (
	// Continuous pages are SPAs: the controller observes structural changes
	// for as long as the session lives.
	Continuous Mode = iota
	// OneShot pages are single compose views: one settled pass, no
	// observation.
	OneShot
)

func (m Mode) String() string {
	switch m {
	case Continuous:
		return "continuous"
	case OneShot:
		return "one-shot"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Adapter is the selector contract for one host.
type Adapter struct {
	Name        string
	URLPrefixes []string
	Mode        Mode

	// TriggerInsertionSelector matches the anchors next to which triggers
	// are inserted. ContainerDepth is the number of parents between an
	// anchor and its qualifying container; the trigger goes into the
	// container, before the child that leads to the anchor.
	TriggerInsertionSelector string
	ContainerDepth           int

	PostTextSelector   string
	AuthorNameSelector string
	InputSelector      string

	// MaxInjectedPerContainer bounds the live triggers in one container.
	MaxInjectedPerContainer int

	// TriggerTitle is the tooltip of injected triggers.
	TriggerTitle string

	prompt  *template.Template
	compose func(anchor dom.Node) (bool, error)
}

// IsComposeContext reports whether anchor belongs to a new-post composer
// rather than a reply composer. Triggers are only injected into replies.
func (a Adapter) IsComposeContext(anchor dom.Node) (bool, error) {
	if a.compose == nil {
		return false, nil
	}
	return a.compose(anchor)
}

// Container resolves the qualifying container of an insertion anchor and
// the container child the trigger is inserted before.
func (a Adapter) Container(anchor dom.Node) (container, before dom.Node, err error) {
	before, err = dom.Ancestor(anchor, a.ContainerDepth-1)
	if err != nil {
		return nil, nil, err
	}
	if before == nil {
		return nil, nil, dom.ErrElementNotFound
	}
	container, err = before.Parent()
	if err != nil {
		return nil, nil, fmt.Errorf("site: %s: container: %w", a.Name, err)
	}
	if container == nil {
		return nil, nil, dom.ErrElementNotFound
	}
	return container, before, nil
}

// Matches reports whether the adapter handles pageURL.
func (a Adapter) Matches(pageURL string) bool {
	for _, p := range a.URLPrefixes {
		if strings.HasPrefix(pageURL, p) {
			return true
		}
	}
	return false
}

var registry = []Adapter{twitter, linkedIn}

// ForURL returns the adapter for a page URL.
func ForURL(pageURL string) (Adapter, bool) {
	for _, a := range registry {
		if a.Matches(pageURL) {
			return a, true
		}
	}
	return Adapter{}, false
}

// ByName returns the adapter with the given name.
func ByName(name string) (Adapter, bool) {
	for _, a := range registry {
		if a.Name == name {
			return a, true
		}
	}
	return Adapter{}, false
}

// Names lists the shipped adapters.
func Names() []string {
	out := make([]string, len(registry))
	for i, a := range registry {
		out[i] = a.Name
	}
	return out
}
