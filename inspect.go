package repli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hazyhaar/repli/dom"
	"github.com/hazyhaar/repli/inject"
	"github.com/hazyhaar/repli/reply"
	"github.com/hazyhaar/repli/site"
)

// Finding is what an adapter makes of one insertion anchor of a page.
type Finding struct {
	Anchor    int    `json:"anchor"`
	Container string `json:"container,omitempty"`
	Compose   bool   `json:"compose"`
	Existing  int    `json:"existing_triggers"`
	// Qualifies is true when the container would receive a trigger.
	Qualifies bool   `json:"qualifies"`
	Author    string `json:"author,omitempty"`
	Post      string `json:"post,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Inspect runs an adapter's selectors against a page without writing to
// it. It is how selectors are checked against a saved copy of a host page
// after the host changed its markup.
func Inspect(ctx context.Context, page dom.Page, a site.Adapter) ([]Finding, error) {
	root, err := page.Root(ctx)
	if err != nil {
		return nil, fmt.Errorf("repli: inspect: %w", err)
	}
	anchors, err := root.QueryAll(a.TriggerInsertionSelector)
	if err != nil {
		return nil, fmt.Errorf("repli: inspect: %w", err)
	}

	out := make([]Finding, 0, len(anchors))
	for i, anchor := range anchors {
		out = append(out, inspectAnchor(i, anchor, a))
	}
	return out, nil
}

func inspectAnchor(i int, anchor dom.Node, a site.Adapter) Finding {
	f := Finding{Anchor: i}

	container, _, err := a.Container(anchor)
	if err != nil {
		f.Error = describe("container", err)
		return f
	}
	if f.Container, err = container.Key(); err != nil {
		f.Error = describe("container", err)
		return f
	}
	if f.Compose, err = a.IsComposeContext(anchor); err != nil {
		f.Error = describe("compose", err)
		return f
	}
	existing, err := container.QueryAll(dom.TriggerSelector)
	if err != nil {
		f.Error = describe("triggers", err)
		return f
	}
	f.Existing = len(existing)
	plan := inject.Plan([]inject.Candidate{{Key: f.Container, Compose: f.Compose, Existing: f.Existing}}, a.MaxInjectedPerContainer)
	f.Qualifies = len(plan) == 1

	req, err := reply.Scrape(a, anchor)
	if err != nil {
		f.Error = describe("scrape", err)
		return f
	}
	f.Author = strings.TrimSpace(req.Author)
	f.Post = strings.TrimSpace(req.SourceText)
	return f
}

func describe(step string, err error) string {
	if errors.Is(err, dom.ErrElementNotFound) {
		return step + ": not found: " + err.Error()
	}
	return step + ": " + err.Error()
}
