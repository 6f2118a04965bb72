// Package htmldom is an in-memory dom.Page backed by golang.org/x/net/html.
//
// It serves two purposes: offline inspection of saved host pages (repli
// inspect) and deterministic tests of the engine. It models the parts of
// a live document the engine depends on: structural-change notifications
// that can be paused, focus and selection, and an editable region that
// only accepts content through its paste handler.
package htmldom

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/repli/dom"
	"github.com/hazyhaar/repli/mutation"
)

// pasteHandler decides what a paste does to its target. Returning false
// models a framework that silently rejects the event.
type pasteHandler func(target *html.Node, text string) bool

// Document is a parsed host document.
type Document struct {
	mu   sync.Mutex
	root *html.Node

	url       string
	sessionID string

	focused  *html.Node
	selected *html.Node
	onPaste  pasteHandler
	panels   []string

	observing   bool
	seq         uint64
	changes     chan mutation.Batch
	activations chan string
	navigations chan string
}

// Option configures a Document.
type Option func(*Document)

// WithURL sets the document URL.
func WithURL(u string) Option { return func(d *Document) { d.url = u } }

// Parse reads an HTML document.
func Parse(r io.Reader, opts ...Option) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("htmldom: parse: %w", err)
	}
	d := &Document{
		root:        root,
		changes:     make(chan mutation.Batch, 256),
		activations: make(chan string, 16),
		navigations: make(chan string, 16),
	}
	for _, o := range opts {
		o(d)
	}
	return d, nil
}

// ParseString is Parse over a string.
func ParseString(s string, opts ...Option) (*Document, error) {
	return Parse(strings.NewReader(s), opts...)
}

// URL returns the current document URL.
func (d *Document) URL() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.url
}

// HTML renders the current document.
func (d *Document) HTML() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var b strings.Builder
	html.Render(&b, d.root)
	return b.String()
}

// Panels returns the messages of the error panels currently open.
func (d *Document) Panels() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.panels...)
}

// --- dom.Page ---

func (d *Document) Root(_ context.Context) (dom.Node, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for c := d.root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return d.wrap(c), nil
		}
	}
	return nil, dom.ErrElementNotFound
}

func (d *Document) InsertTrigger(_ context.Context, container, before dom.Node, t dom.TriggerSpec) (dom.Node, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	c, err := d.unwrap(container)
	if err != nil {
		return nil, err
	}
	b, err := d.unwrap(before)
	if err != nil {
		return nil, err
	}
	if b.Parent != c {
		return nil, fmt.Errorf("htmldom: insert trigger: anchor is not a child of the container")
	}

	btn := &html.Node{
		Type:     html.ElementNode,
		Data:     "button",
		DataAtom: atom.Button,
		Attr: []html.Attribute{
			{Key: "type", Val: "button"},
			{Key: dom.TriggerAttr, Val: t.ID},
			{Key: "title", Val: t.Title},
			{Key: "aria-label", Val: t.Title},
		},
	}
	setTriggerContent(btn, dom.TriggerIdle)
	c.InsertBefore(btn, b)
	d.changedLocked(mutation.Record{Op: mutation.OpInsert, NodeType: 1, Tag: "button"})
	return d.wrap(btn), nil
}

func (d *Document) FindTrigger(_ context.Context, id string) (dom.Node, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := d.findTriggerLocked(id)
	if n == nil {
		return nil, fmt.Errorf("htmldom: trigger %s: %w", id, dom.ErrElementNotFound)
	}
	return d.wrap(n), nil
}

func (d *Document) SetTriggerState(_ context.Context, trigger dom.Node, state dom.TriggerState) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, err := d.unwrap(trigger)
	if err != nil {
		return err
	}
	switch state {
	case dom.TriggerPending:
		setAttr(t, "disabled", "")
		setAttr(t, "aria-busy", "true")
	default:
		removeAttr(t, "disabled")
		removeAttr(t, "aria-busy")
	}
	setTriggerContent(t, state)
	d.changedLocked(mutation.Record{Op: mutation.OpInsert, NodeType: 1, Tag: "span"})
	return nil
}

func (d *Document) ShowError(_ context.Context, message string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	body := queryFirst(d.root, mustCompile("body"))
	if body == nil {
		return fmt.Errorf("htmldom: show error: %w", dom.ErrElementNotFound)
	}

	panel := element(atom.Div, html.Attribute{Key: "id", Val: "repli-modal"}, html.Attribute{Key: "role", Val: "dialog"})
	header := element(atom.Div)
	header.AppendChild(&html.Node{Type: html.TextNode, Data: dom.PanelTitle})
	msg := element(atom.P)
	frag, err := html.ParseFragment(strings.NewReader(dom.PanelHTML(message)), msg)
	if err != nil {
		return fmt.Errorf("htmldom: show error: %w", err)
	}
	for _, f := range frag {
		msg.AppendChild(f)
	}
	closeBtn := element(atom.Button, html.Attribute{Key: "type", Val: "button"})
	closeBtn.AppendChild(&html.Node{Type: html.TextNode, Data: dom.PanelDismiss})

	panel.AppendChild(header)
	panel.AppendChild(msg)
	panel.AppendChild(closeBtn)
	body.AppendChild(panel)

	d.panels = append(d.panels, textOf(msg))
	d.changedLocked(mutation.Record{Op: mutation.OpInsert, NodeType: 1, Tag: "div"})
	return nil
}

func (d *Document) Focus(_ context.Context, n dom.Node) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, err := d.unwrap(n)
	if err != nil {
		return err
	}
	if d.focused != t {
		d.selected = nil
	}
	d.focused = t
	return nil
}

func (d *Document) SelectContents(_ context.Context, n dom.Node) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, err := d.unwrap(n)
	if err != nil {
		return err
	}
	d.selected = t
	return nil
}

func (d *Document) DispatchPaste(_ context.Context, n dom.Node, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, err := d.unwrap(n)
	if err != nil {
		return err
	}
	if d.onPaste != nil {
		if !d.onPaste(t, text) {
			return nil
		}
	} else {
		d.defaultPaste(t, text)
	}
	d.changedLocked(mutation.Record{Op: mutation.OpText})
	return nil
}

// defaultPaste behaves like a controlled editor: the pasted text replaces
// the selection when the target is focused and fully selected, and is
// appended at the caret (end) otherwise. Pastes on unfocused elements are
// ignored.
func (d *Document) defaultPaste(t *html.Node, text string) {
	if d.focused != t {
		return
	}
	replace := d.selected == t
	if t.DataAtom == atom.Input {
		if !replace {
			text = getAttr(t, "value") + text
		}
		setAttr(t, "value", text)
		return
	}
	if replace {
		for c := t.FirstChild; c != nil; c = t.FirstChild {
			t.RemoveChild(c)
		}
	}
	t.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	d.selected = nil
}

// --- change source ---

// Changes delivers a batch for every structural change made while the
// document is observed. Batches are dropped when the buffer is full; the
// next scan reads the whole tree anyway.
func (d *Document) Changes() <-chan mutation.Batch { return d.changes }

// Pause stops change notifications.
func (d *Document) Pause(_ context.Context) error {
	d.mu.Lock()
	d.observing = false
	d.mu.Unlock()
	return nil
}

// Resume (re)starts change notifications.
func (d *Document) Resume(_ context.Context) error {
	d.mu.Lock()
	d.observing = true
	d.mu.Unlock()
	return nil
}

// Observing reports whether change notifications are active.
func (d *Document) Observing() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.observing
}

func (d *Document) changedLocked(recs ...mutation.Record) {
	if !d.observing {
		return
	}
	d.seq++
	b := mutation.Batch{
		SessionID: d.sessionID,
		PageURL:   d.url,
		Seq:       d.seq,
		Records:   recs,
		Timestamp: time.Now().UnixMilli(),
	}
	select {
	case d.changes <- b:
	default:
	}
}

// --- host simulation ---

// Append parses fragment and appends it to the first element matching
// parentSelector, as a host re-render would.
func (d *Document) Append(parentSelector, fragment string) error {
	sel, err := compile(parentSelector)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	parent := queryFirst(d.root, sel)
	if parent == nil {
		return fmt.Errorf("htmldom: append to %q: %w", parentSelector, dom.ErrElementNotFound)
	}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), parent)
	if err != nil {
		return fmt.Errorf("htmldom: append: %w", err)
	}
	for _, n := range nodes {
		parent.AppendChild(n)
	}
	d.changedLocked(mutation.Record{Op: mutation.OpInsert, NodeType: 1, Tag: parent.Data})
	return nil
}

// Remove detaches every element matching selector.
func (d *Document) Remove(selector string) error {
	sel, err := compile(selector)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, n := range queryAll(d.root, sel) {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}
	d.changedLocked(mutation.Record{Op: mutation.OpRemove, NodeType: 1})
	return nil
}

// Click activates the trigger with the given id, as a user click would.
// Disabled triggers swallow the click.
func (d *Document) Click(id string) error {
	d.mu.Lock()
	t := d.findTriggerLocked(id)
	if t == nil {
		d.mu.Unlock()
		return fmt.Errorf("htmldom: click %s: %w", id, dom.ErrElementNotFound)
	}
	_, disabled := lookupAttr(t, "disabled")
	d.mu.Unlock()

	if disabled {
		return nil
	}
	d.activations <- id
	return nil
}

// Activations implements dom.Activator.
func (d *Document) Activations() <-chan string { return d.activations }

// Navigate records an in-document navigation to u.
func (d *Document) Navigate(u string) {
	d.mu.Lock()
	d.url = u
	d.mu.Unlock()
	d.navigations <- u
}

// Navigations delivers URLs the document navigated to.
func (d *Document) Navigations() <-chan string { return d.navigations }

// --- internals ---

func (d *Document) findTriggerLocked(id string) *html.Node {
	var found *html.Node
	eachElement(d.root, func(n *html.Node) bool {
		if v, ok := lookupAttr(n, dom.TriggerAttr); ok && v == id {
			found = n
			return false
		}
		return true
	})
	return found
}

func (d *Document) wrap(n *html.Node) *Node {
	return &Node{doc: d, n: n}
}

func (d *Document) unwrap(n dom.Node) (*html.Node, error) {
	hn, ok := n.(*Node)
	if !ok || hn == nil || hn.doc != d {
		return nil, fmt.Errorf("htmldom: foreign node %T", n)
	}
	return hn.n, nil
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: a.String(), DataAtom: a, Attr: attrs}
}

func setTriggerContent(t *html.Node, state dom.TriggerState) {
	for c := t.FirstChild; c != nil; c = t.FirstChild {
		t.RemoveChild(c)
	}
	span := element(atom.Span, html.Attribute{Key: "class", Val: "repli-" + state.String()})
	label := "✦"
	if state == dom.TriggerPending {
		label = "…"
	}
	span.AppendChild(&html.Node{Type: html.TextNode, Data: label})
	t.AppendChild(span)
}

func mustCompile(s string) selector {
	sel, err := compile(s)
	if err != nil {
		panic(err)
	}
	return sel
}
