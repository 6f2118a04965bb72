package htmldom

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/hazyhaar/repli/dom"
)

const docFixture = `<html><body>
<div id="post"><p class="text">hello world</p>
  <div id="bar"><span id="anchor">a</span><span>b</span></div>
  <div id="editor" contenteditable="true">draft</div>
  <input id="field" value="old">
</div>
</body></html>`

func newDoc(t *testing.T, opts ...Option) *Document {
	t.Helper()
	d, err := ParseString(docFixture, opts...)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return d
}

func mustQuery(t *testing.T, d *Document, sel string) dom.Node {
	t.Helper()
	root, err := d.Root(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	n, err := root.Query(sel)
	if err != nil {
		t.Fatal(err)
	}
	if n == nil {
		t.Fatalf("no match for %q", sel)
	}
	return n
}

func TestInsertAndFindTrigger(t *testing.T) {
	ctx := context.Background()
	d := newDoc(t)

	bar := mustQuery(t, d, "#bar")
	anchor := mustQuery(t, d, "#anchor")
	trig, err := d.InsertTrigger(ctx, bar, anchor, dom.TriggerSpec{ID: "trg_1", Title: "Generate reply"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	first, err := bar.Query("*")
	if err != nil {
		t.Fatal(err)
	}
	k1, _ := first.Key()
	k2, _ := trig.Key()
	if k1 != k2 {
		t.Fatal("trigger must be inserted before the anchor")
	}

	found, err := d.FindTrigger(ctx, "trg_1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if title, _, _ := found.Attribute("title"); title != "Generate reply" {
		t.Errorf("title = %q", title)
	}

	if _, err := d.FindTrigger(ctx, "trg_missing"); !errors.Is(err, dom.ErrElementNotFound) {
		t.Errorf("missing trigger: err = %v, want ErrElementNotFound", err)
	}
}

func TestInsertTriggerRejectsNonChild(t *testing.T) {
	d := newDoc(t)
	post := mustQuery(t, d, "#post")
	anchor := mustQuery(t, d, "#anchor")
	if _, err := d.InsertTrigger(context.Background(), post, anchor, dom.TriggerSpec{ID: "x"}); err == nil {
		t.Fatal("expected error for an anchor that is not a direct child")
	}
}

func TestTriggerStateAndClick(t *testing.T) {
	ctx := context.Background()
	d := newDoc(t)
	trig, err := d.InsertTrigger(ctx, mustQuery(t, d, "#bar"), mustQuery(t, d, "#anchor"), dom.TriggerSpec{ID: "trg_1"})
	if err != nil {
		t.Fatal(err)
	}

	if err := d.SetTriggerState(ctx, trig, dom.TriggerPending); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := trig.Attribute("disabled"); !ok {
		t.Error("pending trigger must be disabled")
	}
	if err := d.Click("trg_1"); err != nil {
		t.Fatal(err)
	}
	select {
	case id := <-d.Activations():
		t.Fatalf("disabled trigger delivered activation %s", id)
	default:
	}

	if err := d.SetTriggerState(ctx, trig, dom.TriggerIdle); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := trig.Attribute("disabled"); ok {
		t.Error("idle trigger must be enabled")
	}
	if err := d.Click("trg_1"); err != nil {
		t.Fatal(err)
	}
	if id := <-d.Activations(); id != "trg_1" {
		t.Errorf("activation = %q", id)
	}
}

func TestChangesOnlyWhileObserving(t *testing.T) {
	d := newDoc(t)

	if err := d.Append("#post", "<div>one</div>"); err != nil {
		t.Fatal(err)
	}
	select {
	case <-d.Changes():
		t.Fatal("change delivered while not observing")
	default:
	}

	d.Resume(context.Background())
	if err := d.Append("#post", "<div>two</div>"); err != nil {
		t.Fatal(err)
	}
	b := <-d.Changes()
	if !b.Structural() || b.Seq != 1 {
		t.Errorf("batch = %+v", b)
	}

	d.Pause(context.Background())
	if err := d.Remove("#bar"); err != nil {
		t.Fatal(err)
	}
	select {
	case <-d.Changes():
		t.Fatal("change delivered while paused")
	default:
	}
}

func TestConnected(t *testing.T) {
	d := newDoc(t)
	n := mustQuery(t, d, "#editor")
	if ok, _ := n.Connected(); !ok {
		t.Fatal("editor should be connected")
	}
	if err := d.Remove("#editor"); err != nil {
		t.Fatal(err)
	}
	if ok, _ := n.Connected(); ok {
		t.Fatal("removed editor reported connected")
	}
}

func TestDefaultPaste(t *testing.T) {
	ctx := context.Background()
	d := newDoc(t)
	ed := mustQuery(t, d, "#editor")

	// Unfocused: ignored.
	if err := d.DispatchPaste(ctx, ed, "x"); err != nil {
		t.Fatal(err)
	}
	if got, _ := ed.Text(); got != "draft" {
		t.Fatalf("unfocused paste changed text to %q", got)
	}

	// Focused, no selection: appended at the caret.
	d.Focus(ctx, ed)
	d.DispatchPaste(ctx, ed, "!")
	if got, _ := ed.Text(); got != "draft!" {
		t.Fatalf("caret paste = %q", got)
	}

	// Focused and selected: replaced.
	d.SelectContents(ctx, ed)
	d.DispatchPaste(ctx, ed, "reply")
	if got, _ := ed.Text(); got != "reply" {
		t.Fatalf("replace paste = %q", got)
	}

	in := mustQuery(t, d, "#field")
	d.Focus(ctx, in)
	d.SelectContents(ctx, in)
	d.DispatchPaste(ctx, in, "new")
	if got, _ := in.Text(); got != "new" {
		t.Fatalf("input paste = %q", got)
	}
}

func TestPasteHandlerRejects(t *testing.T) {
	ctx := context.Background()
	d := newDoc(t, withPasteHandler(func(*html.Node, string) bool { return false }))
	ed := mustQuery(t, d, "#editor")
	d.Focus(ctx, ed)
	d.SelectContents(ctx, ed)
	if err := d.DispatchPaste(ctx, ed, "reply"); err != nil {
		t.Fatal(err)
	}
	if got, _ := ed.Text(); got != "draft" {
		t.Fatalf("rejected paste changed text to %q", got)
	}
}

func TestShowErrorSanitizes(t *testing.T) {
	d := newDoc(t)
	if err := d.ShowError(context.Background(), `bad key<script>alert(1)</script>`); err != nil {
		t.Fatal(err)
	}
	panels := d.Panels()
	if len(panels) != 1 || panels[0] != "bad key" {
		t.Fatalf("panels = %q", panels)
	}
	out := d.HTML()
	if strings.Contains(out, "<script>") {
		t.Error("panel markup kept a script element")
	}
	if !strings.Contains(out, dom.PanelDismiss) {
		t.Error("panel has no dismiss action")
	}

	d.dismissError()
	if len(d.Panels()) != 0 || strings.Contains(d.HTML(), "repli-modal") {
		t.Error("dismiss left the panel open")
	}
}

func TestNavigate(t *testing.T) {
	d := newDoc(t, WithURL("https://x.com/home"))
	go d.Navigate("https://x.com/compose/post")
	if u := <-d.Navigations(); u != "https://x.com/compose/post" {
		t.Fatalf("navigation = %q", u)
	}
	if d.URL() != "https://x.com/compose/post" {
		t.Fatalf("url = %q", d.URL())
	}
}
