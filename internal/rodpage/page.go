// Package rodpage binds the engine's dom.Page to a live Chrome tab through
// the DevTools protocol.
//
// Structural changes, trigger clicks and history navigations reach Go
// through a Runtime binding called by an injected bridge script; the
// script is re-installed on every new document.
package rodpage

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/hazyhaar/repli/dom"
	"github.com/hazyhaar/repli/mutation"
)

//go:embed bridge.js
var bridgeJS string

const bindingName = "__repli_binding"

const (
	iconIdle    = `<svg width="18" height="18" viewBox="0 0 24 24" aria-hidden="true"><path fill="currentColor" d="M12 2l2.4 7.2H22l-6 4.4 2.3 7.2L12 16.4l-6.3 4.4L8 13.6 2 9.2h7.6z"/></svg>`
	iconPending = `<svg width="18" height="18" viewBox="0 0 24 24" aria-hidden="true"><circle cx="12" cy="12" r="9" fill="none" stroke="currentColor" stroke-width="3" stroke-dasharray="42 15"><animateTransform attributeName="transform" type="rotate" from="0 12 12" to="360 12 12" dur="0.8s" repeatCount="indefinite"/></circle></svg>`
)

// Page is a dom.Page over a rod page. It also implements the injection
// controller's change source, dom.Activator and a navigation feed.
type Page struct {
	page      *rod.Page
	logger    *slog.Logger
	sessionID string

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	url       string
	observing bool

	seq         atomic.Uint64
	changes     chan mutation.Batch
	activations chan string
	navigations chan string
	removeInit  func() error
}

var _ dom.Page = (*Page)(nil)

// Option configures a Page.
type Option func(*Page)

func WithLogger(l *slog.Logger) Option { return func(p *Page) { p.logger = l } }

// WithSessionID stamps emitted batches.
func WithSessionID(id string) Option { return func(p *Page) { p.sessionID = id } }

// Attach installs the bridge on page and starts forwarding its events.
// Change delivery starts paused; call Resume.
func Attach(ctx context.Context, page *rod.Page, opts ...Option) (*Page, error) {
	p := &Page{
		page:        page,
		logger:      slog.Default(),
		changes:     make(chan mutation.Batch, 256),
		activations: make(chan string, 16),
		navigations: make(chan string, 16),
	}
	for _, o := range opts {
		o(p)
	}
	p.ctx, p.cancel = context.WithCancel(ctx)

	if info, err := page.Info(); err == nil {
		p.url = info.URL
	}

	if err := (proto.RuntimeAddBinding{Name: bindingName}).Call(page); err != nil {
		p.logger.Warn("rodpage: addBinding failed (may already exist)", "error", err)
	}
	remove, err := page.EvalOnNewDocument(bridgeJS)
	if err != nil {
		p.cancel()
		return nil, fmt.Errorf("rodpage: install bridge: %w", err)
	}
	p.removeInit = remove
	if _, err := page.Eval(bridgeJS); err != nil {
		p.cancel()
		return nil, fmt.Errorf("rodpage: inject bridge: %w", err)
	}

	go p.listen()
	return p, nil
}

// Detach stops forwarding events and pauses observation. The bridge
// stays installed in the current document but stays silent.
func (p *Page) Detach(ctx context.Context) error {
	err := p.Pause(ctx)
	if p.removeInit != nil {
		if rerr := p.removeInit(); rerr != nil && err == nil {
			err = rerr
		}
	}
	p.cancel()
	return err
}

// URL returns the URL of the current document.
func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

// Rod returns the underlying rod page.
func (p *Page) Rod() *rod.Page { return p.page }

func (p *Page) Root(ctx context.Context) (dom.Node, error) {
	has, el, err := p.page.Context(ctx).Has("html")
	if err != nil {
		return nil, fmt.Errorf("rodpage: root: %w", err)
	}
	if !has {
		return nil, fmt.Errorf("rodpage: root: %w", dom.ErrElementNotFound)
	}
	return wrap(el), nil
}

func (p *Page) InsertTrigger(ctx context.Context, container, before dom.Node, t dom.TriggerSpec) (dom.Node, error) {
	c, err := unwrap(container)
	if err != nil {
		return nil, err
	}
	b, err := unwrap(before)
	if err != nil {
		return nil, err
	}
	el, err := c.Context(ctx).ElementByJS(rod.Eval(`(before, attr, id, title, icon) => {
		if (before.parentElement !== this) throw new Error("insertion point is not a child of the container");
		const btn = document.createElement("button");
		btn.type = "button";
		btn.className = "repli-trigger";
		btn.setAttribute(attr, id);
		btn.title = title;
		btn.setAttribute("aria-label", title);
		btn.style.cssText = "background:none;border:0;cursor:pointer;padding:4px;color:inherit;display:inline-flex;align-items:center";
		btn.innerHTML = icon;
		this.insertBefore(btn, before);
		return btn;
	}`, b.Object, dom.TriggerAttr, t.ID, t.Title, iconIdle))
	if err != nil {
		return nil, fmt.Errorf("rodpage: insert trigger: %w", err)
	}
	return wrap(el), nil
}

func (p *Page) FindTrigger(ctx context.Context, id string) (dom.Node, error) {
	sel := "[" + dom.TriggerAttr + "=" + strconv.Quote(id) + "]"
	has, el, err := p.page.Context(ctx).Has(sel)
	if err != nil {
		return nil, fmt.Errorf("rodpage: find trigger %q: %w", id, err)
	}
	if !has {
		return nil, fmt.Errorf("rodpage: trigger %q: %w", id, dom.ErrElementNotFound)
	}
	return wrap(el), nil
}

func (p *Page) SetTriggerState(ctx context.Context, trigger dom.Node, state dom.TriggerState) error {
	el, err := unwrap(trigger)
	if err != nil {
		return err
	}
	busy := state == dom.TriggerPending
	icon := iconIdle
	if busy {
		icon = iconPending
	}
	_, err = el.Context(ctx).Eval(`(busy, icon) => {
		this.disabled = busy;
		if (busy) this.setAttribute("aria-busy", "true"); else this.removeAttribute("aria-busy");
		this.innerHTML = icon;
	}`, busy, icon)
	if err != nil {
		return fmt.Errorf("rodpage: set trigger state %s: %w", state, err)
	}
	return nil
}

func (p *Page) ShowError(ctx context.Context, message string) error {
	_, err := p.page.Context(ctx).Eval(`(title, body, dismiss) => {
		const old = document.getElementById("repli-modal");
		if (old) old.remove();
		const overlay = document.createElement("div");
		overlay.id = "repli-modal";
		overlay.setAttribute("role", "alertdialog");
		overlay.style.cssText = "position:fixed;inset:0;z-index:2147483647;background:rgba(0,0,0,.4);display:flex;align-items:center;justify-content:center";
		const box = document.createElement("div");
		box.style.cssText = "background:#fff;color:#111;max-width:420px;padding:20px;border-radius:8px;font:14px sans-serif;box-shadow:0 4px 24px rgba(0,0,0,.3)";
		const h = document.createElement("h2");
		h.textContent = title;
		h.style.cssText = "margin:0 0 8px;font-size:16px";
		const p = document.createElement("p");
		p.innerHTML = body;
		const btn = document.createElement("button");
		btn.type = "button";
		btn.textContent = dismiss;
		btn.addEventListener("click", () => overlay.remove());
		box.append(h, p, btn);
		overlay.append(box);
		document.body.append(overlay);
	}`, dom.PanelTitle, dom.PanelHTML(message), dom.PanelDismiss)
	if err != nil {
		return fmt.Errorf("rodpage: show error: %w", err)
	}
	return nil
}

func (p *Page) Focus(ctx context.Context, n dom.Node) error {
	el, err := unwrap(n)
	if err != nil {
		return err
	}
	if err := el.Context(ctx).Focus(); err != nil {
		return fmt.Errorf("rodpage: focus: %w", err)
	}
	return nil
}

func (p *Page) SelectContents(ctx context.Context, n dom.Node) error {
	el, err := unwrap(n)
	if err != nil {
		return err
	}
	_, err = el.Context(ctx).Eval(`() => {
		if (this instanceof HTMLInputElement || this instanceof HTMLTextAreaElement) {
			this.select();
			return;
		}
		const range = document.createRange();
		range.selectNodeContents(this);
		const sel = window.getSelection();
		sel.removeAllRanges();
		sel.addRange(range);
	}`)
	if err != nil {
		return fmt.Errorf("rodpage: select contents: %w", err)
	}
	return nil
}

func (p *Page) DispatchPaste(ctx context.Context, n dom.Node, text string) error {
	el, err := unwrap(n)
	if err != nil {
		return err
	}
	_, err = el.Context(ctx).Eval(`(text) => {
		const data = new DataTransfer();
		data.setData("text/plain", text);
		const ev = new ClipboardEvent("paste", { clipboardData: data, bubbles: true, cancelable: true });
		this.dispatchEvent(ev);
	}`, text)
	if err != nil {
		return fmt.Errorf("rodpage: dispatch paste: %w", err)
	}
	return nil
}
