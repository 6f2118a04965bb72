package rodpage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-rod/rod/lib/proto"

	"github.com/hazyhaar/repli/mutation"
)

type bridgeMessage struct {
	Kind    string            `json:"kind"`
	ID      string            `json:"id"`
	Records []mutation.Record `json:"records"`
}

// listen forwards binding calls and main-frame navigations until Detach.
func (p *Page) listen() {
	p.page.Context(p.ctx).EachEvent(
		func(e *proto.RuntimeBindingCalled) {
			if e.Name != bindingName {
				return
			}
			var msg bridgeMessage
			if err := json.Unmarshal([]byte(e.Payload), &msg); err != nil {
				p.logger.Warn("rodpage: parse binding payload", "error", err)
				return
			}
			p.handle(msg)
		},
		func(e *proto.PageFrameNavigated) {
			if e.Frame == nil || e.Frame.ParentID != "" {
				return
			}
			go p.documentReplaced(e.Frame.URL)
		},
		func(e *proto.PageNavigatedWithinDocument) {
			p.navigated(e.URL)
		},
	)()
}

func (p *Page) handle(msg bridgeMessage) {
	switch msg.Kind {
	case "changes":
		p.emit(msg.Records)
	case "activate":
		select {
		case p.activations <- msg.ID:
		default:
			p.logger.Warn("rodpage: activation dropped", "trigger", msg.ID)
		}
	default:
		p.logger.Debug("rodpage: unknown bridge message", "kind", msg.Kind)
	}
}

// documentReplaced handles a full navigation: the new document got a fresh
// bridge from EvalOnNewDocument, which starts paused.
func (p *Page) documentReplaced(url string) {
	p.mu.Lock()
	observing := p.observing
	p.mu.Unlock()

	p.emit([]mutation.Record{{Op: mutation.OpDocReset}})
	if observing {
		if err := p.call(p.ctx, "resume"); err != nil {
			p.logger.Warn("rodpage: resume after navigation", "url", url, "error", err)
		}
	}
	p.navigated(url)
}

func (p *Page) navigated(url string) {
	p.mu.Lock()
	changed := p.url != url
	p.url = url
	p.mu.Unlock()
	if !changed {
		return
	}
	p.logger.Debug("rodpage: navigated", "url", url)
	select {
	case p.navigations <- url:
	default:
		p.logger.Warn("rodpage: navigation dropped", "url", url)
	}
}

func (p *Page) emit(records []mutation.Record) {
	if len(records) == 0 {
		return
	}
	b := mutation.Batch{
		SessionID: p.sessionID,
		PageURL:   p.URL(),
		Seq:       p.seq.Add(1),
		Records:   records,
		Timestamp: time.Now().UnixMilli(),
	}
	select {
	case p.changes <- b:
	default:
		p.logger.Warn("rodpage: change batch dropped", "seq", b.Seq)
	}
}

// Changes delivers structural change batches while observing.
func (p *Page) Changes() <-chan mutation.Batch { return p.changes }

// Activations delivers the ids of clicked triggers.
func (p *Page) Activations() <-chan string { return p.activations }

// Navigations delivers the new URL after each main-frame or history
// navigation.
func (p *Page) Navigations() <-chan string { return p.navigations }

// Pause disconnects the page's mutation observer. Records already queued
// by the observer are flushed first.
func (p *Page) Pause(ctx context.Context) error {
	p.mu.Lock()
	p.observing = false
	p.mu.Unlock()
	return p.call(ctx, "pause")
}

// Resume reconnects the page's mutation observer.
func (p *Page) Resume(ctx context.Context) error {
	p.mu.Lock()
	p.observing = true
	p.mu.Unlock()
	return p.call(ctx, "resume")
}

func (p *Page) call(ctx context.Context, method string) error {
	_, err := p.page.Context(ctx).Eval(`(method) => {
		if (!window.__repli) return false;
		window.__repli[method]();
		return true;
	}`, method)
	if err != nil {
		return fmt.Errorf("rodpage: %s: %w", method, err)
	}
	return nil
}
