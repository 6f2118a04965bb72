// Package reply turns a trigger activation into a committed reply.
package reply

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/repli/completion"
	"github.com/hazyhaar/repli/dom"
	"github.com/hazyhaar/repli/settings"
	"github.com/hazyhaar/repli/site"
	"github.com/hazyhaar/repli/writer"
)

// Request is the scraped context of one activation.
type Request struct {
	Author       string
	SourceText   string
	Instructions string
}

// Prompt renders r through the adapter's template.
func (r Request) Prompt(a site.Adapter) (string, error) {
	return a.Prompt(site.PromptInput{
		Author:       r.Author,
		Text:         r.SourceText,
		Instructions: r.Instructions,
	})
}

// Outcome is the result of one activation.
type Outcome struct {
	Text string // normalized reply, set on success
	Err  error
}

// OK reports success.
func (o Outcome) OK() bool { return o.Err == nil }

// Config for creating an Orchestrator.
type Config struct {
	Adapter   site.Adapter
	Page      dom.Page
	Writer    writer.Writer
	Completer completion.Completer
	Settings  settings.Source
	Logger    *slog.Logger
	// OnOutcome is called once per activation that was not rejected as busy.
	OnOutcome func(triggerID string, o Outcome, elapsed time.Duration)
}

// Orchestrator runs activations for one page. Activations of different
// triggers run independently; a trigger has at most one in flight.
type Orchestrator struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

// New validates cfg.
func New(cfg Config) (*Orchestrator, error) {
	switch {
	case cfg.Page == nil:
		return nil, fmt.Errorf("reply: page is required")
	case cfg.Writer == nil:
		return nil, fmt.Errorf("reply: writer is required")
	case cfg.Completer == nil:
		return nil, fmt.Errorf("reply: completer is required")
	case cfg.Settings == nil:
		return nil, fmt.Errorf("reply: settings source is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Orchestrator{
		cfg:      cfg,
		logger:   cfg.Logger.With("site", cfg.Adapter.Name),
		inflight: make(map[string]struct{}),
	}, nil
}

// Pending reports whether triggerID has an activation in flight.
func (o *Orchestrator) Pending(triggerID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.inflight[triggerID]
	return ok
}

func (o *Orchestrator) acquire(id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, busy := o.inflight[id]; busy {
		return false
	}
	o.inflight[id] = struct{}{}
	return true
}

func (o *Orchestrator) release(id string) {
	o.mu.Lock()
	delete(o.inflight, id)
	o.mu.Unlock()
}

// Activate handles a click on the trigger with the given id. It never
// returns an error to the page: failures end in the generic error panel
// (or silently, when the trigger or composer is gone) and are reported in
// the Outcome.
func (o *Orchestrator) Activate(ctx context.Context, triggerID string) Outcome {
	if !o.acquire(triggerID) {
		o.logger.Debug("reply: activation ignored, trigger pending", "trigger", triggerID)
		return Outcome{Err: ErrBusy}
	}
	defer o.release(triggerID)

	start := time.Now()
	out := o.activate(ctx, triggerID)
	if out.OK() {
		o.logger.Info("reply: committed", "trigger", triggerID,
			"chars", len(out.Text), "elapsed", time.Since(start))
	} else {
		o.logger.Warn("reply: activation failed", "trigger", triggerID,
			"error", out.Err, "elapsed", time.Since(start))
	}
	if o.cfg.OnOutcome != nil {
		o.cfg.OnOutcome(triggerID, out, time.Since(start))
	}
	return out
}

func (o *Orchestrator) activate(ctx context.Context, id string) Outcome {
	a := o.cfg.Adapter
	page := o.cfg.Page

	trigger, err := page.FindTrigger(ctx, id)
	if err != nil {
		return Outcome{Err: fmt.Errorf("reply: trigger %s: %w", id, err)}
	}

	req, err := Scrape(a, trigger)
	if err != nil {
		o.showError(ctx)
		return Outcome{Err: err}
	}

	if err := page.SetTriggerState(ctx, trigger, dom.TriggerPending); err != nil {
		return Outcome{Err: fmt.Errorf("reply: enter pending: %w", err)}
	}
	defer o.restoreIdle(ctx, id)

	snap, err := o.cfg.Settings.Snapshot(ctx)
	if err != nil {
		o.showError(ctx)
		return Outcome{Err: fmt.Errorf("reply: read settings: %w", err)}
	}
	req.Instructions = snap.CustomInstructions

	prompt, err := req.Prompt(a)
	if err != nil {
		o.showError(ctx)
		return Outcome{Err: err}
	}

	raw, err := o.cfg.Completer.Complete(ctx, completion.Request{
		APIKey: snap.APIKey,
		Model:  snap.Model,
		Prompt: prompt,
	})
	if err != nil {
		if ctx.Err() == nil {
			o.showError(ctx)
		}
		return Outcome{Err: fmt.Errorf("reply: complete: %w", err)}
	}
	text := Normalize(raw)

	// The page kept running while the completion was in flight.
	input, err := o.resolveInput(ctx, id)
	if err != nil {
		return Outcome{Err: err}
	}
	if err := o.cfg.Writer.Commit(ctx, input, text); err != nil {
		o.showError(ctx)
		return Outcome{Err: fmt.Errorf("reply: commit: %w", err)}
	}
	return Outcome{Text: text}
}

// Scrape captures the post text and author nearest to from (a trigger or
// its anchor) and checks that a composer exists.
func Scrape(a site.Adapter, from dom.Node) (Request, error) {
	post, err := dom.Require(dom.FindNearestAncestorMatchingDescendant(from, a.PostTextSelector))
	if err != nil {
		return Request{}, fmt.Errorf("reply: post text: %w", err)
	}
	author, err := dom.Require(dom.FindNearestAncestorMatchingDescendant(post, a.AuthorNameSelector))
	if err != nil {
		return Request{}, fmt.Errorf("reply: author: %w", err)
	}
	if _, err := dom.Require(dom.FindNearestAncestorMatchingDescendant(from, a.InputSelector)); err != nil {
		return Request{}, fmt.Errorf("reply: composer: %w", err)
	}

	text, err := post.Text()
	if err != nil {
		return Request{}, fmt.Errorf("reply: post text: %w", err)
	}
	name, err := author.Text()
	if err != nil {
		return Request{}, fmt.Errorf("reply: author: %w", err)
	}
	return Request{Author: name, SourceText: text}, nil
}

func (o *Orchestrator) resolveInput(ctx context.Context, id string) (dom.Node, error) {
	trigger, err := o.cfg.Page.FindTrigger(ctx, id)
	if errors.Is(err, dom.ErrElementNotFound) {
		return nil, ErrDetached
	}
	if err != nil {
		return nil, fmt.Errorf("reply: re-resolve trigger: %w", err)
	}
	input, err := dom.FindNearestAncestorMatchingDescendant(trigger, o.cfg.Adapter.InputSelector)
	if err != nil {
		return nil, fmt.Errorf("reply: re-resolve composer: %w", err)
	}
	if input == nil {
		return nil, ErrDetached
	}
	if ok, err := input.Connected(); err != nil || !ok {
		return nil, ErrDetached
	}
	return input, nil
}

func (o *Orchestrator) restoreIdle(ctx context.Context, id string) {
	ctx = context.WithoutCancel(ctx)
	trigger, err := o.cfg.Page.FindTrigger(ctx, id)
	if err != nil {
		// Removed by the host; nothing left to restore.
		return
	}
	if err := o.cfg.Page.SetTriggerState(ctx, trigger, dom.TriggerIdle); err != nil {
		o.logger.Warn("reply: restore idle failed", "trigger", id, "error", err)
	}
}

func (o *Orchestrator) showError(ctx context.Context) {
	if err := o.cfg.Page.ShowError(context.WithoutCancel(ctx), GenericError); err != nil {
		o.logger.Warn("reply: show error panel failed", "error", err)
	}
}
