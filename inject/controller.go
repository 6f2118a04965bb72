// Package inject keeps reply triggers injected into the qualifying
// containers of a live page.
//
// A Controller owns its lifecycle and is bound to one adapter and one
// page. In continuous mode it follows the page's structural changes: each
// settled burst runs one pass, and the pass pauses the change source while
// it scans and writes, so the controller never observes its own
// insertions. In one-shot mode it runs a single settled pass.
package inject

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hazyhaar/repli/dom"
	"github.com/hazyhaar/repli/idgen"
	"github.com/hazyhaar/repli/mutation"
	"github.com/hazyhaar/repli/site"
)

// ChangeSource delivers structural change batches for a page and can
// suspend delivery.
type ChangeSource interface {
	Changes() <-chan mutation.Batch
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
}

// Config for creating a Controller.
type Config struct {
	Adapter site.Adapter
	Page    dom.Page
	// Source is required in continuous mode.
	Source ChangeSource
	// Settle is the quiet period after a change burst. Default: 100ms.
	Settle time.Duration
	// MaxWait bounds how long a steady stream of changes can defer a
	// pass. Default: twice Settle.
	MaxWait time.Duration
	// MaxBurst scans immediately once this many records are pending.
	// Default: 1000.
	MaxBurst int
	// NewID mints trigger ids. Default: idgen.Trigger.
	NewID  idgen.Generator
	Logger *slog.Logger
	// OnInjected is called for every inserted trigger, from the pass
	// goroutine.
	OnInjected func(Record)
}

// ErrRunning is returned by Start on a controller already started.
var ErrRunning = errors.New("inject: controller already running")

// Controller injects triggers for one adapter into one page.
type Controller struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	passMu  sync.Mutex
	running bool

	passes   atomic.Int64
	injected atomic.Int64
}

// New validates cfg and returns a stopped Controller.
func New(cfg Config) (*Controller, error) {
	if cfg.Page == nil {
		return nil, fmt.Errorf("inject: page is required")
	}
	if cfg.Adapter.TriggerInsertionSelector == "" {
		return nil, fmt.Errorf("inject: adapter %q has no insertion selector", cfg.Adapter.Name)
	}
	if cfg.Adapter.Mode == site.Continuous && cfg.Source == nil {
		return nil, fmt.Errorf("inject: continuous adapter %q needs a change source", cfg.Adapter.Name)
	}
	if cfg.Settle <= 0 {
		cfg.Settle = defaultSettle
	}
	if cfg.MaxWait < cfg.Settle {
		cfg.MaxWait = 2 * cfg.Settle
	}
	if cfg.MaxBurst <= 0 {
		cfg.MaxBurst = defaultMaxBurst
	}
	if cfg.NewID == nil {
		cfg.NewID = idgen.Trigger
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Controller{
		cfg:    cfg,
		logger: cfg.Logger.With("site", cfg.Adapter.Name),
	}, nil
}

// Start begins injecting in the background. Continuous adapters start
// observation and schedule an initial settled pass; one-shot adapters run
// Once.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return ErrRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	if c.cfg.Adapter.Mode == site.OneShot {
		go func() {
			defer close(done)
			if _, err := c.Once(ctx); err != nil && ctx.Err() == nil {
				c.logger.Warn("inject: one-shot pass failed", "error", err)
			}
		}()
	} else {
		if err := c.cfg.Source.Resume(ctx); err != nil {
			cancel()
			return fmt.Errorf("inject: start observation: %w", err)
		}
		go c.loop(ctx, done)
	}

	c.cancel, c.done, c.running = cancel, done, true
	c.logger.Info("inject: controller started", "mode", c.cfg.Adapter.Mode.String())
	return nil
}

// Stop ends the background work and suspends observation. It waits for
// an in-progress pass to finish.
func (c *Controller) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	cancel, done := c.cancel, c.done
	c.running = false
	c.mu.Unlock()

	cancel()
	<-done
	if c.cfg.Source != nil {
		if err := c.cfg.Source.Pause(context.Background()); err != nil {
			c.logger.Debug("inject: pause on stop", "error", err)
		}
	}
	c.logger.Info("inject: controller stopped",
		"passes", c.passes.Load(), "injected", c.injected.Load())
}

// Once waits for the settle delay and runs a single pass without
// observing.
func (c *Controller) Once(ctx context.Context) ([]Record, error) {
	t := time.NewTimer(c.cfg.Settle)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.C:
	}
	return c.pass(ctx, false)
}

// Pass pauses observation, scans and injects, then resumes observation.
// It is what a settled change burst runs.
func (c *Controller) Pass(ctx context.Context) ([]Record, error) {
	return c.pass(ctx, c.cfg.Source != nil)
}

// Stats returns the number of passes run and triggers injected.
func (c *Controller) Stats() (passes, injected int64) {
	return c.passes.Load(), c.injected.Load()
}

func (c *Controller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	deb := newDebouncer(c.cfg.Settle, c.cfg.MaxWait, c.cfg.MaxBurst)
	defer deb.stop()
	deb.arm() // initial pass once the page has settled

	changes := c.cfg.Source.Changes()
	for {
		select {
		case <-ctx.Done():
			return

		case b, ok := <-changes:
			if !ok {
				c.logger.Debug("inject: change source closed")
				return
			}
			if !Relevant(b) {
				continue
			}
			if deb.add(b) {
				deb.reset()
				c.runPass(ctx)
			}

		case <-deb.timerC():
			deb.reset()
			c.runPass(ctx)
		}
	}
}

func (c *Controller) runPass(ctx context.Context) {
	if _, err := c.Pass(ctx); err != nil && ctx.Err() == nil {
		c.logger.Warn("inject: pass failed", "error", err)
	}
}

func (c *Controller) pass(ctx context.Context, observing bool) (recs []Record, err error) {
	c.passMu.Lock()
	defer c.passMu.Unlock()

	if observing {
		if err := c.cfg.Source.Pause(ctx); err != nil {
			return nil, fmt.Errorf("inject: pause: %w", err)
		}
		defer func() {
			if ctx.Err() != nil {
				return
			}
			if rerr := c.cfg.Source.Resume(ctx); rerr != nil && err == nil {
				err = fmt.Errorf("inject: resume: %w", rerr)
			}
		}()
	}

	start := time.Now()
	cands, err := c.scan(ctx)
	if err != nil {
		return nil, err
	}
	plan := Plan(cands, c.cfg.Adapter.MaxInjectedPerContainer)
	recs = c.inject(ctx, plan)

	c.passes.Add(1)
	c.logger.Debug("inject: pass",
		"anchors", len(cands), "planned", len(plan), "injected", len(recs),
		"elapsed", time.Since(start))
	return recs, nil
}

func (c *Controller) scan(ctx context.Context) ([]Candidate, error) {
	a := c.cfg.Adapter

	root, err := c.cfg.Page.Root(ctx)
	if err != nil {
		return nil, fmt.Errorf("inject: root: %w", err)
	}
	anchors, err := root.QueryAll(a.TriggerInsertionSelector)
	if err != nil {
		return nil, fmt.Errorf("inject: query anchors: %w", err)
	}

	cands := make([]Candidate, 0, len(anchors))
	for _, anchor := range anchors {
		cand, err := c.candidate(anchor)
		if errors.Is(err, dom.ErrElementNotFound) {
			continue
		}
		if err != nil {
			// The host may be mid re-render; the next settled burst rescans.
			c.logger.Debug("inject: skip anchor", "error", err)
			continue
		}
		cands = append(cands, cand)
	}
	return cands, nil
}

func (c *Controller) candidate(anchor dom.Node) (Candidate, error) {
	a := c.cfg.Adapter

	container, before, err := a.Container(anchor)
	if err != nil {
		return Candidate{}, err
	}
	key, err := container.Key()
	if err != nil {
		return Candidate{}, fmt.Errorf("container key: %w", err)
	}
	compose, err := a.IsComposeContext(anchor)
	if err != nil {
		return Candidate{}, fmt.Errorf("compose context: %w", err)
	}
	existing, err := container.QueryAll(dom.TriggerSelector)
	if err != nil {
		return Candidate{}, fmt.Errorf("existing triggers: %w", err)
	}
	return Candidate{
		Key:       key,
		Container: container,
		Before:    before,
		Compose:   compose,
		Existing:  len(existing),
	}, nil
}

func (c *Controller) inject(ctx context.Context, plan []Candidate) []Record {
	var recs []Record
	for _, cand := range plan {
		id := c.cfg.NewID()
		ts := dom.TriggerSpec{ID: id, Title: c.cfg.Adapter.TriggerTitle}
		if _, err := c.cfg.Page.InsertTrigger(ctx, cand.Container, cand.Before, ts); err != nil {
			c.logger.Debug("inject: insert trigger", "container", cand.Key, "error", err)
			continue
		}
		rec := Record{TriggerID: id, ContainerKey: cand.Key}
		recs = append(recs, rec)
		c.injected.Add(1)
		if c.cfg.OnInjected != nil {
			c.cfg.OnInjected(rec)
		}
	}
	return recs
}
