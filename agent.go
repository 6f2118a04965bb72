// Package repli keeps "generate reply" triggers injected into supported
// social-network pages and turns a click on one into a generated reply
// pasted into the page's composer.
//
// An Agent owns page sessions. Each session follows one tab: it selects
// the site adapter for the tab's URL, runs an injection controller for it,
// and routes trigger clicks to a reply orchestrator. The agent is driven
// from the CLI, the HTTP control API or MCP tools.
package repli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/hazyhaar/repli/completion"
	"github.com/hazyhaar/repli/dom"
	"github.com/hazyhaar/repli/idgen"
	"github.com/hazyhaar/repli/inject"
	"github.com/hazyhaar/repli/settings"
	"github.com/hazyhaar/repli/writer"
)

// Tab is a live page a session drives.
type Tab interface {
	dom.Page
	inject.ChangeSource
	dom.Activator
	// Navigations delivers the new URL after each in-tab navigation.
	Navigations() <-chan string
	URL() string
	// Close releases the tab. The page itself may stay open.
	Close(ctx context.Context) error
}

// SettingsStore is read before every reply request and written by the
// control surfaces.
type SettingsStore interface {
	settings.Source
	SetMany(ctx context.Context, values map[string]string) error
}

// Opener opens the tab for a URL.
type Opener interface {
	Open(ctx context.Context, url, sessionID string) (Tab, error)
}

var (
	ErrUnknownSession = errors.New("repli: unknown session")
	ErrClosed         = errors.New("repli: agent closed")
)

// Config for creating an Agent.
type Config struct {
	Opener    Opener
	Completer completion.Completer
	Settings  SettingsStore
	// Clipboard returns the clipboard the paste round-trip uses for a
	// tab. Nil skips the clipboard.
	Clipboard func(Tab) writer.Clipboard
	// Settle, MaxWait and MaxBurst tune every injection controller.
	Settle   time.Duration
	MaxWait  time.Duration
	MaxBurst int
	Metrics  *Metrics
	// NewSessionID mints session ids. Default: idgen.Session.
	NewSessionID idgen.Generator
	// NewTriggerID mints trigger ids. Default: idgen.Trigger.
	NewTriggerID idgen.Generator
	Logger       *slog.Logger
}

// Agent owns the page sessions.
type Agent struct {
	cfg    Config
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*session
	closed   bool
}

// New validates cfg and returns an Agent with no sessions.
func New(cfg Config) (*Agent, error) {
	switch {
	case cfg.Opener == nil:
		return nil, fmt.Errorf("repli: opener is required")
	case cfg.Completer == nil:
		return nil, fmt.Errorf("repli: completer is required")
	case cfg.Settings == nil:
		return nil, fmt.Errorf("repli: settings source is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NewMetrics()
	}
	if cfg.NewSessionID == nil {
		cfg.NewSessionID = idgen.Session
	}
	if cfg.NewTriggerID == nil {
		cfg.NewTriggerID = idgen.Trigger
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Agent{
		cfg:      cfg,
		logger:   cfg.Logger,
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*session),
	}, nil
}

// Metrics returns the agent's collectors.
func (a *Agent) Metrics() *Metrics { return a.cfg.Metrics }

// Activate opens url and starts a session following it. ctx bounds the
// open; the session lives until Deactivate or Close.
func (a *Agent) Activate(ctx context.Context, url string) (SessionInfo, error) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return SessionInfo{}, ErrClosed
	}
	a.mu.Unlock()

	id := a.cfg.NewSessionID()
	tab, err := a.cfg.Opener.Open(ctx, url, id)
	if err != nil {
		return SessionInfo{}, fmt.Errorf("repli: open %s: %w", url, err)
	}

	s := newSession(a, id, tab)
	s.start(a.ctx)

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		s.stop(context.WithoutCancel(ctx))
		return SessionInfo{}, ErrClosed
	}
	a.sessions[id] = s
	a.mu.Unlock()

	a.cfg.Metrics.sessions.Inc()
	a.logger.Info("repli: session activated", "session", id, "url", url, "site", s.info().Site)
	return s.info(), nil
}

// Deactivate stops a session: its controller stops, in-flight activations
// are cancelled (their triggers return to idle) and the tab is released.
func (a *Agent) Deactivate(ctx context.Context, id string) error {
	a.mu.Lock()
	s, ok := a.sessions[id]
	delete(a.sessions, id)
	a.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	err := s.stop(ctx)
	a.cfg.Metrics.sessions.Dec()
	a.logger.Info("repli: session deactivated", "session", id)
	return err
}

// Session returns one session's state.
func (a *Agent) Session(id string) (SessionInfo, error) {
	a.mu.Lock()
	s, ok := a.sessions[id]
	a.mu.Unlock()
	if !ok {
		return SessionInfo{}, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	return s.info(), nil
}

// Sessions lists the active sessions, oldest first.
func (a *Agent) Sessions() []SessionInfo {
	a.mu.Lock()
	list := make([]*session, 0, len(a.sessions))
	for _, s := range a.sessions {
		list = append(list, s)
	}
	a.mu.Unlock()

	out := make([]SessionInfo, 0, len(list))
	for _, s := range list {
		out = append(out, s.info())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.Before(out[j].StartedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Close deactivates every session. The agent accepts no new sessions.
func (a *Agent) Close(ctx context.Context) error {
	a.mu.Lock()
	a.closed = true
	ids := make([]string, 0, len(a.sessions))
	for id := range a.sessions {
		ids = append(ids, id)
	}
	a.mu.Unlock()

	var errs []error
	for _, id := range ids {
		if err := a.Deactivate(ctx, id); err != nil && !errors.Is(err, ErrUnknownSession) {
			errs = append(errs, err)
		}
	}
	a.cancel()
	return errors.Join(errs...)
}
