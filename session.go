package repli

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hazyhaar/repli/inject"
	"github.com/hazyhaar/repli/reply"
	"github.com/hazyhaar/repli/site"
	"github.com/hazyhaar/repli/writer"
)

// SessionInfo is the externally visible state of a page session.
type SessionInfo struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Site        string    `json:"site,omitempty"` // empty when no adapter matches the URL
	Mode        string    `json:"mode,omitempty"`
	Injected    int64     `json:"injected"`
	Activations int64     `json:"activations"`
	StartedAt   time.Time `json:"started_at"`
}

// session follows one tab. Its goroutine routes navigations and trigger
// clicks; each click runs in its own goroutine.
type session struct {
	agent     *Agent
	id        string
	tab       Tab
	startedAt time.Time

	cancel context.CancelFunc
	done   chan struct{}
	wg     sync.WaitGroup

	mu      sync.Mutex
	url     string
	adapter *site.Adapter
	ctrl    *inject.Controller
	orch    *reply.Orchestrator

	injected    atomic.Int64
	activations atomic.Int64
}

func newSession(a *Agent, id string, tab Tab) *session {
	return &session{
		agent:     a,
		id:        id,
		tab:       tab,
		startedAt: time.Now(),
		url:       tab.URL(),
		done:      make(chan struct{}),
	}
}

func (s *session) info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	si := SessionInfo{
		ID:          s.id,
		URL:         s.url,
		Injected:    s.injected.Load(),
		Activations: s.activations.Load(),
		StartedAt:   s.startedAt,
	}
	if s.adapter != nil {
		si.Site = s.adapter.Name
		si.Mode = s.adapter.Mode.String()
	}
	return si
}

func (s *session) start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.bind(ctx, s.tab.URL())
	go s.run(ctx)
}

func (s *session) stop(ctx context.Context) error {
	s.cancel()
	<-s.done
	s.unbind()
	s.wg.Wait()
	return s.tab.Close(ctx)
}

func (s *session) run(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return

		case u, ok := <-s.tab.Navigations():
			if !ok {
				return
			}
			s.navigated(ctx, u)

		case id, ok := <-s.tab.Activations():
			if !ok {
				return
			}
			s.dispatch(ctx, id)
		}
	}
}

// navigated re-selects the adapter. A continuous controller keeps running
// across navigations within its own site; anything else is rebound.
func (s *session) navigated(ctx context.Context, u string) {
	next, ok := site.ForURL(u)

	s.mu.Lock()
	s.url = u
	cur := s.adapter
	s.mu.Unlock()

	if ok && cur != nil && cur.Name == next.Name && cur.Mode == site.Continuous {
		return
	}
	s.unbind()
	s.bind(ctx, u)
}

func (s *session) bind(ctx context.Context, u string) {
	log := s.agent.logger.With("session", s.id)
	cfg := s.agent.cfg

	a, ok := site.ForURL(u)
	if !ok {
		log.Debug("repli: no adapter for page", "url", u)
		return
	}

	var clip writer.Clipboard
	if cfg.Clipboard != nil {
		clip = cfg.Clipboard(s.tab)
	}
	orch, err := reply.New(reply.Config{
		Adapter:   a,
		Page:      s.tab,
		Writer:    &writer.Paste{Editor: s.tab, Clipboard: clip, Logger: log},
		Completer: cfg.Completer,
		Settings:  cfg.Settings,
		Logger:    log,
		OnOutcome: func(_ string, o reply.Outcome, elapsed time.Duration) {
			cfg.Metrics.activation(a.Name, o, elapsed)
		},
	})
	if err != nil {
		log.Error("repli: orchestrator", "site", a.Name, "error", err)
		return
	}

	ctrl, err := inject.New(inject.Config{
		Adapter:  a,
		Page:     s.tab,
		Source:   s.tab,
		Settle:   cfg.Settle,
		MaxWait:  cfg.MaxWait,
		MaxBurst: cfg.MaxBurst,
		NewID:    cfg.NewTriggerID,
		Logger:   log,
		OnInjected: func(inject.Record) {
			s.injected.Add(1)
			cfg.Metrics.triggerInjected(a.Name)
		},
	})
	if err != nil {
		log.Error("repli: controller", "site", a.Name, "error", err)
		return
	}
	if err := ctrl.Start(ctx); err != nil {
		log.Error("repli: start controller", "site", a.Name, "error", err)
		return
	}

	s.mu.Lock()
	s.adapter, s.ctrl, s.orch = &a, ctrl, orch
	s.mu.Unlock()
	log.Info("repli: adapter bound", "site", a.Name, "mode", a.Mode.String(), "url", u)
}

func (s *session) unbind() {
	s.mu.Lock()
	ctrl := s.ctrl
	s.adapter, s.ctrl, s.orch = nil, nil, nil
	s.mu.Unlock()
	if ctrl != nil {
		ctrl.Stop()
	}
}

func (s *session) dispatch(ctx context.Context, triggerID string) {
	s.mu.Lock()
	orch := s.orch
	s.mu.Unlock()
	if orch == nil {
		return
	}
	s.activations.Add(1)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		orch.Activate(ctx, triggerID)
	}()
}
