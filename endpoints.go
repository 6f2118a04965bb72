package repli

import (
	"context"
	"errors"
	"fmt"

	"github.com/hazyhaar/repli/kit"
	"github.com/hazyhaar/repli/settings"
	"github.com/hazyhaar/repli/site"
)

// Control operations shared by the HTTP API and the MCP tools.

type activateReq struct {
	URL string `json:"url"`
}

type sessionReq struct {
	ID string `json:"id"`
}

type settingsReq map[string]string

type sessionsResp struct {
	Sessions []SessionInfo `json:"sessions"`
}

type statusResp struct {
	Sites    []string      `json:"sites"`
	Sessions []SessionInfo `json:"sessions"`
}

type deactivateResp struct {
	ID          string `json:"id"`
	Deactivated bool   `json:"deactivated"`
}

func (a *Agent) endpoints() map[string]kit.Endpoint {
	eps := map[string]kit.Endpoint{
		"activate":     a.activateEndpoint,
		"deactivate":   a.deactivateEndpoint,
		"session":      a.sessionEndpoint,
		"sessions":     a.sessionsEndpoint,
		"status":       a.statusEndpoint,
		"settings_get": a.settingsGetEndpoint,
		"settings_set": a.settingsSetEndpoint,
	}
	for name, ep := range eps {
		eps[name] = kit.Logging(a.logger, name)(ep)
	}
	return eps
}

func (a *Agent) activateEndpoint(ctx context.Context, req any) (any, error) {
	r := req.(*activateReq)
	if r.URL == "" {
		return nil, kit.BadRequest(errors.New("url is required"))
	}
	return a.Activate(ctx, r.URL)
}

func (a *Agent) deactivateEndpoint(ctx context.Context, req any) (any, error) {
	r := req.(*sessionReq)
	if err := a.Deactivate(ctx, r.ID); err != nil {
		return nil, sessionError(err)
	}
	return deactivateResp{ID: r.ID, Deactivated: true}, nil
}

func (a *Agent) sessionEndpoint(_ context.Context, req any) (any, error) {
	r := req.(*sessionReq)
	si, err := a.Session(r.ID)
	if err != nil {
		return nil, sessionError(err)
	}
	return si, nil
}

func (a *Agent) sessionsEndpoint(context.Context, any) (any, error) {
	return sessionsResp{Sessions: a.Sessions()}, nil
}

func (a *Agent) statusEndpoint(context.Context, any) (any, error) {
	return statusResp{Sites: site.Names(), Sessions: a.Sessions()}, nil
}

func (a *Agent) settingsGetEndpoint(ctx context.Context, _ any) (any, error) {
	snap, err := a.cfg.Settings.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Redacted(), nil
}

func (a *Agent) settingsSetEndpoint(ctx context.Context, req any) (any, error) {
	r := req.(*settingsReq)
	if len(*r) == 0 {
		return nil, kit.BadRequest(errors.New("no settings given"))
	}
	if err := a.cfg.Settings.SetMany(ctx, *r); err != nil {
		if errors.Is(err, settings.ErrUnknownKey) {
			return nil, kit.BadRequest(err)
		}
		return nil, fmt.Errorf("repli: store settings: %w", err)
	}
	return a.settingsGetEndpoint(ctx, nil)
}

func sessionError(err error) error {
	if errors.Is(err, ErrUnknownSession) {
		return kit.NotFound(err)
	}
	return err
}
