package repli

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazyhaar/repli/kit"
)

// Handler returns the HTTP control API:
//
//	POST   /sessions        {"url": ...}  activate a page
//	GET    /sessions                      list sessions
//	GET    /sessions/{id}                 one session
//	DELETE /sessions/{id}                 deactivate
//	GET    /settings                      settings, API key masked
//	PUT    /settings        {"api-key": ..., "model": ..., "custom-instructions": ...}
//	GET    /metrics                       Prometheus metrics
//	GET    /health
func (a *Agent) Handler() http.Handler {
	eps := a.endpoints()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestIDContext)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		kit.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", a.cfg.Metrics.Handler())

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", kit.HTTPHandler(eps["activate"], kit.DecodeJSONBody[activateReq]()))
		r.Get("/", kit.HTTPHandler(eps["sessions"], noBody))
		r.Get("/{id}", kit.HTTPHandler(eps["session"], sessionID))
		r.Delete("/{id}", kit.HTTPHandler(eps["deactivate"], sessionID))
	})

	r.Get("/settings", kit.HTTPHandler(eps["settings_get"], noBody))
	r.Put("/settings", kit.HTTPHandler(eps["settings_set"], kit.DecodeJSONBody[settingsReq]()))

	return r
}

func noBody(*http.Request) (any, error) { return nil, nil }

func sessionID(r *http.Request) (any, error) {
	return &sessionReq{ID: chi.URLParam(r, "id")}, nil
}

func requestIDContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			r = r.WithContext(kit.WithRequestID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}
