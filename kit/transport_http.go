package kit

import (
	"encoding/json"
	"errors"
	"net/http"
)

// HTTPError carries the status an endpoint error maps to.
type HTTPError struct {
	Status int
	Err    error
}

func (e *HTTPError) Error() string { return e.Err.Error() }
func (e *HTTPError) Unwrap() error { return e.Err }

// NotFound marks err as a 404.
func NotFound(err error) error { return &HTTPError{Status: http.StatusNotFound, Err: err} }

// BadRequest marks err as a 400.
func BadRequest(err error) error { return &HTTPError{Status: http.StatusBadRequest, Err: err} }

// HTTPHandler exposes an Endpoint as a JSON handler. A decode error is a
// 400; endpoint errors use their HTTPError status or 500. A nil response
// is a 204.
func HTTPHandler(endpoint Endpoint, decode func(*http.Request) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := WithTransport(r.Context(), "http")
		req, err := decode(r)
		if err != nil {
			WriteError(w, BadRequest(err))
			return
		}
		resp, err := endpoint(ctx, req)
		if err != nil {
			WriteError(w, err)
			return
		}
		if resp == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

// DecodeJSONBody returns a decode function reading the request body into
// a fresh *T.
func DecodeJSONBody[T any]() func(*http.Request) (any, error) {
	return func(r *http.Request) (any, error) {
		var v T
		if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
			return nil, err
		}
		return &v, nil
	}
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError writes {"error": msg} with the error's status.
func WriteError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var he *HTTPError
	if errors.As(err, &he) {
		status = he.Status
	}
	WriteJSON(w, status, map[string]string{"error": err.Error()})
}
