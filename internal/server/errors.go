package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hnrobert/etcapi/internal/database"
	"github.com/hnrobert/etcapi/internal/engine"
	"github.com/hnrobert/etcapi/internal/format"
)

var errUnknownDatabase = errors.New("unknown database")

// statusFor maps engine and format failures onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrNotOnline):
		return http.StatusServiceUnavailable
	case errors.Is(err, format.ErrInvalidEntry),
		errors.Is(err, database.ErrBadRequest),
		errors.Is(err, engine.ErrInvalidKey):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrEntryExists),
		errors.Is(err, engine.ErrChanged),
		errors.Is(err, engine.ErrKeyInUse):
		return http.StatusConflict
	case errors.Is(err, engine.ErrNotExist), errors.Is(err, errUnknownDatabase):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorBody{Error: msg, RequestID: w.Header().Get(requestIDHeader)})
}

func (a *App) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		a.log.Error("%s %s [%s]: %v", r.Method, r.URL.Path, requestIDFrom(r), err)
	}
	writeJSONError(w, code, err.Error())
}
