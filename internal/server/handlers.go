package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/hnrobert/etcapi/internal/auth"
	"github.com/hnrobert/etcapi/internal/database"
	"github.com/hnrobert/etcapi/internal/engine"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
	Admin   bool      `json:"admin"`
}

type statusView struct {
	Name    string        `json:"name"`
	Format  string        `json:"format"`
	Backend string        `json:"backend"`
	Status  engine.Status `json:"status"`
	Errors  []string      `json:"errors,omitempty"`
}

type addRequest struct {
	Entry json.RawMessage `json:"entry"`
	Key   json.RawMessage `json:"key,omitempty"`
}

type replaceRequest struct {
	Current json.RawMessage `json:"current"`
	Entry   json.RawMessage `json:"entry"`
}

type deleteRequest struct {
	Current json.RawMessage `json:"current"`
}

// okResponse reports whether a fresh read confirmed the write.
type okResponse struct {
	OK bool `json:"ok"`
}

func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	if a.auth == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "authentication is not configured")
		return
	}
	var req loginRequest
	if !a.readJSON(w, r, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeJSONError(w, http.StatusBadRequest, "Username and password are required.")
		return
	}
	if err := a.auth.VerifyPassword(r.Context(), req.Username, req.Password); err != nil {
		a.log.Info("Failed login attempt for user %s from %s", req.Username, remoteIP(r))
		if errors.Is(err, auth.ErrAuthBackend) {
			a.log.Error("login: %v", err)
			writeJSONError(w, http.StatusInternalServerError, auth.HumanAuthError(err))
			return
		}
		writeJSONError(w, http.StatusUnauthorized, auth.HumanAuthError(err))
		return
	}
	admin, err := a.auth.IsAdmin(r.Context(), req.Username)
	if err != nil {
		a.log.Warn("login: admin lookup for %s: %v", req.Username, err)
	}
	tok, exp, err := a.sessions.Issue(req.Username, admin)
	if err != nil {
		a.writeError(w, r, fmt.Errorf("create session: %w", err))
		return
	}
	a.log.Info("User %s logged in from %s", req.Username, remoteIP(r))
	a.issueCookie(w, tok)
	writeJSON(w, http.StatusOK, loginResponse{Token: tok, Expires: exp, Admin: admin})
}

func (a *App) handleLogout(w http.ResponseWriter, r *http.Request) {
	if u := usernameFrom(r); u != "" {
		a.log.Info("User %s logged out from %s", u, remoteIP(r))
	}
	a.clearCookie(w)
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (a *App) handleWhoami(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"username": usernameFrom(r),
		"admin":    isAdminFrom(r),
	})
}

func (a *App) handleDatabases(w http.ResponseWriter, r *http.Request) {
	names := a.dbs.Names()
	out := make([]statusView, 0, len(names))
	for _, n := range names {
		if db, ok := a.dbs.Get(n); ok {
			out = append(out, a.statusOf(r, db))
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *App) handleStatus(w http.ResponseWriter, r *http.Request) {
	db, ok := a.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, a.statusOf(r, db))
}

func (a *App) handleCount(w http.ResponseWriter, r *http.Request) {
	db, ok := a.lookup(w, r)
	if !ok {
		return
	}
	n, err := db.Count(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

func (a *App) handleRaw(w http.ResponseWriter, r *http.Request) {
	db, ok := a.lookup(w, r)
	if !ok {
		return
	}
	lines, err := db.ListRaw(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lines)
}

func (a *App) handleList(w http.ResponseWriter, r *http.Request) {
	db, ok := a.lookup(w, r)
	if !ok {
		return
	}
	list, err := db.List(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *App) handleAdd(w http.ResponseWriter, r *http.Request) {
	db, ok := a.lookup(w, r)
	if !ok {
		return
	}
	var req addRequest
	if !a.readJSON(w, r, &req) {
		return
	}
	done, err := db.Add(r.Context(), req.Entry, req.Key)
	a.finishWrite(w, r, db, "added", done, err)
}

func (a *App) handleReplace(w http.ResponseWriter, r *http.Request) {
	db, ok := a.lookup(w, r)
	if !ok {
		return
	}
	var req replaceRequest
	if !a.readJSON(w, r, &req) {
		return
	}
	done, err := db.Replace(r.Context(), req.Current, req.Entry)
	a.finishWrite(w, r, db, "replaced", done, err)
}

func (a *App) handleDelete(w http.ResponseWriter, r *http.Request) {
	db, ok := a.lookup(w, r)
	if !ok {
		return
	}
	var req deleteRequest
	if !a.readJSON(w, r, &req) {
		return
	}
	done, err := db.Delete(r.Context(), req.Current)
	a.finishWrite(w, r, db, "deleted", done, err)
}

func (a *App) finishWrite(w http.ResponseWriter, r *http.Request, db database.Database, verb string, done bool, err error) {
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if done {
		a.log.Info("User %s %s an entry in %s", usernameFrom(r), verb, db.Name())
	}
	writeJSON(w, http.StatusOK, okResponse{OK: done})
}

func (a *App) lookup(w http.ResponseWriter, r *http.Request) (database.Database, bool) {
	name := r.PathValue("name")
	db, ok := a.dbs.Get(name)
	if !ok {
		a.writeError(w, r, fmt.Errorf("%w: %s", errUnknownDatabase, name))
		return nil, false
	}
	return db, true
}

func (a *App) statusOf(r *http.Request, db database.Database) statusView {
	st := db.Status(r.Context())
	v := statusView{Name: db.Name(), Format: db.Format(), Backend: db.Backend(), Status: st.State}
	for _, err := range st.Errors {
		v.Errors = append(v.Errors, err.Error())
	}
	return v
}

func (a *App) readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		a.writeError(w, r, fmt.Errorf("%w: %v", database.ErrBadRequest, err))
		return false
	}
	return true
}

func remoteIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ip, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(ip)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
