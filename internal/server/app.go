package server

import (
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hnrobert/etcapi/internal/auth"
	"github.com/hnrobert/etcapi/internal/database"
	"github.com/hnrobert/etcapi/internal/logger"
)

//go:embed templates/*.html
var templatesFS embed.FS

// maxBody bounds request bodies of the JSON API.
const maxBody = 1 << 20

// Deps are the collaborators the HTTP API serves. Auth may be nil, then
// login is unavailable.
type Deps struct {
	Databases  *database.Set
	Auth       *auth.Authenticator
	Sessions   *auth.Sessions
	CookieName string
	// Notice is markdown rendered at the top of the status page.
	Notice string
	Log    *logger.Logger
}

type App struct {
	dbs        *database.Set
	auth       *auth.Authenticator
	sessions   *auth.Sessions
	cookieName string
	notice     string
	status     *template.Template
	log        *logger.Logger
}

func newApp(deps Deps) (*App, error) {
	if deps.Databases == nil {
		return nil, errors.New("server: no databases")
	}
	if deps.Sessions == nil {
		return nil, errors.New("server: no session issuer")
	}
	tpl, err := template.ParseFS(templatesFS, "templates/status.html")
	if err != nil {
		return nil, err
	}
	cookie := deps.CookieName
	if cookie == "" {
		cookie = auth.DefaultCookieName
	}
	return &App{
		dbs:        deps.Databases,
		auth:       deps.Auth,
		sessions:   deps.Sessions,
		cookieName: cookie,
		notice:     deps.Notice,
		status:     tpl,
		log:        deps.Log,
	}, nil
}

func (a *App) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", a.handleStatusPage)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("{\"ok\":true}\n"))
	})
	mux.HandleFunc("POST /api/login", a.handleLogin)
	mux.HandleFunc("POST /api/logout", a.handleLogout)
	mux.HandleFunc("GET /api/whoami", a.requireAuth(a.handleWhoami))

	mux.HandleFunc("GET /api/databases", a.requireAuth(a.handleDatabases))
	mux.HandleFunc("GET /api/db/{name}/status", a.requireAuth(a.handleStatus))
	mux.HandleFunc("GET /api/db/{name}/count", a.requireAuth(a.handleCount))
	mux.HandleFunc("GET /api/db/{name}/raw", a.requireAuth(a.handleRaw))
	mux.HandleFunc("GET /api/db/{name}/entries", a.requireAuth(a.handleList))
	mux.HandleFunc("POST /api/db/{name}/entries", a.requireAdmin(a.handleAdd))
	mux.HandleFunc("PUT /api/db/{name}/entries", a.requireAdmin(a.handleReplace))
	mux.HandleFunc("DELETE /api/db/{name}/entries", a.requireAdmin(a.handleDelete))

	return a.withRequestID(a.withAuthContext(instrument(mux)))
}

func (a *App) issueCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   false,
		MaxAge:   int(a.sessions.TTL.Seconds()),
	})
}

func (a *App) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   false,
		MaxAge:   -1,
	})
}
