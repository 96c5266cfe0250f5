package server

import (
	"context"
	"net/http"
	"time"
)

type Config struct {
	ListenAddr string
}

type Server struct {
	cfg Config
	h   http.Handler
	srv *http.Server
}

func New(cfg Config, deps Deps) *Server {
	var h http.Handler
	app, err := newApp(deps)
	if err != nil {
		// Defer error to the handler for a single error return path.
		h = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		})
	} else {
		h = app.routes()
	}
	return &Server{cfg: cfg, h: h, srv: &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}}
}

func (s *Server) Handler() http.Handler { return s.h }

func (s *Server) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

// Shutdown stops accepting connections and waits for active requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
