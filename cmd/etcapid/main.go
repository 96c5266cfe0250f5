package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hnrobert/etcapi/internal/auth"
	"github.com/hnrobert/etcapi/internal/config"
	"github.com/hnrobert/etcapi/internal/database"
	"github.com/hnrobert/etcapi/internal/hostfs"
	"github.com/hnrobert/etcapi/internal/logger"
	"github.com/hnrobert/etcapi/internal/server"
	"github.com/hnrobert/etcapi/internal/sysexec"
)

func main() {
	store := config.NewStore(getenvDefault("ETCAPI_CONFIG", config.DefaultPath()))
	if err := store.Ensure(); err != nil {
		log.Fatalf("config %s: %v", store.Path(), err)
	}
	cfg, err := store.Load()
	if err != nil {
		log.Fatal(err)
	}
	secret, err := jwtSecret(store, &cfg)
	if err != nil {
		log.Fatalf("jwt secret: %v", err)
	}
	if v := os.Getenv("ETCAPI_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("ETCAPI_HOST_ROOT"); v != "" {
		cfg.HostRoot = v
	}
	if v := os.Getenv("ETCAPI_LOG_DIR"); v != "" {
		cfg.LogDir = v
	}

	lg, err := logger.New(cfg.LogDir, logger.ParseLevel(cfg.LogLevel))
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Close()

	fs := hostfs.New(cfg.HostRoot, cfg.Sudo, lg)
	fs.Runner = &sysexec.Runner{Timeout: cfg.CommandTimeout}
	dbDir := cfg.DBDir
	if dbDir == "" {
		dbDir = fs.DefaultDBDir(context.Background())
	}

	set := database.NewSet(database.Deps{FS: fs, Log: lg, DBDir: dbDir})
	defer set.Close()
	if err := set.OpenAll(cfg.Databases); err != nil {
		lg.Error("%v", err)
		os.Exit(1)
	}

	var authn *auth.Authenticator
	if shadow, ok := set.ByFormat(database.FormatShadow); ok {
		group, _ := set.ByFormat(database.FormatGroup)
		authn = &auth.Authenticator{Shadow: shadow, Group: group, SuFallback: true, Log: lg}
	} else {
		lg.Warn("no shadow database configured, login is disabled")
	}

	srv := server.New(server.Config{ListenAddr: cfg.Listen}, server.Deps{
		Databases: set,
		Auth:      authn,
		Sessions:  auth.NewSessions(secret, cfg.TokenTTL),
		Notice:    cfg.Notice,
		Log:       lg,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	lg.Info("etcapi listening on %s (host root %q, db dir %s)", cfg.Listen, cfg.HostRoot, dbDir)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		lg.Error("%v", err)
		os.Exit(1)
	}
	lg.Info("etcapi stopped")
}

// jwtSecret prefers ETCAPI_JWT_SECRET, then the configured secret, and
// otherwise generates one and persists it. Call it before applying env
// overrides to cfg.
func jwtSecret(store *config.Store, cfg *config.Config) ([]byte, error) {
	if v := os.Getenv("ETCAPI_JWT_SECRET"); v != "" {
		return []byte(v), nil
	}
	if cfg.JWTSecret != "" {
		return []byte(cfg.JWTSecret), nil
	}
	s, err := auth.NewRandomSecretB64(32)
	if err != nil {
		return nil, err
	}
	cfg.JWTSecret = s
	if err := store.Save(*cfg); err != nil {
		return nil, err
	}
	return []byte(s), nil
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
