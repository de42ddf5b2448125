package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/scriptlyze/scriptlyze/internal/adapter/driven/scriptapi"
	sqliteadapter "github.com/scriptlyze/scriptlyze/internal/adapter/driven/sqlite"
	httphandler "github.com/scriptlyze/scriptlyze/internal/adapter/driving/http"
	"github.com/scriptlyze/scriptlyze/internal/application"
	"github.com/scriptlyze/scriptlyze/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on malformed env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"api_base_url", cfg.APIBaseURL,
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"cache_ttl", cfg.CacheTTL,
		"token_encryption", cfg.SecretKey != nil,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire the credential store.
	tokenStore, err := sqliteadapter.NewTokenRepo(db, cfg.SecretKey)
	if err != nil {
		return err
	}

	// 6. Create the API client. The expiry callback resets the session and
	// query caches; the services it touches are assigned below, before any
	// request can reach the client.
	var (
		session *application.Session
		queries *application.QueryService
	)
	client := scriptapi.NewClient(cfg.APIBaseURL, cfg.RequestTimeout, tokenStore, func() {
		slog.Info("stored credential expired")
		if queries != nil {
			queries.Reset()
		}
		if session != nil {
			session.SetUser(nil)
		}
	})

	// 7. Create application services.
	session = application.NewSession(client, tokenStore)
	queries = application.NewQueryService(client, cfg.CacheTTL)

	// 8. Restore the session from the stored credential before serving, so
	// the first dashboard request already sees a settled state.
	if err := session.Init(ctx); err != nil {
		slog.Warn("session restore failed", "error", err)
	}

	// 9. Create HTTP handler and server.
	apiHandler := httphandler.NewHandler(client, session, queries, slog.Default())
	handler := httphandler.NewServeMux(apiHandler, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	// 10. Log startup complete.
	state := session.State()
	slog.Info("scriptlyze started",
		"listen_addr", cfg.ListenAddr,
		"authenticated", state.IsAuthenticated,
	)

	// 11. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 12. Graceful shutdown with 10s timeout for HTTP server drain.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
