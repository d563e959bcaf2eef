package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/msomdec/captionly/internal/config"
	"github.com/msomdec/captionly/internal/domain"
	"github.com/msomdec/captionly/internal/handler"
	"github.com/msomdec/captionly/internal/repository/sqlite"
	"github.com/msomdec/captionly/internal/service"
)

// sessionSweepInterval is how often expired sessions are purged.
const sessionSweepInterval = 15 * time.Minute

func main() {
	logOpts := &slog.HandlerOptions{Level: slog.LevelInfo}
	logger := slog.New(slog.NewMultiHandler(
		slog.NewTextHandler(os.Stdout, logOpts),
		slog.NewJSONHandler(os.Stderr, logOpts),
	))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database migrations applied")

	credentials := service.NewCredentialService(db.Identities(), db.Sessions(), db.Tokens(), service.NewLogMailer(logger), service.CredentialOptions{
		JWTSecret:                cfg.JWTSecret,
		BcryptCost:               cfg.BcryptCost,
		SessionTTL:               cfg.SessionTTL,
		TokenTTL:                 cfg.TokenTTL,
		RequireEmailConfirmation: cfg.RequireEmailConfirmation,
	})
	uploads := service.NewUploadService(db.Objects(), cfg.JWTSecret, cfg.MaxUploadBytes, cfg.SignedURLTTL)

	services := handler.Services{
		Credentials: credentials,
		SignUps:     service.NewSignUpService(credentials, db.Profiles()),
		Profiles:    service.NewProfileService(db.Profiles(), db.Generations(), db.Objects()),
		Uploads:     uploads,
		Captions:    service.NewCaptionService(db.Generations()),
		Admin:       service.NewAdminService(db.Admin(), cfg.IsAdmin),
		Limiter:     service.NewPerMinuteLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst),
	}

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, services, handler.Options{
		SiteURL:           cfg.SiteURL,
		CookieSecure:      cfg.CookieSecure,
		SessionTTL:        cfg.SessionTTL,
		MaxUploadBytes:    cfg.MaxUploadBytes,
		TrustProxyHeaders: cfg.TrustProxyHeaders,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.RequestLogger(handler.SecurityHeaders(mux)),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go sweepSessions(ctx, db.Sessions())

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "site_url", cfg.SiteURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// sweepSessions deletes expired sessions until ctx is cancelled.
func sweepSessions(ctx context.Context, sessions domain.SessionRepository) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := sessions.DeleteExpired(ctx, now)
			if err != nil {
				slog.Error("delete expired sessions", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("expired sessions deleted", "count", n)
			}
		}
	}
}
