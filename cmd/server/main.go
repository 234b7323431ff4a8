// Command server runs the adoption marketplace HTTP backend.
//
// Startup order: environment (.env in dev), configuration, logging, SQLite
// schema, OpenTelemetry, router. Shutdown is graceful: SIGINT/SIGTERM stops
// accepting connections, drains in-flight requests, then flushes traces.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-adopt-backend/docs"
	"github.com/tbourn/go-adopt-backend/internal/activity"
	"github.com/tbourn/go-adopt-backend/internal/auth"
	"github.com/tbourn/go-adopt-backend/internal/config"
	httpapi "github.com/tbourn/go-adopt-backend/internal/http"
	"github.com/tbourn/go-adopt-backend/internal/observability"
	"github.com/tbourn/go-adopt-backend/internal/repo"
	"github.com/tbourn/go-adopt-backend/internal/sysutil"
)

// version is injected at build time via -ldflags.
var version = "dev"

func main() {
	// Best effort: absent .env is the normal case outside dev.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	docs.SwaggerInfo.BasePath = cfg.APIBasePath

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate schema")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("setup opentelemetry")
	}

	// Periodically drop expired submit-replay records.
	go func() {
		t := time.NewTicker(cfg.IdempotencySweep)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if n, err := repo.PurgeExpiredIdempotency(ctx, db, time.Now().UTC()); err != nil {
					log.Warn().Err(err).Msg("idempotency sweep failed")
				} else if n > 0 {
					log.Debug().Int64("purged", n).Msg("idempotency sweep")
				}
			}
		}
	}()

	engine := gin.New()
	httpapi.RegisterRoutes(engine, db,
		auth.HeaderResolver{},
		activity.NewZerologSink(log.With().Str("component", "activity").Logger()),
		cfg,
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown")
	}
}
