package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "rentfinder/internal/adapters/http_server"
	"rentfinder/internal/adapters/imageprobe"
	"rentfinder/internal/adapters/memory"
	"rentfinder/internal/adapters/observability"
	redisad "rentfinder/internal/adapters/redis"
	"rentfinder/internal/app"
	"rentfinder/internal/catalog"
	"rentfinder/internal/domain"
	"rentfinder/internal/shared"
	mysqlrepo "rentfinder/internal/storage/mysql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	observability.Serve()

	// catalog: built once, immutable afterwards
	var (
		provider *catalog.Provider
		repo     domain.ListingRepository
	)
	switch cfg.CatalogSource {
	case shared.SourceMySQL:
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		log.Info().Msg("database connection ok")

		r := mysqlrepo.New(db)
		repo = r
		provider, err = catalog.Load(ctx, r)
		if err != nil {
			log.Fatal().Err(err).Msg("catalog load failed")
		}
	default:
		provider = catalog.New(catalog.Sample(cfg.SampleSize))
	}
	log.Info().Str("source", cfg.CatalogSource).Int("listings", provider.Len()).Msg("catalog ready")

	// session store
	var sessions domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer rc.Close()
		if err := rc.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable; sessions will fall back to the full listing")
		}
		sessions = rc
	} else {
		sessions = memory.New()
	}

	images := app.NewImageStatus(cfg.Placeholder)
	if cfg.ImageProbe {
		go func() {
			checker := imageprobe.New(cfg.ProbeRPS, 10*time.Second)
			n, err := app.ProbeImages(ctx, checker, provider.All(), cfg.ProbeWorkers, images, repo)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Warn().Err(err).Msg("image probe aborted")
				return
			}
			log.Info().Int("broken", n).Int("checked", provider.Len()).Msg("image probe finished")
		}()
	}

	q := app.NewSearchService(provider, sessions, cfg.SessionTTL)

	// http
	srv := server.New(server.Options{SearchRPS: cfg.SearchRPS, SearchBurst: cfg.SearchBurst})
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{S: q, Images: images, SessionTTL: cfg.SessionTTL})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Msg("web listening")
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("web stopped")
}
