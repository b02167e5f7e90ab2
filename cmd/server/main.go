package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/errgroup"

	"curio/internal/events"
	"curio/internal/events/kafka"
	eventmem "curio/internal/events/store/memory"
	eventsqlite "curio/internal/events/store/sqlite"
	"curio/internal/market/bank"
	"curio/internal/market/metadata"
	"curio/internal/market/service"
	"curio/internal/market/store"
	storemem "curio/internal/market/store/memory"
	storepg "curio/internal/market/store/postgres"
	"curio/internal/platform/config"
	"curio/internal/platform/httpserver"
	"curio/internal/platform/logger"
	"curio/internal/platform/metrics"
	platformredis "curio/internal/platform/redis"
	httptransport "curio/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal/market.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx := context.Background()

	var marketStore store.Store = storemem.New()
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			log.Error("open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		pg := storepg.New(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Error("postgres schema", "error", err)
			os.Exit(1)
		}
		marketStore = pg
		log.Info("using postgres store")
	}

	var journal events.Journal
	if cfg.EventJournalPath != "" {
		js, err := eventsqlite.Open(cfg.EventJournalPath)
		if err != nil {
			log.Error("open event journal", "error", err)
			os.Exit(1)
		}
		defer js.Close()
		journal = js
	} else {
		journal = eventmem.NewStore()
	}

	var pubOpts []events.Option
	if len(cfg.KafkaBrokers) > 0 {
		sink, err := kafka.New(ctx, cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Error("kafka sink", "error", err)
			os.Exit(1)
		}
		defer sink.Close()
		pubOpts = append(pubOpts, events.WithSink(sink))
		log.Info("kafka sink attached", "topic", cfg.KafkaTopic)
	}
	publisher := events.NewPublisher(journal, log, pubOpts...)

	svcOpts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(metrics.New()),
	}
	redisClient, err := platformredis.New(cfg)
	if err != nil {
		log.Error("redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		svcOpts = append(svcOpts, service.WithListedCache(redisClient, cfg.ListedCacheTTL))
		log.Info("listed-items cache enabled", "ttl", cfg.ListedCacheTTL)
	}

	svc, err := service.New(marketStore, metadata.NewInMemoryStore(), bank.NewInMemoryBank(), publisher, svcOpts...)
	if err != nil {
		log.Error("service init", "error", err)
		os.Exit(1)
	}

	handler := httptransport.NewHandler(svc, log)
	router := httptransport.NewRouter(handler, []byte(cfg.JWTSigningKey), log)
	srv := httpserver.New(cfg.Addr, router)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		log.Info("starting curio", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
