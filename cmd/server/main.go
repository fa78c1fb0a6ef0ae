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

	"rentrihub/internal/certstore"
	"rentrihub/internal/movimenti"
	"rentrihub/internal/platform/config"
	"rentrihub/internal/platform/database"
	"rentrihub/internal/platform/httpserver"
	kafkaproducer "rentrihub/internal/platform/kafka/producer"
	"rentrihub/internal/platform/logger"
	platformredis "rentrihub/internal/platform/redis"
	"rentrihub/internal/registri"
	"rentrihub/internal/rentri"
	"rentrihub/internal/signing"
	"rentrihub/internal/transmission"
	transmissionmetrics "rentrihub/internal/transmission/metrics"
	httptransport "rentrihub/internal/transport/http"
	"rentrihub/pkg/platform/audit/publisher"
	auditpostgres "rentrihub/pkg/platform/audit/store/postgres"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(slog.LevelInfo)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("database unavailable", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.Error("schema migration failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// The token cache is Redis-backed when configured so instances share
	// bearer tokens; otherwise each instance caches in process.
	var tokenCache signing.TokenCache = signing.NewMemoryCache()
	rdb, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis unavailable", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if rdb != nil {
		defer rdb.Close()
		tokenCache = signing.NewRedisCache(rdb.Client, log)
		log.Info("token cache backed by redis")
	}

	signer := signing.NewSigner(tokenCache, log)
	client := rentri.NewClient(cfg.Registry.BaseURL(cfg.Environment), signer, log,
		rentri.WithTimeout(cfg.Registry.RequestTimeout))

	auditOpts := []publisher.Option{publisher.WithLogger(log)}
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafkaproducer.New(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic, log)
		if err != nil {
			log.Error("kafka unavailable", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer producer.Close()
		if err := producer.EnsureTopic(ctx, 3); err != nil {
			log.Error("audit topic creation failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		auditOpts = append(auditOpts, publisher.WithSink(producer), publisher.WithAsyncBuffer(256))
	}
	auditor := publisher.NewPublisher(auditpostgres.New(db), auditOpts...)
	defer auditor.Close()

	certService := certstore.NewService(certstore.NewPostgresStore(db), log,
		certstore.WithAuditor(auditor))
	registroService := registri.NewService(
		registri.NewPostgresStore(db), certService, signer, client, auditor, log)
	syncService := transmission.NewService(
		registri.NewPostgresStore(db),
		movimenti.NewPostgresStore(db),
		certService,
		signer,
		client,
		movimenti.NewBuilder(log),
		auditor,
		transmissionmetrics.New(),
		log,
	)

	handler := httptransport.NewHandler(certService, registroService, syncService, log)
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler, log))

	go func() {
		log.Info("server listening",
			slog.String("addr", cfg.Addr),
			slog.String("environment", cfg.Environment.String()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", slog.String("error", err.Error()))
	}
}
