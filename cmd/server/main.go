package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"assetd/internal/host"
	"assetd/internal/host/beacon"
	jwttoken "assetd/internal/jwt_token"
	"assetd/internal/platform/config"
	"assetd/internal/platform/httpserver"
	"assetd/internal/platform/logger"
	hostmetrics "assetd/internal/platform/metrics"
	"assetd/internal/platform/middleware"
	"assetd/internal/registry/events"
	"assetd/internal/registry/handler"
	registrymetrics "assetd/internal/registry/metrics"
	"assetd/internal/registry/ports"
	"assetd/internal/registry/service"
	"assetd/internal/registry/store"
	"assetd/pkg/platform/circuit"
	"assetd/pkg/platform/clock"
	"assetd/pkg/platform/httputil"
)

// main wires the registry, its host and the HTTP surface, then runs until
// SIGINT or SIGTERM. Business logic lives in internal/registry.
func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("assetd exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	st, err := openStorage(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if err := st.close(); err != nil {
			log.Warn("failed to close storage", "error", err)
		}
	}()

	publisher, closePublisher, err := buildPublisher(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closePublisher()

	reg := prometheus.DefaultRegisterer
	chain := host.New(clock.Real(), beacon.New(),
		host.WithLogger(log),
		host.WithMetrics(hostmetrics.New(reg)),
		host.WithBackend(st.backend),
	)
	if err := chain.Restore(ctx); err != nil {
		return fmt.Errorf("restore chain: %w", err)
	}
	registry := service.New(
		store.NewTx(st.backend, store.WithTimeout(cfg.Registry.TxTimeout)),
		chain, chain, chain,
		service.WithLogger(log),
		service.WithPublisher(publisher),
		service.WithMetrics(registrymetrics.New(reg)),
		service.WithMaxOwned(int(cfg.Registry.MaxOwned)),
	)

	jwtService := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, cfg.Server.JWTAudience)
	router := newRouter(log, st)
	handler.New(registry, chain, jwttoken.NewJWTServiceAdapter(jwtService), log).Register(router)

	srv := httpserver.New(cfg.Server.Addr, router)
	log.Info("starting assetd",
		"addr", cfg.Server.Addr,
		"storage", cfg.Storage.Driver,
		"max_owned", cfg.Registry.MaxOwned,
		"block_interval", cfg.Registry.BlockInterval.String(),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return chain.Run(gctx, cfg.Registry.BlockInterval)
	})
	g.Go(func() error {
		return httpserver.Serve(gctx, srv, cfg.Server.ShutdownTimeout)
	})
	return g.Wait()
}

func newRouter(log *slog.Logger, st *storage) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(log))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := st.Health(r.Context()); err != nil {
			log.WarnContext(r.Context(), "health check failed", "error", err)
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return r
}

// buildPublisher always logs events and also produces them to Kafka when
// brokers are configured.
func buildPublisher(ctx context.Context, cfg *config.Config, log *slog.Logger) (ports.Publisher, func(), error) {
	fanout := events.Fanout{events.NewLogPublisher(log)}
	if len(cfg.Kafka.Brokers) == 0 {
		return fanout, func() {}, nil
	}

	kafka, err := events.NewKafkaPublisher(events.KafkaConfig{
		Brokers:           cfg.Kafka.Brokers,
		Topic:             cfg.Kafka.Topic,
		Partitions:        cfg.Kafka.Partitions,
		ReplicationFactor: cfg.Kafka.ReplicationFactor,
	}, log)
	if err != nil {
		return nil, nil, fmt.Errorf("connect kafka: %w", err)
	}
	if err := kafka.EnsureTopic(ctx); err != nil && !errors.Is(err, context.Canceled) {
		kafka.Close()
		return nil, nil, fmt.Errorf("ensure kafka topic: %w", err)
	}
	log.Info("publishing registry events to kafka", "topic", cfg.Kafka.Topic)
	guarded := events.NewGuarded(kafka, circuit.New("kafka", circuit.WithCooldown(cfg.Registry.BlockInterval)), log)
	return append(fanout, guarded), kafka.Close, nil
}
