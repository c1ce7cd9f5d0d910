// Command worker consumes structure events from Kafka and keeps the graph
// projection and the catalogue index in step with the snapshot store.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/molgraph/internal/bootstrap"
	"github.com/turtacn/molgraph/internal/config"
	"github.com/turtacn/molgraph/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/molgraph/internal/infrastructure/monitoring/logging"
	httpserver "github.com/turtacn/molgraph/internal/interfaces/http"
	"github.com/turtacn/molgraph/internal/interfaces/http/handlers"
)

const (
	defaultWorkerConfigPath = "configs/config.yaml"
	defaultHealthPort       = 8081
)

var version = "dev"

func main() {
	configPath := flag.String("config", defaultWorkerConfigPath, "path to configuration file")
	healthPort := flag.Int("health-port", defaultHealthPort, "port of the /healthz and /metrics listener")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, *healthPort); err != nil {
		logger.Error("worker exited", logging.Err(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger logging.Logger, healthPort int) error {
	if !cfg.Kafka.Enabled {
		return fmt.Errorf("worker needs kafka to be enabled")
	}
	logger = logger.Named("worker")
	logger.Info("starting molgraph worker",
		logging.String("version", version),
		logging.String("topic", cfg.Kafka.Topic),
		logging.String("group", cfg.Kafka.GroupID),
	)

	infra, err := bootstrap.Open(ctx, cfg, logger, bootstrap.Options{Source: "molgraph-worker", Project: true})
	if err != nil {
		return err
	}
	defer infra.Close()

	proj, err := infra.ProjectionService()
	if err != nil {
		return err
	}

	consumerCfg := kafka.ConsumerConfigFrom(cfg.Kafka)
	consumer, err := kafka.NewConsumer(consumerCfg, logger)
	if err != nil {
		return err
	}
	defer consumer.Close()
	for _, topic := range consumerCfg.Topics {
		consumer.Subscribe(topic, kafka.StructureEventHandler(proj.Handle))
	}

	health := startHealthServer(cfg, infra, healthPort, logger)

	if err := consumer.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()

	logger.Info("shutting down worker")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := health.Shutdown(shutdownCtx); err != nil {
		logger.Warn("health server shutdown error", logging.Err(err))
	}
	return nil
}

// startHealthServer exposes probes and metrics for the orchestrator.
func startHealthServer(cfg *config.Config, infra *bootstrap.Infrastructure, port int, logger logging.Logger) *httpserver.Server {
	routerCfg := httpserver.RouterConfig{
		HealthHandler: handlers.NewHealthHandler(version, infra.HealthCheckers()...),
		Logger:        logger,
	}
	if infra.Collector != nil {
		routerCfg.MetricsHandler = infra.Collector.Handler()
	}
	serverCfg := cfg.Server
	serverCfg.HTTPPort = port
	srv := httpserver.NewServer(serverCfg, httpserver.NewRouter(routerCfg), logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server error", logging.Err(err))
		}
	}()
	return srv
}

func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return config.LoadFromEnv()
	}
	return config.Load(path)
}

//Personal.AI order the ending
