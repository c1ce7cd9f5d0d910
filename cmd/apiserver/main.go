// Command apiserver serves the structural model API over HTTP and gRPC.
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

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/turtacn/molgraph/internal/bootstrap"
	"github.com/turtacn/molgraph/internal/config"
	"github.com/turtacn/molgraph/internal/infrastructure/monitoring/logging"
	grpcserver "github.com/turtacn/molgraph/internal/interfaces/grpc"
	"github.com/turtacn/molgraph/internal/interfaces/grpc/services"
	httpserver "github.com/turtacn/molgraph/internal/interfaces/http"
	"github.com/turtacn/molgraph/internal/interfaces/http/handlers"
)

const defaultConfigPath = "configs/config.yaml"

// Build-time variables injected via ldflags.
var version = "dev"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	httpPort := flag.Int("http-port", 0, "HTTP server port (overrides config)")
	grpcPort := flag.Int("grpc-port", 0, "gRPC server port (overrides config)")
	reflection := flag.Bool("grpc-reflection", false, "register the gRPC reflection service")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *httpPort > 0 {
		cfg.Server.HTTPPort = *httpPort
	}
	if *grpcPort > 0 {
		cfg.Server.GRPCPort = *grpcPort
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, *reflection); err != nil {
		logger.Error("apiserver exited", logging.Err(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger logging.Logger, reflection bool) error {
	logger.Info("starting molgraph API server",
		logging.String("version", version),
		logging.Int("http_port", cfg.Server.HTTPPort),
		logging.Int("grpc_port", cfg.Server.GRPCPort),
	)

	infra, err := bootstrap.Open(ctx, cfg, logger, bootstrap.Options{Source: "molgraph-apiserver", Publish: true})
	if err != nil {
		return err
	}
	defer infra.Close()
	svc := infra.StructureService()

	routerCfg := httpserver.RouterConfig{
		StructureHandler: handlers.NewStructureHandler(svc, logger),
		HealthHandler:    handlers.NewHealthHandler(version, infra.HealthCheckers()...),
		Logger:           logger,
		Metrics:          infra.Metrics,
		MaxBodySize:      cfg.Server.MaxBodySize,
	}
	if infra.Collector != nil {
		routerCfg.MetricsHandler = infra.Collector.Handler()
	}
	httpSrv := httpserver.NewServer(cfg.Server, httpserver.NewRouter(routerCfg), logger)

	grpcSrv, err := grpcserver.NewServer(cfg.Server,
		grpcserver.WithLogger(logger),
		grpcserver.WithMetrics(infra.Metrics),
		grpcserver.WithReflection(reflection),
	)
	if err != nil {
		return err
	}
	grpcSrv.RegisterService(&services.StructureServiceDesc, services.NewStructureServer(svc, logger))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := grpcSrv.Start(); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down servers")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", logging.Err(err))
		}
		return grpcSrv.Stop(shutdownCtx)
	})

	err = g.Wait()
	logger.Info("servers stopped")
	return err
}

// loadConfig reads path when it exists and falls back to environment
// variables and defaults otherwise.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return config.LoadFromEnv()
	}
	return config.Load(path)
}

//Personal.AI order the ending
