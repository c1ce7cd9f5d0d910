//go:build integration

// Package integration runs the structure service against real backing stores
// started in Docker. Tests are gated behind the "integration" build tag.
package integration

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/turtacn/molgraph/internal/config"
	"github.com/turtacn/molgraph/internal/infrastructure/database/postgres"
)

// SetupTimeout bounds the start of one container.
const SetupTimeout = 90 * time.Second

// startContainer starts req and returns the host and mapped port of
// exposedPort. The container is terminated when the test ends.
func startContainer(t *testing.T, req testcontainers.ContainerRequest, exposedPort nat.Port) (string, int) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), SetupTimeout)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	mapped, err := container.MappedPort(ctx, exposedPort)
	require.NoError(t, err)
	port, err := strconv.Atoi(mapped.Port())
	require.NoError(t, err)
	return host, port
}

// startPostgres returns a Postgres config with migrations switched on.
func startPostgres(t *testing.T) config.PostgresConfig {
	t.Helper()
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "molgraph",
			"POSTGRES_PASSWORD": "molgraph",
			"POSTGRES_DB":       "molgraph_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(SetupTimeout),
	}, "5432/tcp")

	return config.PostgresConfig{
		Enabled:        true,
		Host:           host,
		Port:           port,
		User:           "molgraph",
		Password:       "molgraph",
		DBName:         "molgraph_test",
		SSLMode:        "disable",
		MaxConns:       4,
		MinConns:       1,
		AutoMigrate:    true,
		MigrationsPath: postgres.EmbeddedSource,
	}
}

// startRedis returns the address of a fresh Redis.
func startRedis(t *testing.T) string {
	t.Helper()
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(SetupTimeout),
	}, "6379/tcp")
	return host + ":" + strconv.Itoa(port)
}

// newConfig returns a defaulted config with every adapter switched off.
func newConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Structure.InferBonds = true
	cfg.Structure.BondTolerance = 0.4
	config.ApplyDefaults(cfg)
	return cfg
}

//Personal.AI order the ending
