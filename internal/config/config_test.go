package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molgraph/internal/config"
)

func validConfig() *config.Config {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return cfg
}

func TestConfig_Validate_Defaults(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestConfig_Validate_Rejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"http port", func(c *config.Config) { c.Server.HTTPPort = 70000 }, "server.http_port"},
		{"grpc port", func(c *config.Config) { c.Server.GRPCPort = -1 }, "server.grpc_port"},
		{"same ports", func(c *config.Config) { c.Server.GRPCPort = c.Server.HTTPPort }, "must differ"},
		{"log level", func(c *config.Config) { c.Log.Level = "verbose" }, "log.level"},
		{"log format", func(c *config.Config) { c.Log.Format = "xml" }, "log.format"},
		{"bond tolerance", func(c *config.Config) { c.Structure.BondTolerance = -0.1 }, "bond_tolerance"},
		{"max atoms", func(c *config.Config) { c.Structure.MaxAtoms = -5 }, "max_atoms"},
		{"postgres user", func(c *config.Config) {
			c.Database.Postgres.Enabled = true
		}, "database.postgres.user"},
		{"postgres pool", func(c *config.Config) {
			c.Database.Postgres.Enabled = true
			c.Database.Postgres.User = "molgraph"
			c.Database.Postgres.MinConns = 20
		}, "pool bounds"},
		{"redis addr", func(c *config.Config) { c.Redis.Enabled = true; c.Redis.Addr = "" }, "redis.addr"},
		{"neo4j uri", func(c *config.Config) { c.Neo4j.Enabled = true; c.Neo4j.URI = "" }, "neo4j.uri"},
		{"kafka brokers", func(c *config.Config) { c.Kafka.Enabled = true; c.Kafka.Brokers = nil }, "kafka.brokers"},
		{"kafka offset", func(c *config.Config) { c.Kafka.Enabled = true; c.Kafka.StartOffset = "middle" }, "start_offset"},
		{"minio bucket", func(c *config.Config) { c.MinIO.Enabled = true; c.MinIO.Bucket = "" }, "minio.bucket"},
		{"opensearch", func(c *config.Config) { c.OpenSearch.Enabled = true; c.OpenSearch.Addresses = nil }, "opensearch.addresses"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestConfig_Validate_DisabledAdaptersAreNotChecked(t *testing.T) {
	cfg := validConfig()
	cfg.Redis.Addr = ""
	cfg.Kafka.Brokers = nil
	cfg.MinIO.Bucket = ""
	assert.NoError(t, cfg.Validate())
}

func TestPostgresConfig_DSN(t *testing.T) {
	pg := config.PostgresConfig{Host: "db", Port: 5433, User: "u", Password: "p", DBName: "molgraph", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5433/molgraph?sslmode=disable", pg.DSN())
}

//Personal.AI order the ending
