// Package config defines the configuration of the molgraph binaries. This file
// holds only data types and validation; loading lives in loader.go.
package config

import (
	"fmt"
	"time"

	"github.com/turtacn/molgraph/internal/infrastructure/monitoring/logging"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sections
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds the HTTP and gRPC listeners of cmd/apiserver.
type ServerConfig struct {
	HTTPPort        int           `mapstructure:"http_port"`
	GRPCPort        int           `mapstructure:"grpc_port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
}

// MetricsConfig controls the prometheus collector.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Path      string `mapstructure:"path"`
}

// StructureConfig tunes the structural graph service.
type StructureConfig struct {
	// InferBonds adds covalent bonds on ingest when a snapshot carries none.
	InferBonds    bool          `mapstructure:"infer_bonds"`
	BondTolerance float64       `mapstructure:"bond_tolerance"`
	MaxAtoms      int           `mapstructure:"max_atoms"`
	SummaryTTL    time.Duration `mapstructure:"summary_ttl"`
}

// PostgresConfig is the server-side snapshot store.
type PostgresConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN renders the libpq connection URL.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s", c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// SQLiteConfig is the local snapshot store used by the CLI.
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// DatabaseConfig groups the snapshot stores.
type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
}

// RedisConfig is the summary cache.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// Neo4jConfig is the graph projection target.
type Neo4jConfig struct {
	Enabled               bool          `mapstructure:"enabled"`
	URI                   string        `mapstructure:"uri"`
	User                  string        `mapstructure:"user"`
	Password              string        `mapstructure:"password"`
	Database              string        `mapstructure:"database"`
	MaxConnectionPoolSize int           `mapstructure:"max_connection_pool_size"`
	ConnectionTimeout     time.Duration `mapstructure:"connection_timeout"`
}

// KafkaConfig carries structure events between apiserver and worker.
type KafkaConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	GroupID      string        `mapstructure:"group_id"`
	BatchSize    int           `mapstructure:"batch_size"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	MaxRetries   int           `mapstructure:"max_retries"`
	StartOffset  string        `mapstructure:"start_offset"` // earliest | latest
}

// MinIOConfig is the snapshot archive.
type MinIOConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Region    string `mapstructure:"region"`
}

// OpenSearchConfig is the model catalogue index.
type OpenSearchConfig struct {
	Enabled            bool     `mapstructure:"enabled"`
	Addresses          []string `mapstructure:"addresses"`
	User               string   `mapstructure:"user"`
	Password           string   `mapstructure:"password"`
	InsecureSkipVerify bool     `mapstructure:"insecure_skip_verify"`
	Index              string   `mapstructure:"index"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root of every molgraph setting. Adapters whose Enabled flag is
// false are not constructed and the service runs without them.
type Config struct {
	Server     ServerConfig      `mapstructure:"server"`
	Log        logging.LogConfig `mapstructure:"log"`
	Metrics    MetricsConfig     `mapstructure:"metrics"`
	Structure  StructureConfig   `mapstructure:"structure"`
	Database   DatabaseConfig    `mapstructure:"database"`
	Redis      RedisConfig       `mapstructure:"redis"`
	Neo4j      Neo4jConfig       `mapstructure:"neo4j"`
	Kafka      KafkaConfig       `mapstructure:"kafka"`
	MinIO      MinIOConfig       `mapstructure:"minio"`
	OpenSearch OpenSearchConfig  `mapstructure:"opensearch"`
}

// Validate checks a defaulted Config and returns the first problem found.
func (c *Config) Validate() error {
	if err := validPort("server.http_port", c.Server.HTTPPort); err != nil {
		return err
	}
	if err := validPort("server.grpc_port", c.Server.GRPCPort); err != nil {
		return err
	}
	if c.Server.HTTPPort == c.Server.GRPCPort {
		return fmt.Errorf("config: server.http_port and server.grpc_port must differ, both are %d", c.Server.HTTPPort)
	}

	if _, err := logging.ParseLevel(string(c.Log.Level)); err != nil {
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	if c.Structure.BondTolerance < 0 {
		return fmt.Errorf("config: structure.bond_tolerance must be ≥ 0, got %v", c.Structure.BondTolerance)
	}
	if c.Structure.MaxAtoms < 1 {
		return fmt.Errorf("config: structure.max_atoms must be ≥ 1, got %d", c.Structure.MaxAtoms)
	}

	if pg := c.Database.Postgres; pg.Enabled {
		if pg.Host == "" {
			return fmt.Errorf("config: database.postgres.host is required")
		}
		if err := validPort("database.postgres.port", pg.Port); err != nil {
			return err
		}
		if pg.User == "" || pg.DBName == "" {
			return fmt.Errorf("config: database.postgres.user and database.postgres.dbname are required")
		}
		if pg.MaxConns < 1 || pg.MinConns > pg.MaxConns {
			return fmt.Errorf("config: database.postgres pool bounds invalid (min %d, max %d)", pg.MinConns, pg.MaxConns)
		}
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required")
	}
	if c.Neo4j.Enabled && c.Neo4j.URI == "" {
		return fmt.Errorf("config: neo4j.uri is required")
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
		}
		if c.Kafka.Topic == "" || c.Kafka.GroupID == "" {
			return fmt.Errorf("config: kafka.topic and kafka.group_id are required")
		}
		switch c.Kafka.StartOffset {
		case "earliest", "latest":
		default:
			return fmt.Errorf("config: kafka.start_offset %q is invalid; expected earliest|latest", c.Kafka.StartOffset)
		}
	}
	if c.MinIO.Enabled && (c.MinIO.Endpoint == "" || c.MinIO.Bucket == "") {
		return fmt.Errorf("config: minio.endpoint and minio.bucket are required")
	}
	if c.OpenSearch.Enabled && len(c.OpenSearch.Addresses) == 0 {
		return fmt.Errorf("config: opensearch.addresses must contain at least one address")
	}
	return nil
}

func validPort(key string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("config: %s %d is out of range [1, 65535]", key, port)
	}
	return nil
}

//Personal.AI order the ending
