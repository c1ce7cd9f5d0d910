package config

import "time"

const (
	DefaultHTTPPort = 8080
	DefaultGRPCPort = 9090

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsNamespace = "molgraph"
	DefaultMetricsPath      = "/metrics"

	DefaultBondTolerance = 0.45
	DefaultMaxAtoms      = 200000
	DefaultSummaryTTL    = 10 * time.Minute

	DefaultPostgresHost     = "localhost"
	DefaultPostgresPort     = 5432
	DefaultPostgresDB       = "molgraph"
	DefaultPostgresMaxConns = 10
	DefaultMigrationsPath   = "file://migrations"

	DefaultSQLitePath = "molgraph.db"

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisKeyPrefix = "molgraph:"

	DefaultNeo4jURI = "bolt://localhost:7687"

	DefaultKafkaBroker  = "localhost:9092"
	DefaultKafkaTopic   = "molgraph.structure.events"
	DefaultKafkaGroupID = "molgraph-worker"

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket   = "molgraph-snapshots"

	DefaultOpenSearchAddress = "http://localhost:9200"
	DefaultOpenSearchIndex   = "molgraph-models"
)

// ApplyDefaults fills zero-value fields. Explicit settings always win; boolean
// switches are left alone because false is a meaningful choice.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.HTTPPort == 0 {
		cfg.Server.HTTPPort = DefaultHTTPPort
	}
	if cfg.Server.GRPCPort == 0 {
		cfg.Server.GRPCPort = DefaultGRPCPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = 64 << 20
	}

	// ── Log / metrics ─────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}

	// ── Structure ─────────────────────────────────────────────────────────────
	if cfg.Structure.BondTolerance == 0 {
		cfg.Structure.BondTolerance = DefaultBondTolerance
	}
	if cfg.Structure.MaxAtoms == 0 {
		cfg.Structure.MaxAtoms = DefaultMaxAtoms
	}
	if cfg.Structure.SummaryTTL == 0 {
		cfg.Structure.SummaryTTL = DefaultSummaryTTL
	}

	// ── Stores ────────────────────────────────────────────────────────────────
	pg := &cfg.Database.Postgres
	if pg.Host == "" {
		pg.Host = DefaultPostgresHost
	}
	if pg.Port == 0 {
		pg.Port = DefaultPostgresPort
	}
	if pg.DBName == "" {
		pg.DBName = DefaultPostgresDB
	}
	if pg.SSLMode == "" {
		pg.SSLMode = "disable"
	}
	if pg.MaxConns == 0 {
		pg.MaxConns = DefaultPostgresMaxConns
	}
	if pg.ConnMaxLifetime == 0 {
		pg.ConnMaxLifetime = time.Hour
	}
	if pg.MigrationsPath == "" {
		pg.MigrationsPath = DefaultMigrationsPath
	}
	if cfg.Database.SQLite.Path == "" {
		cfg.Database.SQLite.Path = DefaultSQLitePath
	}

	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = 10
	}
	if cfg.Redis.DialTimeout == 0 {
		cfg.Redis.DialTimeout = 5 * time.Second
	}

	// ── Projection and messaging ──────────────────────────────────────────────
	if cfg.Neo4j.URI == "" {
		cfg.Neo4j.URI = DefaultNeo4jURI
	}
	if cfg.Neo4j.Database == "" {
		cfg.Neo4j.Database = "neo4j"
	}
	if cfg.Neo4j.MaxConnectionPoolSize == 0 {
		cfg.Neo4j.MaxConnectionPoolSize = 50
	}
	if cfg.Neo4j.ConnectionTimeout == 0 {
		cfg.Neo4j.ConnectionTimeout = 10 * time.Second
	}

	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = DefaultKafkaTopic
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.BatchSize == 0 {
		cfg.Kafka.BatchSize = 100
	}
	if cfg.Kafka.BatchTimeout == 0 {
		cfg.Kafka.BatchTimeout = 50 * time.Millisecond
	}
	if cfg.Kafka.MaxRetries == 0 {
		cfg.Kafka.MaxRetries = 3
	}
	if cfg.Kafka.StartOffset == "" {
		cfg.Kafka.StartOffset = "earliest"
	}

	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}

	if len(cfg.OpenSearch.Addresses) == 0 {
		cfg.OpenSearch.Addresses = []string{DefaultOpenSearchAddress}
	}
	if cfg.OpenSearch.Index == "" {
		cfg.OpenSearch.Index = DefaultOpenSearchIndex
	}
}

//Personal.AI order the ending
