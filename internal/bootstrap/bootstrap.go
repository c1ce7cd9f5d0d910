// Package bootstrap builds the infrastructure adapters named by the config and
// hands them to the application services. Adapters whose section is disabled
// stay nil; the services treat a nil port as absent.
package bootstrap

import (
	"context"
	"fmt"
	"sync"

	"github.com/turtacn/molgraph/internal/application/projection"
	"github.com/turtacn/molgraph/internal/application/structure"
	"github.com/turtacn/molgraph/internal/config"
	infraNeo4j "github.com/turtacn/molgraph/internal/infrastructure/database/neo4j"
	neo4jrepo "github.com/turtacn/molgraph/internal/infrastructure/database/neo4j/repositories"
	"github.com/turtacn/molgraph/internal/infrastructure/database/postgres"
	pgrepo "github.com/turtacn/molgraph/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/molgraph/internal/infrastructure/database/redis"
	"github.com/turtacn/molgraph/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/molgraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molgraph/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/molgraph/internal/infrastructure/search/opensearch"
	"github.com/turtacn/molgraph/internal/infrastructure/storage/minio"
	"github.com/turtacn/molgraph/internal/interfaces/http/handlers"
)

// Infrastructure holds every opened adapter. Close releases them in reverse
// order of opening.
type Infrastructure struct {
	Config  *config.Config
	Logger  logging.Logger
	Metrics *prometheus.StructureMetrics
	// Collector is nil when metrics are disabled.
	Collector prometheus.MetricsCollector

	Postgres   *postgres.Connection
	Models     *pgrepo.ModelRepository
	Events     *pgrepo.EventRepository
	Redis      *redis.Client
	Summaries  *redis.SummaryCache
	Locker     *redis.ModelLocker
	Neo4j      *infraNeo4j.Driver
	Graph      *neo4jrepo.StructureGraphRepository
	Producer   *kafka.Producer
	Publisher  *kafka.EventPublisher
	MinIO      *minio.Client
	Archive    *minio.SnapshotArchive
	OpenSearch *opensearch.Client
	Indexer    *opensearch.Indexer
	Searcher   *opensearch.Searcher

	checkers []handlers.HealthChecker
	closers  []func()
	once     sync.Once
}

// Options select the adapters a binary needs.
type Options struct {
	// Source names the producer in event envelopes.
	Source string
	// Publish opens the Kafka producer.
	Publish bool
	// Project opens the projection targets (neo4j and the opensearch indexer).
	Project bool
}

// Open connects every enabled adapter. On error the adapters already opened
// are closed again.
func Open(ctx context.Context, cfg *config.Config, logger logging.Logger, opts Options) (_ *Infrastructure, err error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	infra := &Infrastructure{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			infra.Close()
		}
	}()

	if cfg.Metrics.Enabled {
		infra.Collector, err = prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			EnableProcessMetrics: true,
			EnableGoMetrics:      true,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
		infra.Metrics = prometheus.NewStructureMetrics(infra.Collector)
	}

	if pg := cfg.Database.Postgres; pg.Enabled {
		if err = infra.openPostgres(ctx, pg); err != nil {
			return nil, err
		}
	}
	if cfg.Redis.Enabled {
		if err = infra.openRedis(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.MinIO.Enabled {
		if err = infra.openMinIO(ctx, cfg.MinIO); err != nil {
			return nil, err
		}
	}
	if cfg.OpenSearch.Enabled {
		if err = infra.openOpenSearch(ctx, cfg.OpenSearch, opts.Project); err != nil {
			return nil, err
		}
	}
	if cfg.Neo4j.Enabled && opts.Project {
		if err = infra.openNeo4j(cfg.Neo4j); err != nil {
			return nil, err
		}
	}
	if cfg.Kafka.Enabled && opts.Publish {
		if err = infra.openKafka(ctx, cfg.Kafka, opts.Source); err != nil {
			return nil, err
		}
	}
	return infra, nil
}

func (i *Infrastructure) openPostgres(ctx context.Context, pg config.PostgresConfig) error {
	conn, err := postgres.NewConnection(ctx, pg, i.Logger)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	i.Postgres = conn
	i.closers = append(i.closers, conn.Close)

	if pg.AutoMigrate {
		if err := postgres.NewMigrator(conn.URL(), pg.MigrationsPath, i.Logger).Up(); err != nil {
			return fmt.Errorf("postgres migrations: %w", err)
		}
	}
	repoLog := pgrepo.NewLogger(i.Logger)
	i.Models = pgrepo.NewModelRepository(conn.Pool(), repoLog)
	i.Events = pgrepo.NewEventRepository(conn.Pool(), repoLog)
	i.checkers = append(i.checkers, checker{"postgres", conn.HealthCheck})
	return nil
}

func (i *Infrastructure) openRedis(cfg *config.Config) error {
	client, err := redis.NewClient(cfg.Redis, i.Logger)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	i.Redis = client
	i.closers = append(i.closers, func() { _ = client.Close() })

	cache := redis.NewRedisCache(client, i.Logger, redis.WithNamespace("summary"))
	i.Summaries = redis.NewSummaryCache(cache, cfg.Structure.SummaryTTL, i.Metrics, i.Logger)
	i.Locker = redis.NewModelLocker(client, i.Logger)
	i.checkers = append(i.checkers, checker{"redis", client.Ping})
	return nil
}

func (i *Infrastructure) openMinIO(ctx context.Context, cfg config.MinIOConfig) error {
	client, err := minio.NewClient(cfg, i.Logger)
	if err != nil {
		return fmt.Errorf("minio: %w", err)
	}
	if err := client.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("minio: %w", err)
	}
	i.MinIO = client
	i.Archive = minio.NewSnapshotArchive(client, i.Logger)
	i.checkers = append(i.checkers, checker{"minio", client.HealthCheck})
	return nil
}

func (i *Infrastructure) openOpenSearch(ctx context.Context, cfg config.OpenSearchConfig, index bool) error {
	client, err := opensearch.NewClient(opensearch.ClientConfigFrom(cfg), i.Logger)
	if err != nil {
		return fmt.Errorf("opensearch: %w", err)
	}
	i.OpenSearch = client
	i.closers = append(i.closers, func() { _ = client.Close() })

	i.Searcher = opensearch.NewSearcher(client, cfg.Index, i.Logger)
	if index {
		i.Indexer = opensearch.NewIndexer(client, cfg.Index, "false", i.Logger)
		if err := i.Indexer.EnsureIndex(ctx); err != nil {
			return fmt.Errorf("opensearch: %w", err)
		}
	}
	i.checkers = append(i.checkers, checker{"opensearch", client.Ping})
	return nil
}

func (i *Infrastructure) openNeo4j(cfg config.Neo4jConfig) error {
	driver, err := infraNeo4j.NewDriver(cfg, i.Logger)
	if err != nil {
		return fmt.Errorf("neo4j: %w", err)
	}
	i.Neo4j = driver
	i.closers = append(i.closers, func() { _ = driver.Close(context.Background()) })
	i.Graph = neo4jrepo.NewStructureGraphRepository(driver, i.Logger)
	i.checkers = append(i.checkers, checker{"neo4j", driver.HealthCheck})
	return nil
}

func (i *Infrastructure) openKafka(ctx context.Context, cfg config.KafkaConfig, source string) error {
	if len(cfg.Brokers) > 0 {
		tm, err := kafka.NewTopicManager(cfg.Brokers, i.Logger)
		if err != nil {
			return fmt.Errorf("kafka: %w", err)
		}
		err = tm.EnsureTopics(ctx, kafka.DefaultTopics(cfg.Topic))
		_ = tm.Close()
		if err != nil {
			return fmt.Errorf("kafka: %w", err)
		}
	}
	producer, err := kafka.NewProducer(kafka.ProducerConfigFrom(cfg), i.Logger)
	if err != nil {
		return fmt.Errorf("kafka: %w", err)
	}
	i.Producer = producer
	i.Publisher = kafka.NewEventPublisher(producer, cfg.Topic, source, i.Metrics, i.Logger)
	i.closers = append(i.closers, func() { _ = i.Publisher.Close() })
	return nil
}

// StructureDeps maps the opened adapters onto the structure service ports.
// Typed nils are never passed: an absent adapter stays an untyped nil.
func (i *Infrastructure) StructureDeps() structure.Deps {
	deps := structure.Deps{Metrics: i.Metrics, Logger: i.Logger}
	if i.Models != nil {
		deps.Repository = i.Models
	}
	if i.Events != nil {
		deps.EventLog = i.Events
	}
	if i.Archive != nil {
		deps.Archive = i.Archive
	}
	if i.Publisher != nil {
		deps.Publisher = i.Publisher
	}
	if i.Summaries != nil {
		deps.Summaries = i.Summaries
	}
	if i.Locker != nil {
		deps.Locker = i.Locker
	}
	if i.Searcher != nil {
		deps.Catalogue = i.Searcher
	}
	return deps
}

// StructureService builds the structure service over the opened adapters.
func (i *Infrastructure) StructureService() structure.Service {
	return structure.NewService(structure.ConfigFrom(i.Config.Structure), i.StructureDeps())
}

// ProjectionService builds the projection service. It needs the snapshot
// store; without it there is nothing to project from.
func (i *Infrastructure) ProjectionService() (projection.Service, error) {
	if i.Models == nil {
		return nil, fmt.Errorf("projection needs database.postgres to be enabled")
	}
	var (
		graph     projection.GraphProjector
		catalogue projection.CatalogueIndexer
	)
	if i.Graph != nil {
		graph = i.Graph
	}
	if i.Indexer != nil {
		catalogue = i.Indexer
	}
	return projection.NewService(i.Models, graph, catalogue, i.Metrics, i.Logger), nil
}

// HealthCheckers returns one readiness check per opened adapter.
func (i *Infrastructure) HealthCheckers() []handlers.HealthChecker {
	return append([]handlers.HealthChecker(nil), i.checkers...)
}

// Close releases every adapter. It is safe to call more than once.
func (i *Infrastructure) Close() {
	i.once.Do(func() {
		for j := len(i.closers) - 1; j >= 0; j-- {
			i.closers[j]()
		}
		_ = i.Logger.Sync()
	})
}

// checker adapts a ping function to handlers.HealthChecker.
type checker struct {
	name  string
	check func(ctx context.Context) error
}

func (c checker) Name() string                    { return c.name }
func (c checker) Check(ctx context.Context) error { return c.check(ctx) }

//Personal.AI order the ending
