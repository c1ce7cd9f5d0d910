package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is prepended to every environment override:
// database.postgres.host → MOLGRAPH_DATABASE_POSTGRES_HOST.
const envPrefix = "MOLGRAPH"

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindKeys(v)
	return v
}

// bindKeys registers every leaf key so that environment overrides reach
// Unmarshal even when the YAML file omits the key. AutomaticEnv alone only
// affects keys viper already knows about.
func bindKeys(v *viper.Viper) {
	for _, key := range []string{
		"server.http_port", "server.grpc_port", "server.read_timeout", "server.write_timeout",
		"server.shutdown_timeout", "server.max_body_size",
		"log.level", "log.format",
		"metrics.enabled", "metrics.namespace", "metrics.path",
		"structure.infer_bonds", "structure.bond_tolerance", "structure.max_atoms", "structure.summary_ttl",
		"database.postgres.enabled", "database.postgres.host", "database.postgres.port",
		"database.postgres.user", "database.postgres.password", "database.postgres.dbname",
		"database.postgres.sslmode", "database.postgres.max_conns", "database.postgres.min_conns",
		"database.postgres.migrations_path", "database.postgres.auto_migrate",
		"database.sqlite.path",
		"redis.enabled", "redis.addr", "redis.password", "redis.db", "redis.key_prefix",
		"neo4j.enabled", "neo4j.uri", "neo4j.user", "neo4j.password", "neo4j.database",
		"kafka.enabled", "kafka.brokers", "kafka.topic", "kafka.group_id", "kafka.start_offset",
		"minio.enabled", "minio.endpoint", "minio.access_key", "minio.secret_key", "minio.bucket", "minio.use_ssl",
		"opensearch.enabled", "opensearch.addresses", "opensearch.user", "opensearch.password", "opensearch.index",
	} {
		_ = v.BindEnv(key)
	}
}

// Load reads the YAML file at path, applies MOLGRAPH_* overrides and
// defaults, and validates the result.
func Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", path, err)
	}
	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config from MOLGRAPH_* variables and defaults alone.
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}
	ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return cfg, nil
}

// Watch re-reads path whenever it changes on disk and hands each valid result
// to onChange. Invalid edits go to onError (if non-nil) and the previous
// configuration stays in force. Watch does not block.
func Watch(path string, onChange func(*Config), onError func(error)) error {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: failed to read config file %q: %w", path, err)
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

// MustLoad is Load for main(), where failure is fatal.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}

//Personal.AI order the ending
