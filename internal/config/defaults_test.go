package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaults_EmptyConfig(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, DefaultHTTPPort, cfg.Server.HTTPPort)
	assert.Equal(t, DefaultGRPCPort, cfg.Server.GRPCPort)
	assert.Equal(t, "info", cfg.Log.Level.String())
	assert.Equal(t, DefaultBondTolerance, cfg.Structure.BondTolerance)
	assert.Equal(t, DefaultSummaryTTL, cfg.Structure.SummaryTTL)
	assert.Equal(t, []string{DefaultKafkaBroker}, cfg.Kafka.Brokers)
	assert.Equal(t, "earliest", cfg.Kafka.StartOffset)
	assert.Equal(t, DefaultSQLitePath, cfg.Database.SQLite.Path)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.Structure.InferBonds)
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Server.HTTPPort = 8181
	cfg.Structure.SummaryTTL = time.Minute
	cfg.Kafka.Topic = "custom"
	ApplyDefaults(cfg)

	assert.Equal(t, 8181, cfg.Server.HTTPPort)
	assert.Equal(t, time.Minute, cfg.Structure.SummaryTTL)
	assert.Equal(t, "custom", cfg.Kafka.Topic)
}

func TestApplyDefaults_Nil(t *testing.T) {
	assert.NotPanics(t, func() { ApplyDefaults(nil) })
}

//Personal.AI order the ending
