package kafka

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/molgraph/internal/config"
	"github.com/turtacn/molgraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molgraph/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/molgraph/pkg/errors"
	stypes "github.com/turtacn/molgraph/pkg/types/structure"
)

var (
	ErrProducerClosed = errors.New(errors.CodeMessageQueueError, "producer closed")
)

// ProducerConfig holds configuration for the Producer.
type ProducerConfig struct {
	Brokers          []string
	Acks             string
	MaxRetries       int
	BatchSize        int
	BatchTimeout     time.Duration
	MaxMessageBytes  int
	CompressionCodec string
	WriteTimeout     time.Duration
}

// ProducerConfigFrom maps the kafka section of the service config.
func ProducerConfigFrom(cfg config.KafkaConfig) ProducerConfig {
	return ProducerConfig{
		Brokers:      cfg.Brokers,
		Acks:         "all",
		MaxRetries:   cfg.MaxRetries,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
	}
}

// ProducerMetrics holds producer counters.
type ProducerMetrics struct {
	MessagesSent   atomic.Int64
	MessagesFailed atomic.Int64
	BytesSent      atomic.Int64
}

// WriterInterface abstracts kafka.Writer for testing.
type WriterInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer writes messages to Kafka.
type Producer struct {
	writer  WriterInterface
	config  ProducerConfig
	logger  logging.Logger
	closed  atomic.Bool
	metrics *ProducerMetrics
}

func NewProducer(cfg ProducerConfig, logger logging.Logger) (*Producer, error) {
	if err := ValidateProducerConfig(cfg); err != nil {
		return nil, err
	}
	cfg = withProducerDefaults(cfg)

	var requiredAcks kafka.RequiredAcks
	switch cfg.Acks {
	case "none":
		requiredAcks = kafka.RequireNone
	case "all":
		requiredAcks = kafka.RequireAll
	default:
		requiredAcks = kafka.RequireOne
	}

	var compression kafka.Compression
	switch cfg.CompressionCodec {
	case "gzip":
		compression = kafka.Gzip
	case "snappy":
		compression = kafka.Snappy
	case "lz4":
		compression = kafka.Lz4
	case "zstd":
		compression = kafka.Zstd
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		MaxAttempts:  cfg.MaxRetries + 1,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: requiredAcks,
		Compression:  compression,
		Transport:    &kafka.Transport{DialTimeout: 10 * time.Second},
	}
	return newProducer(writer, cfg, logger), nil
}

func newProducer(w WriterInterface, cfg ProducerConfig, logger logging.Logger) *Producer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Producer{
		writer:  w,
		config:  withProducerDefaults(cfg),
		logger:  logger,
		metrics: &ProducerMetrics{},
	}
}

func withProducerDefaults(cfg ProducerConfig) ProducerConfig {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.BatchTimeout == 0 {
		cfg.BatchTimeout = 100 * time.Millisecond
	}
	if cfg.MaxMessageBytes == 0 {
		cfg.MaxMessageBytes = 1024 * 1024
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	return cfg
}

// Publish writes msgs in one batch. Every message must carry a topic and a
// value within MaxMessageBytes; nothing is written otherwise.
func (p *Producer) Publish(ctx context.Context, msgs ...*ProducerMessage) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	if len(msgs) == 0 {
		return nil
	}
	kMsgs := make([]kafka.Message, len(msgs))
	var bytes int64
	for i, msg := range msgs {
		if msg.Topic == "" {
			return errors.New(errors.ErrCodeValidation, "Topic required")
		}
		if len(msg.Value) == 0 {
			return errors.New(errors.ErrCodeValidation, "Value required")
		}
		if len(msg.Value) > p.config.MaxMessageBytes {
			return errors.New(errors.ErrCodeValidation, "Message too large")
		}
		kMsgs[i] = toKafkaMessage(msg)
		bytes += int64(len(msg.Value))
	}

	start := time.Now()
	if err := p.writer.WriteMessages(ctx, kMsgs...); err != nil {
		p.metrics.MessagesFailed.Add(int64(len(msgs)))
		return errors.Wrap(err, errors.CodeMessageQueueError, "publish failed")
	}
	p.metrics.MessagesSent.Add(int64(len(msgs)))
	p.metrics.BytesSent.Add(bytes)

	p.logger.Debug("Messages published",
		logging.String("topic", msgs[0].Topic),
		logging.Int("count", len(msgs)),
		logging.Duration("latency", time.Since(start)))
	return nil
}

func (p *Producer) Sent() int64   { return p.metrics.MessagesSent.Load() }
func (p *Producer) Failed() int64 { return p.metrics.MessagesFailed.Load() }

func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := p.writer.Close()
	p.logger.Info("Kafka producer closed", logging.Int64("sent", p.metrics.MessagesSent.Load()))
	return err
}

func toKafkaMessage(msg *ProducerMessage) kafka.Message {
	headers := make([]kafka.Header, 0, len(msg.Headers))
	for k, v := range msg.Headers {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return kafka.Message{
		Topic:   msg.Topic,
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: headers,
		Time:    ts,
	}
}

func ValidateProducerConfig(cfg ProducerConfig) error {
	if len(cfg.Brokers) == 0 {
		return errors.New(errors.ErrCodeValidation, "Brokers required")
	}
	if cfg.MaxRetries < 0 {
		return errors.New(errors.ErrCodeValidation, "MaxRetries must be >= 0")
	}
	return nil
}

// EventPublisher publishes structure events keyed by model id, so every event
// of one model lands on the same partition in order.
type EventPublisher struct {
	producer *Producer
	topic    string
	source   string
	metrics  *prometheus.StructureMetrics
	logger   logging.Logger
}

func NewEventPublisher(producer *Producer, topic, source string, metrics *prometheus.StructureMetrics, logger logging.Logger) *EventPublisher {
	if topic == "" {
		topic = TopicStructureEvents
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &EventPublisher{producer: producer, topic: topic, source: source, metrics: metrics, logger: logger}
}

// Publish sends events as one batch.
func (p *EventPublisher) Publish(ctx context.Context, events ...stypes.StructureEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]*ProducerMessage, 0, len(events))
	for _, ev := range events {
		env, err := NewEventEnvelope(string(ev.Type), p.source, ev)
		if err != nil {
			return err
		}
		if ev.EventID != "" {
			env.EventID = ev.EventID
		}
		msg, err := env.ToMessage(p.topic, []byte(ev.ModelID))
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	err := p.producer.Publish(ctx, msgs...)
	for _, ev := range events {
		p.metrics.RecordPublish(string(ev.Type), err)
	}
	if err != nil {
		p.logger.Error("failed to publish structure events",
			logging.String(logging.FieldModelID, string(events[0].ModelID)),
			logging.Int("count", len(events)), logging.Err(err))
		return err
	}
	return nil
}

func (p *EventPublisher) Close() error { return p.producer.Close() }

//Personal.AI order the ending
