// Package events publishes caption and Q&A events to Kafka and consumes raw
// caption fragments from it.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/ruchit878/smart-job-kit-generator/internal/observability/metrics"
)

// Publisher publishes caption mutations and Q&A documents to separate Kafka
// topics. A disabled publisher only logs.
type Publisher struct {
	writerCaptions *kafka.Writer
	writerQA       *kafka.Writer
	principal      string
	topicCaptions  string
	topicQA        string
	enabled        bool
	metrics        *metrics.Metrics
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers       []string
	TopicCaptions string
	TopicQA       string
	Principal     string
	Enabled       bool
}

// New creates a Kafka event publisher.
func New(cfg *Config) *Publisher {
	m := metrics.DefaultMetrics

	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{
			enabled: false,
			metrics: m,
		}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			principal:     cfg.Principal,
			topicCaptions: cfg.TopicCaptions,
			topicQA:       cfg.TopicQA,
			enabled:       false,
			metrics:       m,
		}
	}

	transport := &kafka.Transport{
		DialTimeout: dialTimeout,
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicCaptions", cfg.TopicCaptions).
		Str("topicQA", cfg.TopicQA).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writerCaptions: newWriter(cfg.Brokers, cfg.TopicCaptions, transport),
		writerQA:       newWriter(cfg.Brokers, cfg.TopicQA, transport),
		principal:      cfg.Principal,
		topicCaptions:  cfg.TopicCaptions,
		topicQA:        cfg.TopicQA,
		enabled:        true,
		metrics:        m,
	}
}

// dialTimeout is long so broker DNS can settle inside Kubernetes.
const dialTimeout = 10 * time.Second

func newDialer() *kafka.Dialer {
	return &kafka.Dialer{
		Timeout:   dialTimeout,
		DualStack: true,
	}
}

func newWriter(brokers []string, topic string, transport *kafka.Transport) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}
}

// PublishCaption publishes a caption mutation keyed by session, so every
// mutation of one session lands on the same partition in order.
func (p *Publisher) PublishCaption(ctx context.Context, sessionID, eventType string, event any) error {
	return p.publish(ctx, p.writerCaptions, p.topicCaptions, eventType, sessionID, event)
}

// PublishQA publishes a parsed Q&A document keyed by report.
func (p *Publisher) PublishQA(ctx context.Context, reportID, eventType string, event any) error {
	return p.publish(ctx, p.writerQA, p.topicQA, eventType, reportID, event)
}

// Enabled reports whether events reach Kafka.
func (p *Publisher) Enabled() bool {
	return p.enabled
}

func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, topic, eventType, key string, event any) error {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", topic).
		Str("eventType", eventType).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("Publishing event")

	if !p.enabled || writer == nil {
		p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(eventType)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("key", key).
			Msg("Failed to write to Kafka")
		p.metrics.RecordKafkaPublish(topic, eventType, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
	return nil
}

// Close closes both Kafka writers.
func (p *Publisher) Close() error {
	var err error
	if p.writerCaptions != nil {
		if e := p.writerCaptions.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing captions writer")
			err = e
		}
	}
	if p.writerQA != nil {
		if e := p.writerQA.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing Q&A writer")
			err = e
		}
	}
	return err
}
