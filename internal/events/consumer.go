package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/ruchit878/smart-job-kit-generator/internal/models"
	"github.com/ruchit878/smart-job-kit-generator/internal/observability/metrics"
)

// FragmentHandler receives every valid fragment read from the bus.
type FragmentHandler func(ctx context.Context, f models.CaptionFragment) error

// Validator checks a decoded fragment before it is handed on.
type Validator interface {
	ValidateFragment(f models.CaptionFragment) error
}

// ConsumerConfig holds Kafka fragment consumer configuration.
type ConsumerConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// Consumer reads raw caption fragments from Kafka.
type Consumer struct {
	reader    *kafka.Reader
	topic     string
	validator Validator
	metrics   *metrics.Metrics
}

// NewConsumer creates a fragment consumer. The validator may be nil.
func NewConsumer(cfg ConsumerConfig, v Validator) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.GroupID,
		Dialer:         newDialer(),
		MinBytes:       1,
		MaxBytes:       10e6,
		MaxWait:        500 * time.Millisecond,
		CommitInterval: time.Second,
		StartOffset:    kafka.LastOffset,
	})

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", cfg.Topic).
		Str("groupId", cfg.GroupID).
		Msg("Kafka fragment consumer initialized")

	return &Consumer{
		reader:    reader,
		topic:     cfg.Topic,
		validator: v,
		metrics:   metrics.DefaultMetrics,
	}
}

// Run reads messages until ctx is cancelled. Malformed or invalid messages
// are logged and skipped; handler errors are logged and do not stop the loop.
func (c *Consumer) Run(ctx context.Context, handle FragmentHandler) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			log.Error().Err(err).Str("topic", c.topic).Msg("Kafka read error")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		c.metrics.RecordKafkaConsumed(c.topic, c.dispatch(ctx, msg, handle))
	}
}

func (c *Consumer) dispatch(ctx context.Context, msg kafka.Message, handle FragmentHandler) string {
	f, err := decodeFragment(msg.Value)
	if err != nil {
		log.Warn().Err(err).Str("topic", c.topic).Int64("offset", msg.Offset).Msg("Skipping malformed fragment")
		return "malformed"
	}
	if c.validator != nil {
		if err := c.validator.ValidateFragment(f); err != nil {
			log.Warn().Err(err).Str("interactionId", f.InteractionID).Msg("Skipping invalid fragment")
			return "invalid"
		}
	}
	if err := handle(ctx, f); err != nil {
		log.Warn().Err(err).Str("interactionId", f.InteractionID).Msg("Fragment handler failed")
		return "error"
	}
	return "ok"
}

func decodeFragment(value []byte) (models.CaptionFragment, error) {
	var f models.CaptionFragment
	err := json.Unmarshal(value, &f)
	return f, err
}

// Close closes the underlying reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
