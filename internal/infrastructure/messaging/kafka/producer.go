// Package kafka publishes tracking events to the notification boundary.
// Delivery is fire-and-forget from the scheduler's perspective; whatever
// consumes the topic (mailer, push gateway, dashboard feed) is outside this
// system.
package kafka

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/ipsentinel/ipsentinel/internal/domain/tracking"
	"github.com/ipsentinel/ipsentinel/internal/infrastructure/monitoring/logging"
	"github.com/ipsentinel/ipsentinel/pkg/errors"
)

// TopicTrackingEvents carries every emitted TrackingEvent, keyed by asset id
// so one asset's events stay ordered within a partition.
const TopicTrackingEvents = "tracking.events"

// Config holds producer settings.
type Config struct {
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	Acks         string        `mapstructure:"acks"`
	BatchSize    int           `mapstructure:"batch_size"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// writerInterface abstracts kafka.Writer for tests.
type writerInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer writes tracking events to kafka. PublishAsync never blocks the
// caller; a failed write is logged and dropped, since the next scheduler
// cycle re-derives the same state anyway.
type Producer struct {
	writer writerInterface
	logger logging.Logger
	closed atomic.Bool
	wg     sync.WaitGroup

	publishTimeout time.Duration
}

func NewProducer(cfg Config, logger logging.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.InvalidParam("kafka brokers are required")
	}
	if cfg.Topic == "" {
		cfg.Topic = TopicTrackingEvents
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.BatchTimeout == 0 {
		cfg.BatchTimeout = time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}

	var acks kafka.RequiredAcks
	switch cfg.Acks {
	case "none":
		acks = kafka.RequireNone
	case "all":
		acks = kafka.RequireAll
	default:
		acks = kafka.RequireOne
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: acks,
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Producer{
		writer:         writer,
		logger:         logger.Named("kafka"),
		publishTimeout: cfg.WriteTimeout,
	}, nil
}

// PublishAsync hands an event off to a background write and returns
// immediately.
func (p *Producer) PublishAsync(event tracking.TrackingEvent) {
	if p.closed.Load() {
		p.logger.Warn("event dropped, producer closed",
			logging.String("asset_id", event.AssetID),
			logging.String("type", string(event.Type)))
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), p.publishTimeout)
		defer cancel()
		if err := p.publish(ctx, event); err != nil {
			p.logger.Warn("event publish failed",
				logging.String("asset_id", event.AssetID),
				logging.String("type", string(event.Type)),
				logging.Err(err))
		}
	}()
}

func (p *Producer) publish(ctx context.Context, event tracking.TrackingEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "marshal tracking event")
	}
	msg := kafka.Message{
		Key:   []byte(event.AssetID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "severity", Value: []byte(event.Severity)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "write tracking event")
	}
	return nil
}

// Close waits for in-flight publishes and shuts the writer down.
func (p *Producer) Close() error {
	p.closed.Store(true)
	p.wg.Wait()
	return p.writer.Close()
}

var _ tracking.Publisher = (*Producer)(nil)
