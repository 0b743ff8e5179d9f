package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/congquynguyen296/hq-shop/pkg/logger"
)

// Consumer defaults.
const (
	DefaultMaxRetries   = 3
	DefaultRetryBackoff = 100 * time.Millisecond
)

var tracer = otel.Tracer("github.com/congquynguyen296/hq-shop/pkg/kafka")

// Handler processes one decoded event.
type Handler func(ctx context.Context, event *Event) error

// Reader is the subset of *kafka.Reader the consumer uses.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ConsumerConfig holds Kafka consumer configuration.
type ConsumerConfig struct {
	Brokers      []string
	GroupID      string
	Topics       []string
	MinBytes     int
	MaxBytes     int
	MaxRetries   int
	RetryBackoff time.Duration
}

// Consumer reads events from one or more topics in a consumer group and
// hands them to a Handler. Messages are committed after handling, including
// messages that failed every retry.
type Consumer struct {
	reader     Reader
	group      string
	handler    Handler
	dlq        *DLQProducer
	maxRetries int
	backoff    time.Duration
	logger     *slog.Logger
	closeOnce  sync.Once
}

// Option configures a Consumer.
type Option func(*Consumer)

// WithDLQ publishes messages that fail every retry to a dead-letter topic.
func WithDLQ(dlq *DLQProducer) Option {
	return func(c *Consumer) { c.dlq = dlq }
}

// NewConsumer creates a consumer group reader over cfg.Topics.
func NewConsumer(cfg ConsumerConfig, handler Handler, logger *slog.Logger, opts ...Option) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		GroupTopics: cfg.Topics,
		MinBytes:    cfg.MinBytes,
		MaxBytes:    cfg.MaxBytes,
	})
	return NewConsumerWithReader(r, cfg, handler, logger, opts...)
}

// NewConsumerWithReader creates a consumer over an existing reader.
func NewConsumerWithReader(r Reader, cfg ConsumerConfig, handler Handler, logger *slog.Logger, opts ...Option) *Consumer {
	c := &Consumer{
		reader:     r,
		group:      cfg.GroupID,
		handler:    handler,
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.RetryBackoff,
		logger:     logger,
	}
	if c.maxRetries <= 0 {
		c.maxRetries = DefaultMaxRetries
	}
	if c.backoff <= 0 {
		c.backoff = DefaultRetryBackoff
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start consumes messages until ctx is canceled, then closes the reader.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started", slog.String("group", c.group))

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				c.logger.Info("consumer stopping", slog.String("group", c.group))
				return c.Close()
			}
			c.logger.Error("failed to fetch message", slog.String("error", err.Error()))
			select {
			case <-ctx.Done():
				return c.Close()
			case <-time.After(c.backoff):
			}
			continue
		}

		countMessage(msg.Topic, c.group, outcomeReceived)
		c.process(ctx, msg)
		if ctx.Err() != nil {
			return c.Close()
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("failed to commit message",
				slog.String("topic", msg.Topic),
				slog.Int64("offset", msg.Offset),
				slog.String("error", err.Error()),
			)
		}
	}
}

// process handles one message with retries. It never fails: a message that
// cannot be handled is logged, counted and optionally dead-lettered.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) {
	defer observeHandle(msg.Topic, c.group, time.Now())

	headers := msg.Headers
	ctx = otel.GetTextMapPropagator().Extract(ctx, NewHeaderCarrier(&headers))
	ctx, span := tracer.Start(ctx, "kafka.consume "+msg.Topic,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", msg.Topic),
			attribute.String("messaging.kafka.consumer.group", c.group),
			attribute.Int("messaging.kafka.partition", msg.Partition),
			attribute.Int64("messaging.kafka.offset", msg.Offset),
		),
	)
	defer span.End()

	event, err := UnmarshalEvent(msg.Value)
	if err != nil {
		span.SetStatus(codes.Error, "undecodable message")
		c.logger.ErrorContext(ctx, "failed to unmarshal event",
			slog.String("topic", msg.Topic),
			slog.Int64("offset", msg.Offset),
			slog.String("error", err.Error()),
		)
		c.fail(ctx, msg, err)
		return
	}

	if event.CorrelationID != "" {
		ctx = logger.WithCorrelationID(ctx, event.CorrelationID)
	}
	log := c.logger

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if lastErr = c.handler(ctx, event); lastErr == nil {
			break
		}
		log.WarnContext(ctx, "handler failed, will retry",
			slog.String("event_type", event.EventType),
			slog.String("aggregate_id", event.AggregateID),
			slog.Int("attempt", attempt),
			slog.Int("max_retries", c.maxRetries),
			slog.String("error", lastErr.Error()),
		)
		if attempt < c.maxRetries {
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Duration(attempt) * c.backoff):
			}
		}
	}

	if lastErr != nil {
		span.RecordError(lastErr)
		span.SetStatus(codes.Error, lastErr.Error())
		log.ErrorContext(ctx, "handler failed after all retries, skipping message",
			slog.String("event_type", event.EventType),
			slog.String("aggregate_id", event.AggregateID),
			slog.String("topic", msg.Topic),
			slog.Int64("offset", msg.Offset),
			slog.String("error", lastErr.Error()),
		)
		c.fail(ctx, msg, lastErr)
		return
	}

	countMessage(msg.Topic, c.group, outcomeProcessed)
}

func (c *Consumer) fail(ctx context.Context, msg kafka.Message, cause error) {
	countMessage(msg.Topic, c.group, outcomeFailed)
	if c.dlq == nil {
		return
	}
	if err := c.dlq.Publish(ctx, msg, cause, c.group); err == nil {
		countMessage(msg.Topic, c.group, outcomeDeadLettered)
	}
}

// Close closes the reader. It is safe to call multiple times.
func (c *Consumer) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.reader.Close()
	})
	return err
}

// PingBrokers returns nil if at least one broker answers a metadata request.
func PingBrokers(ctx context.Context, brokers []string) error {
	if len(brokers) == 0 {
		return fmt.Errorf("kafka: no brokers configured")
	}

	var lastErr error
	for _, addr := range brokers {
		conn, err := kafka.DialContext(ctx, "tcp", addr)
		if err != nil {
			lastErr = err
			continue
		}
		_, err = conn.Brokers()
		_ = conn.Close()
		if err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("kafka ping: all brokers unreachable: %w", lastErr)
}
