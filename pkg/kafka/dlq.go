package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// DLQTopicPrefix is the prefix of dead-letter topics.
const DLQTopicPrefix = "ecommerce.dlq"

// DLQTopic returns the dead-letter topic for a source topic.
func DLQTopic(originalTopic string) string {
	return DLQTopicPrefix + "." + originalTopic
}

// Writer is the subset of *kafka.Writer the DLQ producer uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// DLQProducer republishes messages the consumer gave up on.
type DLQProducer struct {
	writer Writer
	logger *slog.Logger
}

// NewDLQProducer creates a DLQ producer writing to brokers.
func NewDLQProducer(brokers []string, logger *slog.Logger) *DLQProducer {
	return NewDLQProducerWithWriter(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchSize:              1,
		BatchTimeout:           100 * time.Millisecond,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}, logger)
}

// NewDLQProducerWithWriter creates a DLQ producer over an existing writer.
func NewDLQProducerWithWriter(w Writer, logger *slog.Logger) *DLQProducer {
	return &DLQProducer{writer: w, logger: logger}
}

// Publish copies msg to its dead-letter topic with headers describing where
// it came from and why it failed.
func (d *DLQProducer) Publish(ctx context.Context, msg kafka.Message, lastErr error, consumerGroup string) error {
	topic := DLQTopic(msg.Topic)

	headers := make([]kafka.Header, 0, len(msg.Headers)+5)
	headers = append(headers, msg.Headers...)
	headers = append(headers,
		kafka.Header{Key: "dlq.original_topic", Value: []byte(msg.Topic)},
		kafka.Header{Key: "dlq.original_partition", Value: []byte(strconv.Itoa(msg.Partition))},
		kafka.Header{Key: "dlq.original_offset", Value: []byte(strconv.FormatInt(msg.Offset, 10))},
		kafka.Header{Key: "dlq.consumer_group", Value: []byte(consumerGroup)},
	)
	if lastErr != nil {
		headers = append(headers, kafka.Header{Key: "dlq.error", Value: []byte(lastErr.Error())})
	}

	err := d.writer.WriteMessages(ctx, kafka.Message{
		Topic:   topic,
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: headers,
	})
	if err != nil {
		d.logger.ErrorContext(ctx, "failed to publish message to DLQ",
			slog.String("dlq_topic", topic),
			slog.Int64("offset", msg.Offset),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("publish to DLQ %s: %w", topic, err)
	}

	d.logger.WarnContext(ctx, "message sent to DLQ",
		slog.String("dlq_topic", topic),
		slog.String("original_topic", msg.Topic),
		slog.Int64("offset", msg.Offset),
	)
	return nil
}

// Close closes the underlying writer.
func (d *DLQProducer) Close() error {
	return d.writer.Close()
}
