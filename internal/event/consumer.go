// Package event keeps the search index current from catalog events.
package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/congquynguyen296/hq-shop/pkg/kafka"
)

// Product topics consumed by the search service. Event types equal the
// topic names.
var (
	TopicProductCreated = pkgkafka.Topic("product", "created")
	TopicProductUpdated = pkgkafka.Topic("product", "updated")
	TopicProductDeleted = pkgkafka.Topic("product", "deleted")
)

// Topics lists every topic the consumer subscribes to.
func Topics() []string {
	return []string{TopicProductCreated, TopicProductUpdated, TopicProductDeleted}
}

// Syncer applies single-product changes to the index.
type Syncer interface {
	SyncProduct(ctx context.Context, id string) error
	RemoveProduct(ctx context.Context, id string) error
}

// Consumer maps product events to index updates. Created and updated events
// re-read the product from the store rather than trusting the payload, so a
// late or reordered event cannot index stale data.
type Consumer struct {
	syncer Syncer
	logger *slog.Logger
}

// NewConsumer creates a product event consumer.
func NewConsumer(syncer Syncer, logger *slog.Logger) *Consumer {
	return &Consumer{syncer: syncer, logger: logger}
}

// Handle processes one product event.
func (c *Consumer) Handle(ctx context.Context, event *pkgkafka.Event) error {
	id := event.AggregateID

	switch event.EventType {
	case TopicProductCreated, TopicProductUpdated:
		if err := c.syncer.SyncProduct(ctx, id); err != nil {
			return fmt.Errorf("sync product from %s: %w", event.EventType, err)
		}
		c.logger.InfoContext(ctx, "indexed product from event",
			slog.String("product_id", id),
			slog.String("event_type", event.EventType),
		)
	case TopicProductDeleted:
		if err := c.syncer.RemoveProduct(ctx, id); err != nil {
			return fmt.Errorf("remove product from %s: %w", event.EventType, err)
		}
		c.logger.InfoContext(ctx, "removed product from event", slog.String("product_id", id))
	default:
		c.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
	}
	return nil
}
