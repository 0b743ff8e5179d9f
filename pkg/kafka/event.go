package kafka

import (
	"encoding/json"
	"fmt"
	"time"
)

// TopicPrefix is the prefix shared by every catalog topic.
const TopicPrefix = "ecommerce"

// Topic constructs a fully-qualified topic name, e.g. ecommerce.product.updated.
func Topic(aggregate, action string) string {
	return fmt.Sprintf("%s.%s.%s", TopicPrefix, aggregate, action)
}

// Event is the envelope every catalog service publishes.
type Event struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	AggregateID   string            `json:"aggregate_id"`
	AggregateType string            `json:"aggregate_type"`
	Version       int               `json:"version"`
	Timestamp     time.Time         `json:"timestamp"`
	Source        string            `json:"source"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Data          json.RawMessage   `json:"data,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// UnmarshalEvent decodes an event envelope. An envelope without an aggregate
// id cannot be routed and is rejected.
func UnmarshalEvent(data []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	if event.AggregateID == "" {
		return nil, fmt.Errorf("decode event: missing aggregate_id")
	}
	return &event, nil
}

// UnmarshalData decodes the event payload into target.
func (e *Event) UnmarshalData(target any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("event %s has no data", e.EventID)
	}
	return json.Unmarshal(e.Data, target)
}
