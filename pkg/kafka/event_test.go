package kafka

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestTopic(t *testing.T) {
	assert.Equal(t, "ecommerce.product.created", Topic("product", "created"))
}

func TestUnmarshalEvent(t *testing.T) {
	raw := []byte(`{
		"event_id": "e1",
		"event_type": "product.updated",
		"aggregate_id": "prod-9",
		"aggregate_type": "product",
		"version": 1,
		"timestamp": "2026-03-01T12:00:00Z",
		"source": "product-service",
		"correlation_id": "corr-1",
		"data": {"id": "prod-9", "name": "Phone"}
	}`)

	e, err := UnmarshalEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, "prod-9", e.AggregateID)
	assert.Equal(t, "corr-1", e.CorrelationID)

	var data struct {
		Name string `json:"name"`
	}
	require.NoError(t, e.UnmarshalData(&data))
	assert.Equal(t, "Phone", data.Name)
}

func TestUnmarshalEvent_Rejects(t *testing.T) {
	_, err := UnmarshalEvent([]byte("{"))
	assert.Error(t, err)

	_, err = UnmarshalEvent([]byte(`{"event_id":"e1"}`))
	assert.ErrorContains(t, err, "aggregate_id")
}

func TestUnmarshalData_Empty(t *testing.T) {
	e := testEvent("e1")
	var v map[string]any
	assert.Error(t, e.UnmarshalData(&v))

	e.Data = json.RawMessage(`{"k":1}`)
	assert.NoError(t, e.UnmarshalData(&v))
}

func TestHeaderCarrier(t *testing.T) {
	headers := []kafka.Header{{Key: "existing", Value: []byte("v1")}}
	c := NewHeaderCarrier(&headers)

	assert.Equal(t, "v1", c.Get("existing"))
	assert.Empty(t, c.Get("missing"))

	c.Set("existing", "v2")
	c.Set("new", "v3")
	assert.Equal(t, "v2", c.Get("existing"))
	assert.ElementsMatch(t, []string{"existing", "new"}, c.Keys())
	assert.Len(t, headers, 2)
}

func TestHeaderCarrier_ExtractsTraceContext(t *testing.T) {
	headers := []kafka.Header{{
		Key:   "traceparent",
		Value: []byte("00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"),
	}}

	ctx := propagation.TraceContext{}.Extract(context.Background(), NewHeaderCarrier(&headers))
	sc := trace.SpanContextFromContext(ctx)
	require.True(t, sc.IsValid())
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", sc.TraceID().String())
}
