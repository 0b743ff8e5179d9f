package kafka

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Message outcomes recorded by the consumer.
const (
	outcomeReceived     = "received"
	outcomeProcessed    = "processed"
	outcomeFailed       = "failed"
	outcomeDeadLettered = "dead_lettered"
)

var (
	consumerMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "search",
			Subsystem: "event_consumer",
			Name:      "messages_total",
			Help:      "Catalog change messages seen by the consumer, by outcome.",
		},
		[]string{"topic", "group", "outcome"},
	)

	consumerHandleSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "search",
			Subsystem: "event_consumer",
			Name:      "handle_duration_seconds",
			Help:      "Time spent handling one message, retries included.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"topic", "group"},
	)

	consumerDuplicates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "search",
			Subsystem: "event_consumer",
			Name:      "duplicates_skipped_total",
			Help:      "Events skipped because their id was already processed.",
		},
		[]string{"event_type"},
	)
)

func countMessage(topic, group, outcome string) {
	consumerMessages.WithLabelValues(topic, group, outcome).Inc()
}

func observeHandle(topic, group string, since time.Time) {
	consumerHandleSeconds.WithLabelValues(topic, group).Observe(time.Since(since).Seconds())
}
