package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "route"},
	)

	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_rate_limit_hits_total",
			Help: "Total requests rejected by the rate limiter",
		},
		[]string{"route"},
	)

	// Business metrics
	ConversationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_conversations_created_total",
			Help: "Total conversations created",
		},
		[]string{"kind"}, // "direct" or "group"
	)

	DirectConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_direct_conversation_conflicts_total",
			Help: "Concurrent direct conversation inserts resolved to an existing row",
		},
	)

	MessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_messages_sent_total",
			Help: "Total messages sent",
		},
	)

	MessagesDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_messages_deleted_total",
			Help: "Total messages soft-deleted",
		},
	)

	ReactionsToggled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_reactions_toggled_total",
			Help: "Total reaction toggles",
		},
		[]string{"action"}, // "added" or "removed"
	)

	ReactionRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_reaction_retries_total",
			Help: "Optimistic reaction writes retried after a version conflict",
		},
	)

	TypingCompacted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_typing_rows_compacted_total",
			Help: "Stale typing rows removed by the compactor",
		},
	)

	PreviewDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chat_preview_duration_seconds",
			Help:    "Time to build a conversation preview list",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	// Event delivery
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_events_published_total",
			Help: "Change events handed to a delivery sink",
		},
		[]string{"sink"},
	)

	EventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_events_dropped_total",
			Help: "Change events dropped because a subscriber was too slow",
		},
	)

	EventSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_event_subscribers",
			Help: "Open change-event subscriptions",
		},
	)
)
