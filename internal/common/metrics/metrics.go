package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BackendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_backend_requests_total",
			Help: "Total number of requests sent to the shopping-assistant backend",
		},
		[]string{"operation", "status"},
	)

	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shop_backend_request_duration_seconds",
			Help:    "Duration of backend requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	TurnsParsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_chat_turns_parsed_total",
			Help: "Total number of chat turns expanded into display messages",
		},
		[]string{"typing"},
	)

	HistoryRecordsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shop_history_records_dropped_total",
			Help: "Chat summaries excluded from grouping because updated_at could not be parsed",
		},
	)

	SendsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shop_chat_sends_in_flight",
			Help: "Number of chat messages awaiting a backend reply",
		},
	)

	ServerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_mock_http_requests_total",
			Help: "Total number of requests served by the mock backend",
		},
		[]string{"route", "method", "status"},
	)

	ServerRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "shop_mock_http_request_duration_seconds",
			Help: "Duration of mock backend requests in seconds",
		},
		[]string{"route"},
	)
)
