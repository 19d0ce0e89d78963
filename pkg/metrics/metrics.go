// Package metrics holds the Prometheus collectors shared by the camera bridge.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ListenerOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nipca_listener_outcomes_total",
			Help: "Event stream listener terminations by camera and outcome.",
		},
		[]string{"camera", "outcome"},
	)

	ListenerStarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nipca_listener_starts_total",
			Help: "Event stream listeners started per camera.",
		},
		[]string{"camera"},
	)

	ActiveListeners = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "nipca_listeners_active",
			Help: "Event stream listeners currently running.",
		},
	)

	EventsReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nipca_events_received_total",
			Help: "Event stream lines applied per camera.",
		},
		[]string{"camera"},
	)

	EndpointFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nipca_endpoint_failures_total",
			Help: "Attribute endpoint fetches that returned no data.",
		},
		[]string{"camera", "endpoint"},
	)

	Polls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nipca_polls_total",
			Help: "Coordinator polls per camera.",
		},
		[]string{"camera"},
	)

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total API requests by route, method, and status.",
		},
		[]string{"route", "method", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		ListenerOutcomes,
		ListenerStarts,
		ActiveListeners,
		EventsReceived,
		EndpointFailures,
		Polls,
		HTTPRequests,
	)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
