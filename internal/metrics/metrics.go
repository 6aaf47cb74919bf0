// Package metrics defines the prometheus collectors updated by the client.
package metrics

import (
	"errors"
	"net/http"

	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "spotdown"

// Outcome label values for BackendRequests.
const (
	OutcomeOK             = "ok"
	OutcomeTransportError = "transport_error"
	OutcomeStatusError    = "status_error"
	OutcomeDecodeError    = "decode_error"
)

var (
	BackendRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backend_requests_total",
		Help:      "Requests sent to the backend, by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})

	Lookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lookups_total",
		Help:      "Metadata lookups, by result (resolved, failed, superseded).",
	}, []string{"result"})

	PollTicks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "poll_ticks_total",
		Help:      "Progress poll ticks, by result (ok, transport_error, status_error).",
	}, []string{"result"})

	TasksFinished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_finished_total",
		Help:      "Tasks that reached a terminal status, by status.",
	}, []string{"status"})
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{BackendRequests, Lookups, PollTicks, TasksFinished}
}

// Register adds every collector to reg. Collectors that are already registered are not an error.
func Register(reg prometheus.Registerer) error {
	var result error
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			result = multierror.Append(result, err)
		}
	}
	return result
}

// Handler serves the metrics gathered by reg in the prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
