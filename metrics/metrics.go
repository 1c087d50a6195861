// Package metrics provides Prometheus metrics for the academy API client.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "academy_client"

// Refresh outcomes
const (
	RefreshSuccess = "success"
	RefreshFailure = "failure"
	RefreshShared  = "shared"
)

// Replay reasons
const (
	ReplayAuth    = "auth"
	ReplayNetwork = "network"
)

// Recorder holds the client metrics. A nil *Recorder records nothing, so the client can call it
// unconditionally.
type Recorder struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RefreshesTotal  *prometheus.CounterVec
	ReplaysTotal    *prometheus.CounterVec
}

// New registers the client metrics on reg. Pass prometheus.DefaultRegisterer to expose them on
// the default /metrics handler.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of dispatched requests by outcome class",
			},
			[]string{"method", "class"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Duration of dispatched requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		RefreshesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "token_refreshes_total",
				Help:      "Token refresh calls by outcome; shared counts callers that joined an in-flight refresh",
			},
			[]string{"outcome"},
		),
		ReplaysTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "replays_total",
				Help:      "Requests replayed once, by reason",
			},
			[]string{"reason"},
		),
	}
}

// ObserveRequest records one dispatch attempt
func (r *Recorder) ObserveRequest(method, class string, d time.Duration) {
	if r == nil {
		return
	}
	r.RequestsTotal.WithLabelValues(method, class).Inc()
	r.RequestDuration.WithLabelValues(method).Observe(d.Seconds())
}

func (r *Recorder) Refresh(outcome string) {
	if r == nil {
		return
	}
	r.RefreshesTotal.WithLabelValues(outcome).Inc()
}

func (r *Recorder) Replay(reason string) {
	if r == nil {
		return
	}
	r.ReplaysTotal.WithLabelValues(reason).Inc()
}
