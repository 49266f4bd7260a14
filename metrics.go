package rdapbootstrap

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics is optional; every method is a no-op on a nil receiver.
type metrics struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	mirrorFetches   *prometheus.CounterVec
	rejections      *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rdap_requests_total",
				Help: "Bootstrap requests by object type and response status",
			},
			[]string{"type", "code"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rdap_request_duration_seconds",
				Help:    "Time taken to answer a bootstrap request",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"type"},
		),
		mirrorFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rdap_mirror_fetches_total",
				Help: "Bootstrap document lookups by outcome",
			},
			[]string{"document", "result"},
		),
		rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rdap_ratelimit_rejections_total",
				Help: "Requests rejected by the rate limiter",
			},
			[]string{"policy"},
		),
	}
	reg.MustRegister(m.requests, m.requestDuration, m.mirrorFetches, m.rejections)
	return m
}

func (m *metrics) observeRequest(typ string, code int, took time.Duration) {
	if m == nil {
		return
	}
	if typ == "" {
		typ = "none"
	}
	m.requests.WithLabelValues(typ, strconv.Itoa(code)).Inc()
	m.requestDuration.WithLabelValues(typ).Observe(took.Seconds())
}

func (m *metrics) mirrorFetch(url, result string) {
	if m == nil {
		return
	}
	m.mirrorFetches.WithLabelValues(documentName(url), result).Inc()
}

func (m *metrics) rejected(policy string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(policy).Inc()
}
