package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"sqlgauge_exporter.app/internal/metrics"
)

// metrics.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

var (
	// reqDuration measure http request duration.
	reqDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metrics.MetricsNamespace,
			Name:      "request_duration_seconds",
			Help:      "A histogram of latencies for requests.",
			Buckets:   []float64{0.1, 0.2, 0.5, 1, 5, 10, 30, 60, 120, 300},
		},
		[]string{"handler", "code", "method"},
	)
	reqInFlightCnt = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: metrics.MetricsNamespace,
			Name:      "requests_in_flight",
			Help:      "Number of concurrent request to the exporter",
		},
		[]string{"handler"},
	)
	// refreshErrorsCnt is total number of on-demand refreshes that failed.
	refreshErrorsCnt = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: metrics.MetricsNamespace,
			Name:      "refresh_errors_total",
			Help:      "Number of /metrics_now requests where at least one collector failed",
		},
	)
)

func init() {
	prometheus.MustRegister(reqDuration)
	prometheus.MustRegister(reqInFlightCnt)
	prometheus.MustRegister(refreshErrorsCnt)
}

// newReqDurationWrapper create new ObserverVec for InstrumentHandlerDuration.
func newReqDurationWrapper(handler string) prometheus.ObserverVec {
	return reqDuration.MustCurryWith(prometheus.Labels{"handler": handler})
}

// newReqInflightWrapper create new Gauge for InstrumentHandlerInFlight.
func newReqInflightWrapper(handler string) prometheus.Gauge { //nolint:ireturn
	return reqInFlightCnt.With(prometheus.Labels{"handler": handler})
}
