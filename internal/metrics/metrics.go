package metrics

//
// metrics.go
// Copyright (C) 2021 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//
// Global metrics.

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsNamespace is namespace for exporter own metrics.
const MetricsNamespace = "sqlgauge_exporter"

var (
	// processErrorsCnt is total number of internal errors by category.
	processErrorsCnt = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "process_errors_total",
			Help:      "Number of internal processing errors",
		},
		[]string{"error"},
	)

	uptime = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "start_time",
			Help:      "sqlgauge_exporter start time",
		},
	)
)

func init() {
	prometheus.MustRegister(processErrorsCnt)
	prometheus.MustRegister(uptime)
	uptime.SetToCurrentTime()
}

type ErrorCategory string

const (
	ProcessQueryError      ErrorCategory = "query"
	ProcessDiscoveryError  ErrorCategory = "discovery"
	ProcessConnectionError ErrorCategory = "connection"
	ProcessRegistryError   ErrorCategory = "registry"
	ProcessCancelError     ErrorCategory = "cancel"
	ProcessWriteError      ErrorCategory = "write"
)

// IncProcessErrorsCnt increment process errors count in category.
func IncProcessErrorsCnt(category ErrorCategory) {
	processErrorsCnt.WithLabelValues(string(category)).Inc()
}
