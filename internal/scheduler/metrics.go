package scheduler

//
// metrics.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"github.com/prometheus/client_golang/prometheus"
	"sqlgauge_exporter.app/internal/metrics"
)

var (
	scheduledRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metrics.MetricsNamespace,
			Name:      "scheduler_runs_total",
			Help:      "Total number of scheduled collections",
		},
		[]string{"query"},
	)

	ticksSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metrics.MetricsNamespace,
			Name:      "scheduler_ticks_skipped_total",
			Help:      "Total number of scheduled collections skipped because collector was busy",
		},
		[]string{"query"},
	)
)

func init() {
	prometheus.MustRegister(scheduledRuns)
	prometheus.MustRegister(ticksSkipped)
}
