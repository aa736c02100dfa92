package collectors

//
// metrics.go
// Copyright (C) 2021 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"github.com/prometheus/client_golang/prometheus"
	"sqlgauge_exporter.app/internal/metrics"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

var (
	collectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metrics.MetricsNamespace,
			Name:      "collections_total",
			Help:      "Total number of query collections by result",
		},
		[]string{"query", "status"},
	)

	collectionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metrics.MetricsNamespace,
			Name:      "collection_duration_seconds",
			Help:      "A histogram of query collection duration.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		},
		[]string{"query"},
	)

	collectorGaugesDesc = prometheus.NewDesc(
		metrics.MetricsNamespace+"_collector_gauges",
		"Number of gauges held by collector",
		[]string{"query"}, nil,
	)
	collectorLastSuccessDesc = prometheus.NewDesc(
		metrics.MetricsNamespace+"_collector_last_success_timestamp_seconds",
		"Time of last successful collection",
		[]string{"query"}, nil,
	)
	collectorsDesc = prometheus.NewDesc(
		metrics.MetricsNamespace+"_collectors",
		"Number of active collectors",
		nil, nil,
	)
)

func init() {
	prometheus.MustRegister(collectionsTotal)
	prometheus.MustRegister(collectionDuration)
}

// Describe implements prometheus.Collector.
func (cs *Collectors) Describe(ch chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(cs, ch)
}

// Collect implements prometheus.Collector; export state of collectors.
func (cs *Collectors) Collect(resCh chan<- prometheus.Metric) {
	resCh <- prometheus.MustNewConstMetric(
		collectorsDesc,
		prometheus.GaugeValue,
		float64(len(cs.collectors)),
	)

	for _, c := range cs.collectors {
		resCh <- prometheus.MustNewConstMetric(
			collectorGaugesDesc,
			prometheus.GaugeValue,
			float64(c.GaugesCount()),
			c.Name(),
		)

		var lastSuccess float64
		if ts := c.LastSuccess(); !ts.IsZero() {
			lastSuccess = float64(ts.UnixMilli()) / 1000
		}

		resCh <- prometheus.MustNewConstMetric(
			collectorLastSuccessDesc,
			prometheus.GaugeValue,
			lastSuccess,
			c.Name(),
		)
	}
}
