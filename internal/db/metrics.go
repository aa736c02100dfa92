package db

//
// metrics.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
	"sqlgauge_exporter.app/internal/metrics"
)

// Stats keep pool statistics of one database.
type Stats struct {
	Name    string
	DBStats sql.DBStats
}

var (
	dbpoolActConnsDesc = prometheus.NewDesc(
		metrics.MetricsNamespace+"_dbpool_activeconnections",
		"Number of active connections by database",
		[]string{"database"}, nil,
	)
	dbpoolIdleConnsDesc = prometheus.NewDesc(
		metrics.MetricsNamespace+"_dbpool_idleconnections",
		"Number of idle connections by database",
		[]string{"database"}, nil,
	)
	dbpoolOpenConnsDesc = prometheus.NewDesc(
		metrics.MetricsNamespace+"_dbpool_openconnections",
		"Number of open connections by database",
		[]string{"database"}, nil,
	)
	dbpoolconfMaxConnsDesc = prometheus.NewDesc(
		metrics.MetricsNamespace+"_dbpool_conf_maxopenconnections",
		"Maximal number of open connections by database",
		[]string{"database"}, nil,
	)
	dbpoolConnWaitCntDesc = prometheus.NewDesc(
		metrics.MetricsNamespace+"_dbpool_connections_wait_total",
		"Total number of connections waited for per database",
		[]string{"database"}, nil,
	)
	dbpoolConnWaitTimeDesc = prometheus.NewDesc(
		metrics.MetricsNamespace+"_dbpool_connections_wait_second_total",
		"The total time blocked waiting for a new connection per database",
		[]string{"database"}, nil,
	)
	dbpoolConnLifeTimeClosedDesc = prometheus.NewDesc(
		metrics.MetricsNamespace+"_dbpool_connections_lifetimeclosed_total",
		"The total number of connections closed due to max life time limit.",
		[]string{"database"}, nil,
	)
)

var (
	dbpoolConnOpenedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metrics.MetricsNamespace,
			Subsystem: "dbpool",
			Name:      "connections_connected_total",
			Help:      "Total number of successful connects per database",
		},
		[]string{"database"})

	dbpoolConnFailedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metrics.MetricsNamespace,
			Subsystem: "dbpool",
			Name:      "connections_failed_total",
			Help:      "Total number of failed connects per database",
		},
		[]string{"database"})
)

func init() {
	prometheus.MustRegister(dbpoolConnOpenedTotal)
	prometheus.MustRegister(dbpoolConnFailedTotal)
}

// Describe implements prometheus.Collector.
func (p *Provider) Describe(ch chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(p, ch)
}

// Collect implements prometheus.Collector; export pool statistics.
func (p *Provider) Collect(ch chan<- prometheus.Metric) {
	s := p.Stats()
	if s == nil {
		return
	}

	ch <- prometheus.MustNewConstMetric(
		dbpoolOpenConnsDesc, prometheus.GaugeValue,
		float64(s.DBStats.OpenConnections), s.Name)
	ch <- prometheus.MustNewConstMetric(
		dbpoolActConnsDesc, prometheus.GaugeValue,
		float64(s.DBStats.InUse), s.Name)
	ch <- prometheus.MustNewConstMetric(
		dbpoolIdleConnsDesc, prometheus.GaugeValue,
		float64(s.DBStats.Idle), s.Name)
	ch <- prometheus.MustNewConstMetric(
		dbpoolconfMaxConnsDesc, prometheus.GaugeValue,
		float64(s.DBStats.MaxOpenConnections), s.Name)
	ch <- prometheus.MustNewConstMetric(
		dbpoolConnWaitCntDesc, prometheus.CounterValue,
		float64(s.DBStats.WaitCount), s.Name)
	ch <- prometheus.MustNewConstMetric(
		dbpoolConnWaitTimeDesc, prometheus.CounterValue,
		s.DBStats.WaitDuration.Seconds(), s.Name)
	ch <- prometheus.MustNewConstMetric(
		dbpoolConnLifeTimeClosedDesc, prometheus.CounterValue,
		float64(s.DBStats.MaxLifetimeClosed), s.Name)
}
