package collectors

//
// collector.go
// Copyright (C) 2023-2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"sqlgauge_exporter.app/internal/conf"
	"sqlgauge_exporter.app/internal/metrics"
	"sqlgauge_exporter.app/internal/registry"
	"sqlgauge_exporter.app/internal/support"
)

// DBProvider give access to database connection pool.
type DBProvider interface {
	Acquire(ctx context.Context) (*sqlx.DB, error)
}

// GaugeRegistry keep gauges created by collectors.
type GaugeRegistry interface {
	GetOrCreate(name, help string) (*registry.Gauge, error)
	Unregister(gauge *registry.Gauge)
}

// Collector run one query and export its numeric columns as gauges.
type Collector struct {
	log        zerolog.Logger
	provider   DBProvider
	registry   GaugeRegistry
	query      *conf.Query
	lock       *support.Syncer
	armed      chan struct{}
	nowFunc    func() time.Time
	labelValue string
	timeout    time.Duration

	// fields guarded by lock; initialized is set after first discovery
	gauges      map[string]*registry.Gauge
	stmt        *sqlx.Stmt
	discovered  bool
	inert       bool
	initialized bool

	lastSuccess  atomic.Int64
	collectCount atomic.Uint64
	gaugesCount  atomic.Int32
	armOnce      sync.Once
}

// NewCollector create collector for `query`. For single-row queries
// the query is launched once to discover numeric columns and register gauges.
func NewCollector(ctx context.Context, query *conf.Query, dbConf *conf.Database,
	provider DBProvider, reg GaugeRegistry,
) (*Collector, error) {
	timeout := query.TimeoutDuration()
	if timeout == 0 {
		timeout = dbConf.Timeout
	}

	col := &Collector{
		log:        support.ModuleLogger("collector").With().Str("query", query.Name).Logger(),
		provider:   provider,
		registry:   reg,
		query:      query,
		lock:       support.NewSyncer(),
		armed:      make(chan struct{}),
		nowFunc:    time.Now,
		labelValue: dbConf.Instance(),
		timeout:    timeout,
		gauges:     make(map[string]*registry.Gauge),
	}

	if !query.MultiRow {
		dctx, cancel := col.withTimeout(ctx)
		defer cancel()

		if err := col.discover(dctx); err != nil {
			col.reset()

			return nil, err
		}
	}

	return col, nil
}

// Name of query handled by collector.
func (c *Collector) Name() string {
	return c.query.Name
}

// Query return configuration of collector.
func (c *Collector) Query() *conf.Query {
	return c.query
}

// Interval between scheduled collections.
func (c *Collector) Interval() time.Duration {
	return c.query.IntervalDuration()
}

// LastSuccess return time of last successful collection; zero time when
// there was no success yet.
func (c *Collector) LastSuccess() time.Time {
	if ts := c.lastSuccess.Load(); ts > 0 {
		return time.UnixMilli(ts)
	}

	return time.Time{}
}

// CollectCount return number of successful collections.
func (c *Collector) CollectCount() uint64 {
	return c.collectCount.Load()
}

// GaugesCount return number of gauges currently held by collector.
func (c *Collector) GaugesCount() int {
	return int(c.gaugesCount.Load())
}

// Armed return channel closed after first successful collection.
func (c *Collector) Armed() <-chan struct{} {
	return c.armed
}

// Collect run query and update gauges. Wait for lock when other collection
// is in progress. Cancellation of `ctx` only stops waiting for the lock;
// started query is bounded by query timeout.
func (c *Collector) Collect(ctx context.Context) error {
	if err := c.lock.Lock(ctx, "collect"); err != nil {
		metrics.IncProcessErrorsCnt(metrics.ProcessCancelError)

		return newQueryExecutionError(c.query.Name, StageLock, err)
	}
	defer c.lock.Unlock()

	return c.collect(context.WithoutCancel(ctx))
}

// TryCollect run collection only when collector is not busy. Return false
// when collection was skipped.
func (c *Collector) TryCollect(ctx context.Context) (bool, error) {
	if !c.lock.TryLock("scheduler") {
		return false, nil
	}
	defer c.lock.Unlock()

	return true, c.collect(ctx)
}

// CollectNow run collection when last success is older than `tolerance`.
func (c *Collector) CollectNow(ctx context.Context, tolerance time.Duration) error {
	age := c.nowFunc().UnixMilli() - c.lastSuccess.Load()
	if age <= tolerance.Milliseconds() {
		c.log.Debug().Int64("age_ms", age).Msg("collector: data fresh, skipping")

		return nil
	}

	return c.Collect(ctx)
}

// Close release prepared statement and gauges.
func (c *Collector) Close(ctx context.Context) error {
	if err := c.lock.Lock(ctx, "close"); err != nil {
		return err //nolint:wrapcheck
	}
	defer c.lock.Unlock()

	c.inert = true
	c.reset()

	return nil
}

func (c *Collector) collect(ctx context.Context) error {
	if c.inert {
		c.log.Debug().Msg("collector: no numeric columns; skipping")

		return nil
	}

	runID := xid.New().String()
	llog := c.log.With().Str("run_id", runID).Logger()
	ctx = llog.WithContext(ctx)

	ctx, finish := support.NewTrace(ctx, "collector", c.query.Name)
	defer finish()

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	llog.Debug().Msg("collector: start collect")
	support.TracePrintf(ctx, "start collect run %s", runID)

	start := time.Now()
	err := c.poll(ctx, llog)

	collectionDuration.WithLabelValues(c.query.Name).Observe(time.Since(start).Seconds())

	if err != nil {
		collectionsTotal.WithLabelValues(c.query.Name, statusError).Inc()
		metrics.IncProcessErrorsCnt(metrics.ProcessQueryError)
		support.TraceErrorf(ctx, "collect error: %v", err)
		llog.Error().Err(err).Int("gauges", len(c.gauges)).Msg("collector: collect failed; clearing gauges")
		c.reset()

		return err
	}

	if c.inert {
		return nil
	}

	collectionsTotal.WithLabelValues(c.query.Name, statusSuccess).Inc()
	c.collectCount.Add(1)
	c.lastSuccess.Store(c.nowFunc().UnixMilli())
	c.gaugesCount.Store(int32(len(c.gauges))) //nolint:gosec
	c.armOnce.Do(func() { close(c.armed) })

	llog.Debug().Dur("duration", time.Since(start)).Int("gauges", len(c.gauges)).
		Msg("collector: collect finished")

	return nil
}

func (c *Collector) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}

	return context.WithCancel(ctx)
}

// execute launch query using cached prepared statement.
func (c *Collector) execute(ctx context.Context) (*sqlx.Rows, error) {
	if c.stmt == nil {
		conn, err := c.provider.Acquire(ctx)
		if err != nil {
			return nil, newQueryExecutionError(c.query.Name, StageConnect, err)
		}

		stmt, err := conn.PreparexContext(ctx, c.query.SQL)
		if err != nil {
			return nil, newQueryExecutionError(c.query.Name, StagePrepare, err)
		}

		c.stmt = stmt
	}

	rows, err := c.stmt.QueryxContext(ctx)
	if err != nil {
		return nil, newQueryExecutionError(c.query.Name, StageExecute, err)
	}

	return rows, nil
}

// discover launch query and register gauges for numeric columns.
// Only metadata of result is used.
func (c *Collector) discover(ctx context.Context) error {
	rows, err := c.execute(ctx)
	if err != nil {
		return err
	}
	defer rows.Close()

	cols, err := rows.ColumnTypes()
	if err != nil {
		return newQueryExecutionError(c.query.Name, StageDiscovery, err)
	}

	return c.registerColumns(cols)
}

// registerColumns create gauges for numeric columns in single-row mode.
// Collector without numeric columns in first discovery became inert; on
// rediscovery missing numeric columns is an error.
func (c *Collector) registerColumns(cols []*sql.ColumnType) error {
	for _, col := range cols {
		if !isNumericColumn(col) {
			c.log.Debug().Str("column", col.Name()).Str("type", col.DatabaseTypeName()).
				Msg("collector: skipping non-numeric column")

			continue
		}

		name := gaugeName(c.query.Prefix, "", col.Name())
		if _, err := c.getGauge(name, col.Name()); err != nil {
			return err
		}

		c.log.Info().Str("column", col.Name()).Str("type", col.DatabaseTypeName()).
			Str("metric", name).Msg("collector: gauge registered")
	}

	c.gaugesCount.Store(int32(len(c.gauges))) //nolint:gosec

	if len(c.gauges) == 0 {
		metrics.IncProcessErrorsCnt(metrics.ProcessDiscoveryError)

		if c.initialized {
			return newQueryExecutionError(c.query.Name, StageDiscovery, ErrNoNumericColumns)
		}

		c.log.Warn().Str("sql", c.query.SQL).Msg("collector: no numeric columns found; collector disabled")

		c.inert = true
	}

	c.initialized = true
	c.discovered = true

	return nil
}

func (c *Collector) poll(ctx context.Context, llog zerolog.Logger) error {
	rows, err := c.execute(ctx)
	if err != nil {
		return err
	}
	defer rows.Close()

	cols, err := rows.ColumnTypes()
	if err != nil {
		return newQueryExecutionError(c.query.Name, StageRead, err)
	}

	if c.query.MultiRow {
		return c.readMultiRow(rows, cols, llog)
	}

	if !c.discovered {
		llog.Info().Msg("collector: rediscovering columns")

		if err := c.registerColumns(cols); err != nil {
			return err
		}

		if c.inert {
			return nil
		}
	}

	return c.readSingleRow(rows, cols)
}

// readSingleRow set gauges from first row of result.
func (c *Collector) readSingleRow(rows *sqlx.Rows, cols []*sql.ColumnType) error {
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return newQueryExecutionError(c.query.Name, StageRead, err)
		}

		c.log.Debug().Msg("collector: empty result")

		return nil
	}

	values, err := rows.SliceScan()
	if err != nil {
		return newQueryExecutionError(c.query.Name, StageRead, err)
	}

	for idx, col := range cols {
		if !isNumericColumn(col) {
			continue
		}

		gauge, ok := c.gauges[gaugeName(c.query.Prefix, "", col.Name())]
		if !ok {
			continue
		}

		value, err := toFloat(col.Name(), values[idx])
		if err != nil {
			return newQueryExecutionError(c.query.Name, StageConversion, err)
		}

		gauge.Set(c.labelValue, value)
	}

	return nil
}

// readMultiRow set gauges from all rows; first column of each row is key
// of series.
func (c *Collector) readMultiRow(rows *sqlx.Rows, cols []*sql.ColumnType, llog zerolog.Logger) error {
	seen := make(map[string]struct{}, len(c.gauges))

	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return newQueryExecutionError(c.query.Name, StageRead, err)
		}

		if len(values) == 0 {
			continue
		}

		rowKey := toRowKey(values[0])

		for idx := 1; idx < len(cols) && idx < len(values); idx++ {
			col := cols[idx]
			if !isNumericColumn(col) {
				continue
			}

			name := gaugeName(c.query.Prefix, rowKey, col.Name())

			gauge, err := c.getGauge(name, col.Name())
			if err != nil {
				return err
			}

			value, err := toFloat(col.Name(), values[idx])
			if err != nil {
				return newQueryExecutionError(c.query.Name, StageConversion, err)
			}

			gauge.Set(c.labelValue, value)
			seen[name] = struct{}{}
		}
	}

	if err := rows.Err(); err != nil {
		return newQueryExecutionError(c.query.Name, StageRead, err)
	}

	if c.query.PruneMissingRows {
		c.prune(seen, llog)
	}

	return nil
}

func (c *Collector) getGauge(name, help string) (*registry.Gauge, error) {
	if gauge, ok := c.gauges[name]; ok {
		return gauge, nil
	}

	gauge, err := c.registry.GetOrCreate(name, help)
	if err != nil {
		return nil, newQueryExecutionError(c.query.Name, StageRegistry, err)
	}

	c.gauges[name] = gauge

	return gauge, nil
}

// prune remove gauges not updated in last multi-row collection.
func (c *Collector) prune(seen map[string]struct{}, llog zerolog.Logger) {
	for name, gauge := range c.gauges {
		if _, ok := seen[name]; !ok {
			llog.Debug().Str("metric", name).Msg("collector: removing gauge for missing row")
			c.registry.Unregister(gauge)
			delete(c.gauges, name)
		}
	}
}

// reset unregister all gauges and drop prepared statement. Single-row
// collector will rediscover columns on next collection.
func (c *Collector) reset() {
	for name, gauge := range c.gauges {
		c.registry.Unregister(gauge)
		delete(c.gauges, name)
	}

	c.gaugesCount.Store(0)
	c.discovered = false

	if c.stmt != nil {
		if err := c.stmt.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
			c.log.Debug().Err(err).Msg("collector: close statement error")
		}

		c.stmt = nil
	}
}
