//
// provider.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

package db

import (
	"context"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"sqlgauge_exporter.app/internal/conf"
	"sqlgauge_exporter.app/internal/metrics"
	"sqlgauge_exporter.app/internal/support"
)

// Provider own the single connection pool to configured database. Pool is
// opened lazily on first Acquire and reused until Close.
type Provider struct {
	conn   *sqlx.DB
	dbConf *conf.Database
	def    dbDefinition
	log    zerolog.Logger

	// minimal size of pool; every collector may hold one connection
	minConns int
	closed   bool
	lock     sync.Mutex
}

// NewProvider create provider for database `cfg`; pool will allow at
// least `minConns` open connections.
func NewProvider(cfg *conf.Database, minConns int) (*Provider, error) {
	def, err := getDefinition(cfg.Driver)
	if err != nil {
		return nil, err
	}

	if _, err := def.connstr(cfg); err != nil {
		return nil, fmt.Errorf("build connection string error: %w", err)
	}

	return &Provider{
		dbConf:   cfg,
		def:      def,
		minConns: minConns,
		log:      support.ModuleLogger("db"),
	}, nil
}

// Acquire return live pool; connect to database when there is no
// connection yet. Failure is returned as ConnectionError.
func (p *Provider) Acquire(ctx context.Context) (*sqlx.DB, error) {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.closed {
		return nil, ErrProviderClosed
	}

	if p.conn != nil {
		return p.conn, nil
	}

	conn, err := p.open(ctx)
	if err != nil {
		metrics.IncProcessErrorsCnt(metrics.ProcessConnectionError)
		dbpoolConnFailedTotal.WithLabelValues(p.dbConf.Database).Inc()

		return nil, ConnectionError{Err: err, Driver: p.dbConf.Driver, Target: p.target()}
	}

	dbpoolConnOpenedTotal.WithLabelValues(p.dbConf.Database).Inc()

	p.conn = conn

	return conn, nil
}

// Close database connection pool.
func (p *Provider) Close(ctx context.Context) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.closed = true

	if p.conn == nil {
		return nil
	}

	log.Ctx(ctx).Debug().Str("db", p.dbConf.Database).Msg("db: closing connection")

	err := p.conn.Close()
	p.conn = nil

	if err != nil {
		return fmt.Errorf("close database error: %w", err)
	}

	return nil
}

// Stats return pool statistics; nil when not connected.
func (p *Provider) Stats() *Stats {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.conn == nil {
		return nil
	}

	return &Stats{Name: p.dbConf.Database, DBStats: p.conn.Stats()}
}

// DriverName return name of database/sql driver used by provider.
func (p *Provider) DriverName() string {
	return p.def.driverName()
}

func (p *Provider) String() string {
	p.lock.Lock()
	defer p.lock.Unlock()

	return fmt.Sprintf("db.Provider driver=%s target=%s connected=%v",
		p.dbConf.Driver, p.target(), p.conn != nil)
}

func (p *Provider) target() string {
	if p.dbConf.IsSqlite() {
		return p.dbConf.Database
	}

	return p.dbConf.Instance() + "/" + p.dbConf.Database
}

func (p *Provider) open(ctx context.Context) (*sqlx.DB, error) {
	connstr, err := p.def.connstr(p.dbConf)
	if err != nil {
		return nil, err
	}

	llog := p.log.With().Str("driver", p.def.driverName()).Str("target", p.target()).Logger()
	llog.Debug().Msg("db: connecting")

	conn, err := sqlx.Open(p.def.driverName(), connstr)
	if err != nil {
		return nil, fmt.Errorf("open error: %w", err)
	}

	p.configurePool(conn, llog)

	lctx, cancel := context.WithTimeout(ctx, p.dbConf.GetConnectTimeout())
	defer cancel()

	if err := conn.PingContext(lctx); err != nil {
		conn.Close()

		return nil, fmt.Errorf("ping error: %w", err)
	}

	llog.Info().Msg("db: connected")

	return conn, nil
}

func (p *Provider) configurePool(conn *sqlx.DB, llog zerolog.Logger) {
	maxConns := p.minConns

	if pool := p.dbConf.Pool; pool != nil {
		maxConns = max(maxConns, pool.MaxConnections)

		if pool.MaxIdleConnections > 0 {
			llog.Debug().Int("max-idle", pool.MaxIdleConnections).Msg("db: max idle connection set")
			conn.SetMaxIdleConns(pool.MaxIdleConnections)
		}

		if pool.ConnMaxLifeTime > 0 {
			llog.Debug().Dur("conn-max-life-time", pool.ConnMaxLifeTime).
				Msg("db: connection max life time set")
			conn.SetConnMaxLifetime(pool.ConnMaxLifeTime)
		}
	}

	if maxConns > 0 {
		llog.Debug().Int("max-conn", maxConns).Msg("db: max connection set")
		conn.SetMaxOpenConns(maxConns)
	}
}
