package collectors

//
// mod.go
// Copyright (C) 2023-2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"sqlgauge_exporter.app/internal/conf"
	"sqlgauge_exporter.app/internal/support"
)

// Collectors is collection of collectors for all enabled queries.
type Collectors struct {
	log        zerolog.Logger
	collectors []*Collector
}

// New create collectors for enabled queries from configuration.
func New(ctx context.Context, cfg *conf.Configuration, provider DBProvider, reg GaugeRegistry,
) (*Collectors, error) {
	llog := support.ModuleLogger("collectors")

	var (
		colls []*Collector
		errs  *multierror.Error
	)

	for _, q := range cfg.Queries {
		if !q.Enabled {
			llog.Info().Str("query", q.Name).Msg("collectors: query disabled")

			continue
		}

		col, err := NewCollector(ctx, q, cfg.Database, provider, reg)
		if err != nil {
			errs = multierror.Append(errs, err)

			continue
		}

		colls = append(colls, col)
	}

	if err := errs.ErrorOrNil(); err != nil {
		for _, c := range colls {
			_ = c.Close(ctx)
		}

		return nil, err
	}

	if len(colls) == 0 {
		return nil, ErrNoCollectors
	}

	llog.Info().Int("collectors", len(colls)).Msg("collectors: created")

	return newCollectors(colls...), nil
}

func newCollectors(colls ...*Collector) *Collectors {
	return &Collectors{
		collectors: colls,
		log:        support.ModuleLogger("collectors"),
	}
}

// List return all collectors.
func (cs *Collectors) List() []*Collector {
	return cs.collectors
}

// Len return number of collectors.
func (cs *Collectors) Len() int {
	return len(cs.collectors)
}

// CollectNow concurrently refresh every collector which data is older than
// `tolerance`; wait for all collectors to finish.
func (cs *Collectors) CollectNow(ctx context.Context, tolerance time.Duration) error {
	cs.log.Debug().Dur("tolerance", tolerance).Msg("collectors: refresh stale collectors")

	return cs.forEach(func(c *Collector) error {
		return c.CollectNow(ctx, tolerance)
	})
}

// Validate run all collectors once and return aggregated errors.
func (cs *Collectors) Validate(ctx context.Context) error {
	cs.log.Info().Msg("collectors: validating queries")

	return cs.forEach(func(c *Collector) error {
		return c.Collect(ctx)
	})
}

// Close all collectors.
func (cs *Collectors) Close(ctx context.Context) error {
	return cs.forEach(func(c *Collector) error {
		return c.Close(ctx)
	})
}

// forEach launch `fun` for each collector concurrently and wait for all.
func (cs *Collectors) forEach(fun func(c *Collector) error) error {
	var (
		group errgroup.Group
		errs  *multierror.Error
		lock  sync.Mutex
	)

	for _, c := range cs.collectors {
		group.Go(func() error {
			if err := fun(c); err != nil {
				lock.Lock()
				errs = multierror.Append(errs, err)
				lock.Unlock()
			}

			return nil
		})
	}

	_ = group.Wait()

	return errs.ErrorOrNil()
}
