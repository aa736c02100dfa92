//
// registry.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

// Package registry keep gauges created from query results and publish them
// in prometheus registry.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"sqlgauge_exporter.app/internal/metrics"
	"sqlgauge_exporter.app/internal/support"
)

// DefaultLabelName is name of the only label of every gauge.
const DefaultLabelName = "hostname"

// Gauge is one named gauge with single label.
type Gauge struct {
	vec  *prometheus.GaugeVec
	name string
	help string
	refs int

	// foreign vec was registered by someone else and is never unregistered here
	foreign bool
}

// Name return gauge name.
func (g *Gauge) Name() string {
	return g.name
}

// Set value of series identified by `labelValue`.
func (g *Gauge) Set(labelValue string, value float64) {
	g.vec.WithLabelValues(labelValue).Set(value)
}

// Registry keep all gauges by name.
type Registry struct {
	registerer prometheus.Registerer
	gauges     map[string]*Gauge
	labelName  string
	log        zerolog.Logger
	lock       sync.Mutex
}

// New create registry publishing gauges in `registerer`.
func New(registerer prometheus.Registerer, labelName string) *Registry {
	if labelName == "" {
		labelName = DefaultLabelName
	}

	return &Registry{
		registerer: registerer,
		gauges:     make(map[string]*Gauge),
		labelName:  labelName,
		log:        support.ModuleLogger("registry"),
	}
}

// GetOrCreate return gauge `name`; create and register it when not exists.
// Help text of existing gauge is not changed.
func (r *Registry) GetOrCreate(name, help string) (*Gauge, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if g, ok := r.gauges[name]; ok {
		g.refs++

		return g, nil
	}

	vec := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: name, Help: help},
		[]string{r.labelName},
	)

	foreign := false

	if err := r.registerer.Register(vec); err != nil {
		are := prometheus.AlreadyRegisteredError{}
		if !errors.As(err, &are) {
			metrics.IncProcessErrorsCnt(metrics.ProcessRegistryError)

			return nil, fmt.Errorf("register gauge %q error: %w", name, err)
		}

		// gauge registered outside of this registry; reuse it
		existing, ok := are.ExistingCollector.(*prometheus.GaugeVec)
		if !ok {
			metrics.IncProcessErrorsCnt(metrics.ProcessRegistryError)

			return nil, fmt.Errorf("register gauge %q error: %w", name, err)
		}

		vec = existing
		foreign = true
	}

	r.log.Debug().Str("name", name).Msg("registry: gauge created")

	g := &Gauge{vec: vec, name: name, help: help, refs: 1, foreign: foreign}
	r.gauges[name] = g

	return g, nil
}

// Unregister release gauge; gauge is removed from prometheus registry when
// no more users hold it. Unknown gauges are ignored.
func (r *Registry) Unregister(gauge *Gauge) {
	if gauge == nil {
		return
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	g, ok := r.gauges[gauge.name]
	if !ok || g != gauge {
		return
	}

	g.refs--
	if g.refs > 0 {
		return
	}

	delete(r.gauges, g.name)

	if !g.foreign {
		r.registerer.Unregister(g.vec)
	}

	r.log.Debug().Str("name", g.name).Msg("registry: gauge removed")
}

// Len return number of gauges in registry.
func (r *Registry) Len() int {
	r.lock.Lock()
	defer r.lock.Unlock()

	return len(r.gauges)
}

// Names return sorted names of registered gauges.
func (r *Registry) Names() []string {
	r.lock.Lock()
	defer r.lock.Unlock()

	names := make([]string, 0, len(r.gauges))
	for n := range r.gauges {
		names = append(names, n)
	}

	sort.Strings(names)

	return names
}
