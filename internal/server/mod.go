package server

//
// mod.go
// Copyright (C) 2021 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/net/trace"
	"sqlgauge_exporter.app/internal/collectors"
	"sqlgauge_exporter.app/internal/conf"
	"sqlgauge_exporter.app/internal/metrics"
	"sqlgauge_exporter.app/internal/support"
)

const (
	defaultRwTimeout       = 300 * time.Second
	defaultMaxHeaderBytes  = 1 << 20
	defaultShutdownTimeout = time.Duration(5) * time.Second
)

// Collectors refresh stale data on demand and give access to collectors state.
type Collectors interface {
	CollectNow(ctx context.Context, tolerance time.Duration) error
	List() []*collectors.Collector
}

// Options configure WebHandler.
type Options struct {
	ListenAddress    string
	WebConfig        string
	RefreshTolerance time.Duration
	EnableInfo       bool
}

// WebHandler handle incoming requests.
type WebHandler struct {
	log      zerolog.Logger
	cfg      *conf.Configuration
	server   *http.Server
	listener net.Listener
	opts     Options
}

// New create new WebHandler. Metrics are gathered from `gatherer`.
func New(cfg *conf.Configuration, opts Options, gatherer prometheus.Gatherer, colls Collectors) *WebHandler {
	webHandler := &WebHandler{
		log:  support.ModuleLogger("webhandler"),
		cfg:  cfg,
		opts: opts,
	}

	metricsHandler := promhttp.HandlerFor(
		gatherer,
		promhttp.HandlerOpts{ //nolint:exhaustruct
			EnableOpenMetrics: true,
			// disable compression when listen on lo; reduce memory allocations & usage
			DisableCompression: conf.IsLocalAddress(opts.ListenAddress),
			ErrorLog:           promErrorLogger{webHandler.log},
		},
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", webHandler.instrument("metrics", metricsHandler))
	mux.Handle("/{$}", webHandler.instrument("root", metricsHandler))
	mux.Handle("/metrics_now", webHandler.instrument("metrics_now",
		newMetricsNowHandler(colls, opts.RefreshTolerance, metricsHandler)))
	mux.HandleFunc("/health", healthHandler)

	if opts.EnableInfo {
		mux.Handle("/info", webHandler.instrument("info", newInfoHandler(cfg, colls)))
		mux.HandleFunc("/debug/requests", trace.Traces)
	}

	rwTimeout := defaultRwTimeout
	if cfg.Global.RequestTimeout > 0 {
		rwTimeout = cfg.Global.RequestTimeout
	}

	webHandler.server = &http.Server{ //nolint:exhaustruct
		Addr:           opts.ListenAddress,
		Handler:        newRejectTraceMW(mux),
		ReadTimeout:    rwTimeout,
		WriteTimeout:   rwTimeout,
		MaxHeaderBytes: defaultMaxHeaderBytes,
	}

	return webHandler
}

// Listen open listener on configured address. Return PortInUseError when
// address is already bound.
func (w *WebHandler) Listen() error {
	listener, err := listen(w.opts.ListenAddress)
	if err != nil {
		return err
	}

	w.listener = listener

	return nil
}

// Addr return address of opened listener.
func (w *WebHandler) Addr() string {
	if w.listener == nil {
		return w.opts.ListenAddress
	}

	return w.listener.Addr().String()
}

// Run webhandler; Listen must be called before.
func (w *WebHandler) Run() error {
	if w.listener == nil {
		if err := w.Listen(); err != nil {
			return err
		}
	}

	w.log.Info().Msgf("webhandler: listening on %s", w.Addr())

	if err := serve(w.server, w.listener, w.opts.WebConfig); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen and serve failed: %w", err)
	}

	return nil
}

// Stop stop listen webhandler.
func (w *WebHandler) Stop(err error) {
	w.log.Debug().Err(err).Msg("webhandler: closing")

	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	_ = w.server.Shutdown(ctx)

	// listener opened but never served
	if w.listener != nil {
		_ = w.listener.Close()
	}
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok"))
}

// promErrorLogger pass promhttp errors to zerolog.
type promErrorLogger struct {
	log zerolog.Logger
}

func (p promErrorLogger) Println(v ...any) {
	metrics.IncProcessErrorsCnt(metrics.ProcessWriteError)
	p.log.Error().Msg(fmt.Sprint(v...))
}
