package main

//
// main.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	cversion "github.com/prometheus/client_golang/prometheus/collectors/version"
	"github.com/prometheus/common/version"
	"github.com/rs/zerolog/log"
	"sqlgauge_exporter.app/internal/collectors"
	"sqlgauge_exporter.app/internal/conf"
	"sqlgauge_exporter.app/internal/db"
	"sqlgauge_exporter.app/internal/registry"
	"sqlgauge_exporter.app/internal/scheduler"
	"sqlgauge_exporter.app/internal/server"
	"sqlgauge_exporter.app/internal/support"
)

const closeTimeout = 10 * time.Second

func init() {
	prometheus.MustRegister(cversion.NewCollector("sqlgauge_exporter"))
}

// Main is main function for cli.
func main() {
	args := conf.NewRuntimeArgs()

	if args.ShowVersion {
		fmt.Println(version.Print("SQLGauge exporter")) //nolint:forbidigo
		os.Exit(0)
	}

	support.InitializeLogger(args.LogLevel, args.LogFormat)
	log.Logger.Info().
		Str("version", version.Info()).
		Str("build_ctx", version.BuildContext()).
		Msg("Starting SQLGauge exporter")

	if err := enableSDNotify(); err != nil {
		log.Logger.Warn().Err(err).Msg("initialize systemd error")
	}

	cfg, err := conf.LoadConfiguration(args.DatabaseFilename, args.QueriesFilename)
	if err != nil {
		log.Logger.Fatal().Err(err).Str("database_file", args.DatabaseFilename).
			Str("queries_file", args.QueriesFilename).Msg("load configuration error")
	}

	log.Logger.Debug().Object("configuration", cfg).Msg("configuration loaded")

	if err := start(cfg, &args); err != nil {
		log.Logger.Fatal().Err(err).Msg("Start failed")
	}

	log.Logger.Info().Msg("finished..")
}

func start(cfg *conf.Configuration, args *conf.RuntimeArgs) error {
	ctx := log.Logger.WithContext(context.Background())

	provider, err := db.NewProvider(cfg.Database, len(cfg.EnabledQueries()))
	if err != nil {
		return fmt.Errorf("database configuration error: %w", err)
	}

	defer closeProvider(provider)

	if _, err := provider.Acquire(ctx); err != nil {
		return fmt.Errorf("database connection error: %w", err)
	}

	prometheus.MustRegister(provider)

	reg := registry.New(prometheus.DefaultRegisterer, registry.DefaultLabelName)

	colls, err := collectors.New(ctx, cfg, provider, reg)
	if err != nil {
		return fmt.Errorf("create collectors error: %w", err)
	}

	defer closeCollectors(colls)

	prometheus.MustRegister(colls)

	webHandler := server.New(cfg, server.Options{
		ListenAddress:    args.ResolveListenAddress(cfg),
		WebConfig:        args.WebConfig,
		RefreshTolerance: args.ResolveRefreshTolerance(cfg),
		EnableInfo:       args.EnableInfo,
	}, prometheus.DefaultGatherer, colls)

	if err := webHandler.Listen(); err != nil {
		if perr := (server.PortInUseError{}); errors.As(err, &perr) {
			log.Logger.Error().Str("address", perr.Address).
				Msg("Port already in use; is another exporter instance running?")
		}

		return err //nolint:wrapcheck
	}

	// every query must succeed once before serving metrics
	if err := colls.Validate(ctx); err != nil {
		webHandler.Stop(err)

		return fmt.Errorf("queries validation error: %w", err)
	}

	sched := scheduler.FromCollectors(colls)

	var runGroup run.Group

	// Termination handler.
	term := make(chan os.Signal, 1)
	signal.Notify(term, os.Interrupt, syscall.SIGTERM)
	runGroup.Add(
		func() error {
			<-term
			log.Logger.Warn().Msg("Received SIGTERM, exiting...")
			daemon.SdNotify(false, daemon.SdNotifyStopping) //nolint:errcheck

			return nil
		},
		func(_ error) {
			close(term)
		},
	)

	runGroup.Add(webHandler.Run, webHandler.Stop)
	runGroup.Add(sched.Run, sched.Close)

	daemon.SdNotify(false, daemon.SdNotifyReady) //nolint:errcheck
	daemon.SdNotify(false, "STATUS=ready")       //nolint:errcheck

	return runGroup.Run() //nolint:wrapcheck
}

func closeCollectors(colls *collectors.Collectors) {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	if err := colls.Close(ctx); err != nil {
		log.Logger.Error().Err(err).Msg("close collectors error")
	}
}

func closeProvider(provider *db.Provider) {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	if err := provider.Close(ctx); err != nil {
		log.Logger.Error().Err(err).Msg("close database error")
	}
}

func enableSDNotify() error {
	ok, err := daemon.SdNotify(false, "STATUS=starting")
	if err != nil {
		return fmt.Errorf("send sd status error: %w", err)
	}

	// not running under systemd?
	if !ok {
		return nil
	}

	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		return fmt.Errorf("enable sdwatchdog error: %w", err)
	}

	// watchdog disabled?
	if interval == 0 {
		return nil
	}

	go func(interval time.Duration) {
		tick := time.Tick(interval)
		for range tick {
			_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
		}
	}(interval / 2) //nolint:mnd

	return nil
}
