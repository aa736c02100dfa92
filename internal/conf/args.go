package conf

import (
	"flag"
	"strconv"
	"strings"
	"time"
)

//
// args.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

const (
	defaultListenAddress    = ":9122"
	defaultRefreshTolerance = 5 * time.Second
)

// RuntimeArgs keep options given in command line.
type RuntimeArgs struct {
	DatabaseFilename string
	QueriesFilename  string

	// webserver configuration

	ListenAddress string
	WebConfig     string
	EnableInfo    bool

	// logging

	LogLevel  string
	LogFormat string

	// RefreshTolerance is max age of data returned by /metrics_now.
	RefreshTolerance time.Duration

	ShowVersion bool
}

// NewRuntimeArgs parse command line arguments.
func NewRuntimeArgs() RuntimeArgs {
	return parseRuntimeArgs(flag.CommandLine, nil)
}

func parseRuntimeArgs(fset *flag.FlagSet, args []string) RuntimeArgs {
	opts := RuntimeArgs{}

	fset.BoolVar(&opts.ShowVersion, "version", false, "Print version information.")

	fset.StringVar(&opts.DatabaseFilename, "config.database", "dbconfig.yaml",
		"Path to database connection configuration file.")
	fset.StringVar(&opts.QueriesFilename, "config.queries", "collect.yaml",
		"Path to queries configuration file (yaml or json).")

	fset.StringVar(&opts.ListenAddress, "web.listen-address", "",
		"Address to listen on for web interface and telemetry; default: ':<exporter_port>' from database configuration.")
	fset.StringVar(&opts.WebConfig, "web.config", "",
		"Path to config yaml file that can enable TLS.")
	fset.BoolVar(&opts.EnableInfo, "enable-info", false, "Enable /info endpoint")

	fset.StringVar(&opts.LogLevel, "log.level", "info",
		"Logging level (debug, info, warn, error, fatal)")
	fset.StringVar(&opts.LogFormat, "log.format", "logfmt",
		"Logging log format (logfmt, json).")

	fset.DurationVar(&opts.RefreshTolerance, "refresh.tolerance", 0,
		"Max age of data served by /metrics_now; default 5s or global.refresh_tolerance.")

	if args == nil {
		flag.Parse()
	} else {
		_ = fset.Parse(args)
	}

	return opts
}

// ResolveListenAddress return address to listen on. Command line has priority over
// exporter_port from database configuration.
func (r *RuntimeArgs) ResolveListenAddress(cfg *Configuration) string {
	if r.ListenAddress != "" {
		return r.ListenAddress
	}

	if cfg != nil && cfg.Database != nil && cfg.Database.ExporterPort > 0 {
		return ":" + strconv.Itoa(cfg.Database.ExporterPort)
	}

	return defaultListenAddress
}

// ResolveRefreshTolerance return tolerance for on-demand refresh.
func (r *RuntimeArgs) ResolveRefreshTolerance(cfg *Configuration) time.Duration {
	switch {
	case r.RefreshTolerance > 0:
		return r.RefreshTolerance
	case cfg != nil && cfg.Global.RefreshTolerance > 0:
		return cfg.Global.RefreshTolerance
	}

	return defaultRefreshTolerance
}

// IsLocalAddress return true when `addr` is loopback address.
func IsLocalAddress(addr string) bool {
	return strings.HasPrefix(addr, "127.0.0.1:") ||
		strings.HasPrefix(addr, "localhost:") ||
		strings.HasPrefix(addr, "[::1]:")
}
