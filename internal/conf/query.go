package conf

import (
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

//
// query.go
// Copyright (C) 2023 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

// Query is definition of single query which result is exposed as gauges.
type Query struct {
	// Query name; used in logs and exporter metrics
	Name string `yaml:"name"`
	// Human-readable description
	Remark string `yaml:"remark"`
	// Metric-name prefix
	Prefix string `yaml:"prefix"`
	// SQL script to launch
	SQL string `yaml:"sql"`

	// Interval between runs in seconds
	Interval int `yaml:"interval"`
	// Max query execution time in seconds; 0 = use database default
	Timeout int `yaml:"timeout"`

	Enabled bool `yaml:"enabled"`
	// MultiRow enable mode where first column of each row is key of series.
	MultiRow bool `yaml:"multiRow"`
	// PruneMissingRows remove gauges for row keys missing in last result (only multiRow).
	PruneMissingRows bool `yaml:"pruneMissingRows"`
}

// MarshalZerologObject implements LogObjectMarshaler.
func (q *Query) MarshalZerologObject(e *zerolog.Event) {
	e.Str("name", q.Name).
		Str("remark", q.Remark).
		Str("prefix", q.Prefix).
		Str("sql", q.SQL).
		Int("interval", q.Interval).
		Int("timeout", q.Timeout).
		Bool("enabled", q.Enabled).
		Bool("multi_row", q.MultiRow).
		Bool("prune_missing_rows", q.PruneMissingRows)
}

// IntervalDuration return interval between scheduled runs.
func (q *Query) IntervalDuration() time.Duration {
	return time.Duration(q.Interval) * time.Second
}

// TimeoutDuration return query timeout; 0 when not configured.
func (q *Query) TimeoutDuration() time.Duration {
	return time.Duration(q.Timeout) * time.Second
}

func (q *Query) validate() error {
	var errs *multierror.Error

	if strings.TrimSpace(q.Name) == "" {
		errs = multierror.Append(errs, MissingFieldError("name"))
	}

	if strings.TrimSpace(q.SQL) == "" {
		errs = multierror.Append(errs, MissingFieldError("sql"))
	}

	if q.Interval < 1 {
		errs = multierror.Append(errs, NewInvalidFieldError("interval", q.Interval, "interval must be >= 1s"))
	}

	if q.Timeout < 0 {
		errs = multierror.Append(errs, NewInvalidFieldError("timeout", q.Timeout))
	}

	if q.PruneMissingRows && !q.MultiRow {
		log.Logger.Warn().Msgf("configuration: query %v: pruneMissingRows ignored in single row mode", q.Name)
	}

	return errs.ErrorOrNil()
}
