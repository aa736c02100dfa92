//
// databases.go
// Copyright (C) 2023 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

package conf

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const defaultConnectionTimeout = 15 * time.Second

// PoolConfiguration configure database connection pool.
type PoolConfiguration struct {
	MaxConnections     int           `yaml:"max_connections"`
	MaxIdleConnections int           `yaml:"max_idle_connections"`
	ConnMaxLifeTime    time.Duration `yaml:"conn_max_life_time"`
}

func (p *PoolConfiguration) validate() error {
	var err *multierror.Error

	if p.MaxConnections < 0 {
		err = multierror.Append(err, NewInvalidFieldError("max_connections", p.MaxConnections))
	}

	if p.MaxIdleConnections < 0 {
		err = multierror.Append(err, NewInvalidFieldError("max_idle_connections", p.MaxIdleConnections))
	}

	if p.ConnMaxLifeTime < 0 {
		err = multierror.Append(err, NewInvalidFieldError("conn_max_life_time", p.ConnMaxLifeTime))
	}

	if p.ConnMaxLifeTime.Seconds() < 1 && p.ConnMaxLifeTime > 0 {
		log.Logger.Warn().Msgf("configuration: pool configuration conn_max_life_time < 1s: %v", p.ConnMaxLifeTime)
	}

	return err.ErrorOrNil()
}

// Database define connection to monitored database.
type Database struct {
	// Extra driver-specific connection parameters.
	Params map[string]any `yaml:"params"`

	Pool *PoolConfiguration `yaml:"pool"`

	// Driver name: postgres, mysql, mssql, oracle, sqlite.
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`

	Port int `yaml:"port"`
	// ExporterPort is port used by http server when no listen address is given.
	ExporterPort int `yaml:"exporter_port"`

	// Default timeout for all queries; 0 = no timeout
	Timeout time.Duration `yaml:"timeout"`
	// Connection and ping timeout
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// MarshalZerologObject implements LogObjectMarshaler.
func (d *Database) MarshalZerologObject(event *zerolog.Event) {
	event.Str("driver", d.Driver).
		Str("host", d.Host).
		Int("port", d.Port).
		Str("database", d.Database).
		Str("user", d.User).
		Int("exporter_port", d.ExporterPort).
		Dur("timeout", d.Timeout).
		Dur("connect_timeout", d.ConnectTimeout).
		Interface("pool", d.Pool)

	if d.Password != "" {
		event.Str("password", "***")
	}

	params := zerolog.Dict()

	for k, v := range d.Params {
		if strings.HasPrefix(strings.ToLower(k), "pass") {
			params.Str(k, "***")
		} else {
			params.Interface(k, v)
		}
	}

	event.Dict("params", params)
}

// Instance return identifier of monitored database used as label value (host:port).
func (d *Database) Instance() string {
	if d.Port == 0 {
		return d.Host
	}

	return net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
}

// GetConnectTimeout return connection timeout from configuration or default.
func (d *Database) GetConnectTimeout() time.Duration {
	if d.ConnectTimeout > 0 {
		return d.ConnectTimeout
	}

	return defaultConnectionTimeout
}

// IsSqlite return true when database use sqlite driver.
func (d *Database) IsSqlite() bool {
	return d.Driver == "sqlite" || d.Driver == "sqlite3"
}

func (d *Database) validateCommon() error {
	var errs *multierror.Error

	if d.Port < 0 || d.Port > 65535 {
		errs = multierror.Append(errs, NewInvalidFieldError("port", d.Port, "port must be in range 1-65535"))
	}

	if d.ExporterPort < 0 || d.ExporterPort > 65535 {
		errs = multierror.Append(errs, NewInvalidFieldError("exporter_port", d.ExporterPort,
			"port must be in range 1-65535"))
	}

	if d.Timeout < 0 {
		errs = multierror.Append(errs, NewInvalidFieldError("timeout", d.Timeout))
	} else if d.Timeout.Seconds() < 1 && d.Timeout > 0 {
		log.Logger.Warn().Msgf("configuration: database timeout < 1s: %s", d.Timeout)
	}

	if d.ConnectTimeout < 0 {
		errs = multierror.Append(errs, NewInvalidFieldError("connect_timeout", d.ConnectTimeout))
	} else if d.ConnectTimeout.Seconds() < 1 && d.ConnectTimeout > 0 {
		log.Logger.Warn().Msgf("configuration: database connect_timeout < 1s: %s", d.ConnectTimeout)
	}

	if d.Pool != nil {
		errs = multierror.Append(errs, d.Pool.validate())
	}

	return errs.ErrorOrNil()
}

func (d *Database) validate() error {
	var errs *multierror.Error

	switch d.Driver {
	case "":
		return MissingFieldError("driver")
	case "postgresql", "postgres", "cockroach", "cockroachdb",
		"mysql", "mariadb", "tidb", "oracle", "mssql", "sqlserver":
		if strings.TrimSpace(d.Host) == "" {
			errs = multierror.Append(errs, MissingFieldError("host"))
		}
	case "sqlite3", "sqlite":
	default:
		return NewInvalidFieldError("driver", d.Driver).WithMsg("unknown database driver")
	}

	if strings.TrimSpace(d.Database) == "" {
		errs = multierror.Append(errs, MissingFieldError("database"))
	}

	errs = multierror.Append(errs, d.validateCommon())

	return errs.ErrorOrNil()
}
