// impl_mysql.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
package db

import (
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"sqlgauge_exporter.app/internal/conf"
)

func init() {
	registerDatabase(mysqlDef{}, "mysql", "mariadb", "tidb")
}

type mysqlDef struct{}

func (mysqlDef) driverName() string {
	return "mysql"
}

func (mysqlDef) connstr(cfg *conf.Database) (string, error) {
	if cfg.Database == "" {
		return "", ErrNoDatabaseName
	}

	params := newStandardParams(cfg)
	if params.host == "" {
		params.host = "localhost"
	}

	if cfg.ConnectTimeout > 0 && !params.params.Has("timeout") {
		params.params.Set("timeout", cfg.ConnectTimeout.String())
	}

	var connstr strings.Builder

	if params.user != "" {
		connstr.WriteString(params.user)

		if params.pass != "" {
			connstr.WriteRune(':')
			connstr.WriteString(params.pass)
		}

		connstr.WriteRune('@')
	}

	connstr.WriteString("tcp(")
	connstr.WriteString(params.hostPort("3306"))
	connstr.WriteString(")/")
	connstr.WriteString(params.database)

	if len(params.params) > 0 {
		connstr.WriteRune('?')
		connstr.WriteString(params.params.Encode())
	}

	return connstr.String(), nil
}
