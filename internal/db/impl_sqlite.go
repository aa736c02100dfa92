// impl_sqlite.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
package db

import (
	"strings"

	_ "github.com/glebarez/go-sqlite"
	"sqlgauge_exporter.app/internal/conf"
)

func init() {
	registerDatabase(sqliteDef{}, "sqlite3", "sqlite")
}

type sqliteDef struct{}

// driverName for glebarez/go-sqlite is 'sqlite'; mattn/go-sqlite3 use 'sqlite3'.
func (sqliteDef) driverName() string {
	return "sqlite"
}

// connstr build file: uri; `database` is path to database file.
func (sqliteDef) connstr(cfg *conf.Database) (string, error) {
	if cfg.Database == "" {
		return "", ErrNoDatabaseName
	}

	params := newStandardParams(cfg)

	var connstr strings.Builder

	connstr.WriteString("file:")
	connstr.WriteString(cfg.Database)

	if len(params.params) > 0 {
		connstr.WriteRune('?')
		connstr.WriteString(params.params.Encode())
	}

	return connstr.String(), nil
}
