// impl_oracle.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
package db

import (
	"strings"

	_ "github.com/sijms/go-ora/v2"
	"sqlgauge_exporter.app/internal/conf"
)

func init() {
	registerDatabase(oracleDef{}, "oracle")
}

type oracleDef struct{}

func (oracleDef) driverName() string {
	return "oracle"
}

func (oracleDef) connstr(cfg *conf.Database) (string, error) {
	if cfg.Database == "" {
		return "", ErrNoDatabaseName
	}

	params := newStandardParams(cfg)

	var connstr strings.Builder

	connstr.WriteString("oracle://")

	if params.user != "" {
		connstr.WriteString(params.user)

		if params.pass != "" {
			connstr.WriteRune(':')
			connstr.WriteString(params.pass)
		}

		connstr.WriteRune('@')
	}

	connstr.WriteString(params.hostPort("1521"))
	connstr.WriteRune('/')
	connstr.WriteString(params.database)

	if len(params.params) > 0 {
		connstr.WriteRune('?')
		connstr.WriteString(params.params.Encode())
	}

	return connstr.String(), nil
}
