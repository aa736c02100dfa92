// impl_pg.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
package db

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"sqlgauge_exporter.app/internal/conf"
)

func init() {
	registerDatabase(postgresDef{}, "postgres", "postgresql", "cockroach", "cockroachdb")
}

type postgresDef struct{}

func (postgresDef) driverName() string {
	return "postgres"
}

// connstr build key=value connection string.
func (postgresDef) connstr(cfg *conf.Database) (string, error) {
	if cfg.Database == "" {
		return "", ErrNoDatabaseName
	}

	params := map[string]string{
		"host":   cfg.Host,
		"dbname": cfg.Database,
	}

	if cfg.Port > 0 {
		params["port"] = strconv.Itoa(cfg.Port)
	}

	if cfg.User != "" {
		params["user"] = cfg.User
	}

	if cfg.Password != "" {
		params["password"] = cfg.Password
	}

	if cfg.ConnectTimeout > 0 {
		params["connect_timeout"] = strconv.Itoa(int(cfg.ConnectTimeout.Seconds()))
	}

	for k, v := range cfg.Params {
		if v == nil {
			params[k] = ""
		} else {
			params[k] = fmt.Sprintf("%v", v)
		}
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	parts := make([]string, 0, len(keys))

	for _, k := range keys {
		vstr := strings.ReplaceAll(params[k], `\`, `\\`)
		vstr = strings.ReplaceAll(vstr, "'", `\'`)
		parts = append(parts, k+"='"+vstr+"'")
	}

	return strings.Join(parts, " "), nil
}
