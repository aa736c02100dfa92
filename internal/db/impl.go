package db

//
// impl.go
// Copyright (C) 2023 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"fmt"
	"net/url"
	"strconv"

	"sqlgauge_exporter.app/internal/conf"
)

// standardParams are connection parameters escaped for use in url-like
// connection strings.
type standardParams struct {
	params   url.Values
	database string
	user     string
	pass     string
	host     string
	port     string
}

func newStandardParams(cfg *conf.Database) standardParams {
	params := standardParams{
		params:   url.Values{},
		database: url.PathEscape(cfg.Database),
		host:     cfg.Host,
		user:     url.PathEscape(cfg.User),
		pass:     url.PathEscape(cfg.Password),
	}

	if cfg.Port > 0 {
		params.port = strconv.Itoa(cfg.Port)
	}

	for key, val := range cfg.Params {
		vstr := ""
		if val != nil {
			vstr = fmt.Sprintf("%v", val)
		}

		params.params.Add(key, vstr)
	}

	return params
}

// hostPort return host with optional port or default port.
func (s standardParams) hostPort(defaultPort string) string {
	port := s.port
	if port == "" {
		port = defaultPort
	}

	if port == "" {
		return s.host
	}

	return s.host + ":" + port
}
