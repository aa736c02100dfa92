package server

//
// info_handler.go
// Copyright (C) 2021 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"fmt"
	"net/http"
	"strings"
	"text/template"
	"time"

	"github.com/rs/zerolog/hlog"
	"sqlgauge_exporter.app/internal/collectors"
	"sqlgauge_exporter.app/internal/conf"
)

const infoTmpl = `
DATABASE
========
- driver: {{ .Database.Driver }}
- host: {{ .Database.Host }}
- port: {{ .Database.Port }}
- database: {{ .Database.Database }}
- user: {{ .Database.User }}
- password: {{ .Database.Password | redact "password" }}
- timeout: {{ .Database.Timeout }}
- connect_timeout: {{ .Database.GetConnectTimeout }}
- params:
  {{- range $key, $val := .Database.Params }}
    - {{ $key }}: {{ $val | redact $key }}
  {{- end }}


QUERIES
=======

{{- range .Queries }}
{{ .Name }}
-----------
- remark: {{ .Remark }}
- enabled: {{ .Enabled }}
- interval: {{ .IntervalDuration }}
- timeout: {{ .TimeoutDuration }}
- multi_row: {{ .MultiRow }}
- prune_missing_rows: {{ .PruneMissingRows }}
- prefix: {{ .Prefix }}
- sql: {{ .SQL }}
{{- end }}


COLLECTORS
==========

{{- range .Collectors }}
{{ .Name }}
-----------
- last_success: {{ .LastSuccess | since }}
- collect_count: {{ .CollectCount }}
- gauges: {{ .GaugesCount }}
{{- end }}
`

func redact(key string, val any) string {
	if strings.HasPrefix(strings.ToLower(key), "pass") {
		if val == nil || val == "" {
			return ""
		}

		return "***"
	}

	return fmt.Sprintf("%v", val)
}

func since(ts time.Time) string {
	if ts.IsZero() {
		return "never"
	}

	return fmt.Sprintf("%s (%s ago)", ts.Format(time.RFC3339), time.Since(ts).Truncate(time.Millisecond))
}

var funcMap = template.FuncMap{
	"redact": redact,
	"since":  since,
}

type collectorsLister interface {
	List() []*collectors.Collector
}

// infoHandler handle request and return information about current configuration
// and state of collectors.
type infoHandler struct {
	cfg        *conf.Configuration
	collectors collectorsLister
	tmpl       *template.Template
}

// newInfoHandler create new info handler.
func newInfoHandler(cfg *conf.Configuration, colls collectorsLister) *infoHandler {
	return &infoHandler{
		cfg:        cfg,
		collectors: colls,
		tmpl:       template.Must(template.New("info").Funcs(funcMap).Parse(infoTmpl)),
	}
}

func (q *infoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.RemoteAddr, "127.") && !strings.HasPrefix(r.RemoteAddr, "localhost:") &&
		!strings.HasPrefix(r.RemoteAddr, "[::1]:") {
		http.Error(w, "forbidden", http.StatusForbidden)

		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	data := struct {
		*conf.Configuration
		Collectors []*collectors.Collector
	}{q.cfg, q.collectors.List()}

	if err := q.tmpl.Execute(w, data); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("infohandler: executing template error")
	}
}
