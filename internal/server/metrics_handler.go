package server

//
// metrics_handler.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/hlog"
	"sqlgauge_exporter.app/internal/support"
)

// refresher update stale data.
type refresher interface {
	CollectNow(ctx context.Context, tolerance time.Duration) error
}

// metricsNowHandler refresh all collectors with data older than tolerance
// and then render metrics.
type metricsNowHandler struct {
	refresher refresher
	next      http.Handler
	tolerance time.Duration
}

func newMetricsNowHandler(r refresher, tolerance time.Duration, next http.Handler) *metricsNowHandler {
	return &metricsNowHandler{refresher: r, tolerance: tolerance, next: next}
}

func (m *metricsNowHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	llog := hlog.FromRequest(req)

	support.TracePrintf(ctx, "refresh collectors; tolerance=%s", m.tolerance)

	start := time.Now()

	if err := m.refresher.CollectNow(ctx, m.tolerance); err != nil {
		refreshErrorsCnt.Inc()
		support.TraceErrorf(ctx, "refresh error: %v", err)
		llog.Warn().Err(err).Msg("webhandler: refresh collectors finished with errors")
	}

	llog.Debug().Dur("duration", time.Since(start)).Msg("webhandler: refresh collectors finished")

	m.next.ServeHTTP(w, req)
}
