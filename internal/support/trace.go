//
// trace.go
// Copyright (C) 2023 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

package support

import (
	"context"
	"net/http"
	"runtime/pprof"

	"github.com/rs/zerolog/hlog"
	"golang.org/x/net/trace"
)

// TraceMaxEvents is max events gathered in trace.
const TraceMaxEvents = 25

// SetGoroutineLabels set debug labels for current goroutine.
func SetGoroutineLabels(ctx context.Context, labels ...string) {
	pprof.SetGoroutineLabels(pprof.WithLabels(ctx, pprof.Labels(labels...)))
}

// NewTrace start new trace and put it into context. Returned function finish trace.
func NewTrace(ctx context.Context, family, title string) (context.Context, func()) {
	tr := trace.New(family, title)
	tr.SetMaxEvents(TraceMaxEvents)

	return trace.NewContext(ctx, tr), tr.Finish
}

// TracePrintf add message to trace.
func TracePrintf(ctx context.Context, msg string, args ...any) {
	if tr, ok := trace.FromContext(ctx); ok && tr != nil {
		tr.LazyPrintf(msg, args...)
	}
}

// TraceErrorf add message to trace and set error on trace.
func TraceErrorf(ctx context.Context, msg string, args ...any) {
	if tr, ok := trace.FromContext(ctx); ok && tr != nil {
		tr.LazyPrintf(msg, args...)
		tr.SetError()
	}
}

// NewTraceMiddleware create new middleware that for each request create
// trace and put it into context.
func NewTraceMiddleware(name string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			title := req.URL.Path

			if requestID, ok := hlog.IDFromRequest(req); ok {
				title += " " + requestID.String()
			}

			ctx, finish := NewTrace(req.Context(), name, title)
			defer finish()

			next.ServeHTTP(w, req.WithContext(ctx))
		})
	}
}
