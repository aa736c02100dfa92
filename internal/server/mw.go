package server

//
// mw.go
// Copyright (C) 2021 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//
// Inspired by: https://arunvelsriram.dev/simple-golang-http-logging-middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
	"sqlgauge_exporter.app/internal/support"
)

type (
	// our http.ResponseWriter implementation.
	logResponseWriter struct {
		http.ResponseWriter // compose original http.ResponseWriter

		status int // http status
		size   int // response size
	}
)

func (r *logResponseWriter) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}

	size, err := r.ResponseWriter.Write(b) // write response using original http.ResponseWriter
	r.size += size                         // capture size

	if err != nil {
		return size, fmt.Errorf("write response error: %w", err)
	}

	return size, nil
}

func (r *logResponseWriter) WriteHeader(status int) {
	r.ResponseWriter.WriteHeader(status)

	r.status = status
}

// newLogMiddleware create new logging middleware.
func newLogMiddleware(next http.Handler) http.Handler {
	logFn := func(writer http.ResponseWriter, request *http.Request) {
		start := time.Now()
		ctx := request.Context()
		requestID, _ := hlog.IDFromCtx(ctx)
		llog := log.Logger.With().Str("req_id", requestID.String()).Logger()
		request = request.WithContext(llog.WithContext(ctx))

		llog.Debug().
			Str("uri", request.RequestURI).
			Str("remote", request.RemoteAddr).
			Str("method", request.Method).
			Strs("agent", request.Header["User-Agent"]).
			Msg("webhandler: request start")

		lrw := logResponseWriter{ResponseWriter: writer, status: 0, size: 0}

		next.ServeHTTP(&lrw, request)

		level := zerolog.DebugLevel
		if lrw.status >= 400 && lrw.status != 404 {
			level = zerolog.WarnLevel
		}

		llog.WithLevel(level).
			Str("uri", request.RequestURI).
			Int("status", lrw.status).
			Int("size", lrw.size).
			Dur("duration", time.Since(start)).
			Msg("webhandler: request finished")
	}

	return http.HandlerFunc(logFn)
}

// -------------------------------------------------

// newLimitRequestInFlightMW create new http middleware that limit concurrent connection to `limit`.
func newLimitRequestInFlightMW(next http.Handler, limit uint) http.Handler {
	if limit == 0 {
		return next
	}

	inFlightSem := make(chan struct{}, limit)

	logFn := func(w http.ResponseWriter, r *http.Request) {
		select {
		case inFlightSem <- struct{}{}:
			defer func() { <-inFlightSem }()
			next.ServeHTTP(w, r)
		default:
			http.Error(w, "Limit of concurrent requests reached, try again later.", http.StatusTooManyRequests)

			return
		}
	}

	return http.HandlerFunc(logFn)
}

// -------------------------------------------------

// newRejectTraceMW respond 405 for TRACE requests.
func newRejectTraceMW(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodTrace {
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)

			return
		}

		next.ServeHTTP(w, r)
	})
}

// -------------------------------------------------

// instrument wrap handler `name` with request id, trace, logging, metrics and
// in-flight limit.
func (w *WebHandler) instrument(name string, handler http.Handler) http.Handler {
	h := handler

	if w.cfg.Global.RequestTimeout > 0 {
		h = http.TimeoutHandler(h, w.cfg.Global.RequestTimeout, "request timeout")
	}

	h = promhttp.InstrumentHandlerInFlight(newReqInflightWrapper(name), h)
	h = promhttp.InstrumentHandlerDuration(newReqDurationWrapper(name), h)
	h = newLimitRequestInFlightMW(h, w.cfg.Global.MaxRequestInFlight)
	h = newLogMiddleware(h)
	h = support.NewTraceMiddleware("sqlgauge_exporter")(h)
	h = hlog.RequestIDHandler("req_id", "X-Request-Id")(h)
	h = hlog.NewHandler(log.Logger)(h)

	return h
}
