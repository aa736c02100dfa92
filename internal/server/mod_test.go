package server

//
// mod_test.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"sqlgauge_exporter.app/internal/collectors"
	"sqlgauge_exporter.app/internal/conf"
)

type fakeCollectors struct {
	gauge     prometheus.Gauge
	err       error
	tolerance time.Duration
	calls     atomic.Int32
}

func (f *fakeCollectors) CollectNow(_ context.Context, tolerance time.Duration) error {
	f.calls.Add(1)
	f.tolerance = tolerance
	f.gauge.Set(42)

	return f.err
}

func (f *fakeCollectors) List() []*collectors.Collector {
	return nil
}

func newTestHandler(t *testing.T, enableInfo bool) (*WebHandler, *fakeCollectors) {
	t.Helper()

	preg := prometheus.NewRegistry()
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_value", Help: "test"})
	preg.MustRegister(gauge)

	cfg := &conf.Configuration{
		Database: &conf.Database{Driver: "postgres", Host: "db", Port: 5432, Database: "app", Password: "secret"},
		Queries:  []*conf.Query{{Name: "q1", SQL: "select 1", Interval: 10, Enabled: true}},
	}

	colls := &fakeCollectors{gauge: gauge}
	opts := Options{ListenAddress: "127.0.0.1:0", RefreshTolerance: 3 * time.Second, EnableInfo: enableInfo}

	return New(cfg, opts, preg, colls), colls
}

func doRequest(handler http.Handler, method, path string) (int, string) {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = "127.0.0.1:34567"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	body, _ := io.ReadAll(rec.Result().Body)

	return rec.Code, string(body)
}

func TestMetricsEndpoints(t *testing.T) {
	t.Parallel()

	wh, colls := newTestHandler(t, false)

	for _, path := range []string{"/metrics", "/"} {
		code, body := doRequest(wh.server.Handler, http.MethodGet, path)
		if code != http.StatusOK {
			t.Errorf("%s: unexpected status %d", path, code)
		}

		if !strings.Contains(body, "test_value 0") {
			t.Errorf("%s: missing metric in body: %s", path, body)
		}
	}

	if colls.calls.Load() != 0 {
		t.Error("/metrics should not trigger collection")
	}

	code, _ := doRequest(wh.server.Handler, http.MethodGet, "/unknown")
	if code != http.StatusNotFound {
		t.Errorf("unexpected status for unknown path: %d", code)
	}
}

func TestMetricsNow(t *testing.T) {
	t.Parallel()

	wh, colls := newTestHandler(t, false)

	code, body := doRequest(wh.server.Handler, http.MethodGet, "/metrics_now")
	if code != http.StatusOK {
		t.Errorf("unexpected status %d", code)
	}

	if colls.calls.Load() != 1 || colls.tolerance != 3*time.Second {
		t.Errorf("refresh not called properly: calls=%d tolerance=%v", colls.calls.Load(), colls.tolerance)
	}

	if !strings.Contains(body, "test_value 42") {
		t.Errorf("refreshed value not rendered: %s", body)
	}

	// errors in collectors do not break rendering
	colls.err = errors.New("query failed")

	code, body = doRequest(wh.server.Handler, http.MethodGet, "/metrics_now")
	if code != http.StatusOK || !strings.Contains(body, "test_value 42") {
		t.Errorf("unexpected response on refresh error: %d %s", code, body)
	}
}

func TestTraceRejected(t *testing.T) {
	t.Parallel()

	wh, colls := newTestHandler(t, true)

	for _, path := range []string{"/", "/metrics", "/metrics_now", "/health", "/info", "/other"} {
		if code, _ := doRequest(wh.server.Handler, http.MethodTrace, path); code != http.StatusMethodNotAllowed {
			t.Errorf("TRACE %s: expected 405, got %d", path, code)
		}
	}

	if colls.calls.Load() != 0 {
		t.Error("TRACE request triggered collection")
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	wh, _ := newTestHandler(t, false)

	if code, body := doRequest(wh.server.Handler, http.MethodGet, "/health"); code != http.StatusOK || body != "ok" {
		t.Errorf("unexpected health response: %d %q", code, body)
	}
}

func TestInfo(t *testing.T) {
	t.Parallel()

	wh, _ := newTestHandler(t, false)

	if code, _ := doRequest(wh.server.Handler, http.MethodGet, "/info"); code != http.StatusNotFound {
		t.Errorf("info should be disabled, got %d", code)
	}

	wh, _ = newTestHandler(t, true)

	code, body := doRequest(wh.server.Handler, http.MethodGet, "/info")
	if code != http.StatusOK {
		t.Fatalf("unexpected status %d", code)
	}

	if strings.Contains(body, "secret") || !strings.Contains(body, "password: ***") {
		t.Errorf("password not redacted: %s", body)
	}

	if !strings.Contains(body, "q1") {
		t.Errorf("missing query in info: %s", body)
	}

	req := httptest.NewRequest(http.MethodGet, "/info", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	rec := httptest.NewRecorder()
	wh.server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("info available from remote address: %d", rec.Code)
	}
}

func TestListenPortInUse(t *testing.T) {
	t.Parallel()

	wh, _ := newTestHandler(t, false)
	if err := wh.Listen(); err != nil {
		t.Fatalf("listen error: %v", err)
	}

	defer wh.listener.Close()

	_, err := listen(wh.Addr())

	var perr PortInUseError
	if !errors.As(err, &perr) {
		t.Errorf("expected PortInUseError, got %v", err)
	}
}

func TestRunAndStop(t *testing.T) {
	t.Parallel()

	wh, _ := newTestHandler(t, false)
	if err := wh.Listen(); err != nil {
		t.Fatalf("listen error: %v", err)
	}

	done := make(chan error)

	go func() { done <- wh.Run() }()

	resp, err := http.Get("http://" + wh.Addr() + "/health")
	if err != nil {
		t.Fatalf("request error: %v", err)
	}

	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("unexpected status %d", resp.StatusCode)
	}

	wh.Stop(nil)

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("run error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server not stopped")
	}
}
