package db

//
// provider_test.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"sqlgauge_exporter.app/internal/conf"
)

func TestProviderAcquireSqlite(t *testing.T) {
	t.Parallel()

	cfg := &conf.Database{
		Driver:   "sqlite",
		Database: filepath.Join(t.TempDir(), "test.db"),
	}

	prov, err := NewProvider(cfg, 3)
	if err != nil {
		t.Fatalf("new provider error: %v", err)
	}

	if s := prov.Stats(); s != nil {
		t.Errorf("unexpected stats before connect: %v", s)
	}

	ctx := context.Background()

	conn1, err := prov.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire error: %v", err)
	}

	conn2, err := prov.Acquire(ctx)
	if err != nil {
		t.Fatalf("second acquire error: %v", err)
	}

	if conn1 != conn2 {
		t.Error("acquire should return the same pool")
	}

	var res int
	if err := conn1.GetContext(ctx, &res, "select 1+1"); err != nil || res != 2 {
		t.Errorf("query error: %v, res=%d", err, res)
	}

	if s := prov.Stats(); s == nil || s.DBStats.MaxOpenConnections != 3 {
		t.Errorf("invalid stats: %+v", s)
	}

	if cnt := testutil.CollectAndCount(prov); cnt != 7 {
		t.Errorf("expected 7 pool metrics, got %d", cnt)
	}

	if err := prov.Close(ctx); err != nil {
		t.Fatalf("close error: %v", err)
	}

	if _, err := prov.Acquire(ctx); !errors.Is(err, ErrProviderClosed) {
		t.Errorf("expected ErrProviderClosed, got %v", err)
	}
}

func TestProviderAcquireFailed(t *testing.T) {
	t.Parallel()

	cfg := &conf.Database{
		Driver:   "sqlite",
		Database: filepath.Join(t.TempDir(), "missing", "dir", "test.db"),
		Params:   map[string]any{"mode": "ro"},
	}

	prov, err := NewProvider(cfg, 1)
	if err != nil {
		t.Fatalf("new provider error: %v", err)
	}

	_, err = prov.Acquire(context.Background())
	if err == nil {
		t.Fatal("expected connection error")
	}

	var cerr ConnectionError
	if !errors.As(err, &cerr) {
		t.Errorf("expected ConnectionError, got %T: %v", err, err)
	}
}

func TestNewProviderUnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := NewProvider(&conf.Database{Driver: "db2", Database: "x"}, 1)

	var nerr NotSupportedError
	if !errors.As(err, &nerr) {
		t.Errorf("expected NotSupportedError, got %v", err)
	}
}
