package collectors

//
// mod_test.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"sqlgauge_exporter.app/internal/conf"
)

func TestCollectorsCollectNowWaitsForAll(t *testing.T) {
	t.Parallel()

	const num = 4

	envs := make([]*testEnv, 0, num)
	colls := make([]*Collector, 0, num)

	for range num {
		env := newTestEnv(t)
		col := newSingleRowCollector(t, env)

		env.mock.ExpectQuery(singleRowSQL).
			WillDelayFor(50 * time.Millisecond).
			WillReturnRows(singleRowResult(1, "1"))

		envs = append(envs, env)
		colls = append(colls, col)
	}

	cs := newCollectors(colls...)

	if err := cs.CollectNow(context.Background(), 5*time.Second); err != nil {
		t.Fatalf("collect now error: %v", err)
	}

	for i, col := range colls {
		if col.CollectCount() != 1 {
			t.Errorf("collector %d not finished", i)
		}

		envs[i].checkExpectations(t)
	}

	// second call: all collectors are fresh
	if err := cs.CollectNow(context.Background(), 5*time.Second); err != nil {
		t.Fatalf("collect now error: %v", err)
	}

	for i, col := range colls {
		if col.CollectCount() != 1 {
			t.Errorf("collector %d collected fresh data", i)
		}
	}
}

func TestCollectorsValidate(t *testing.T) {
	t.Parallel()

	okEnv := newTestEnv(t)
	okCol := newSingleRowCollector(t, okEnv)
	okEnv.mock.ExpectQuery(singleRowSQL).WillReturnRows(singleRowResult(1, "1"))

	badEnv := newTestEnv(t)
	badCol := newSingleRowCollector(t, badEnv)
	badEnv.mock.ExpectQuery(singleRowSQL).WillReturnError(errors.New("permission denied"))

	cs := newCollectors(okCol, badCol)

	err := cs.Validate(context.Background())
	if err == nil {
		t.Fatal("expected validation error")
	}

	var qerr QueryExecutionError
	if !errors.As(err, &qerr) || qerr.Query != "stats" {
		t.Errorf("unexpected error: %v", err)
	}

	if okCol.CollectCount() != 1 || badCol.CollectCount() != 0 {
		t.Errorf("unexpected collect counts: %d, %d", okCol.CollectCount(), badCol.CollectCount())
	}

	okEnv.checkExpectations(t)
	badEnv.checkExpectations(t)
}

func TestNewCollectorsFromConfiguration(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	cfg := &conf.Configuration{
		Database: env.dbConf,
		Queries: []*conf.Query{
			{Name: "q1", SQL: "select k, v from t1", Interval: 5, Enabled: true, MultiRow: true},
			{Name: "q2", SQL: "select k, v from t2", Interval: 5, Enabled: false, MultiRow: true},
			{Name: "q3", SQL: "select k, v from t3", Interval: 5, Enabled: true, MultiRow: true},
		},
	}

	cs, err := New(context.Background(), cfg, env.provider, env.reg)
	if err != nil {
		t.Fatalf("create collectors error: %v", err)
	}

	if cs.Len() != 2 {
		t.Fatalf("expected 2 collectors, got %d", cs.Len())
	}

	if cs.List()[0].Name() != "q1" || cs.List()[1].Name() != "q3" {
		t.Errorf("unexpected collectors: %s, %s", cs.List()[0].Name(), cs.List()[1].Name())
	}

	if cnt := testutil.CollectAndCount(cs); cnt != 5 {
		t.Errorf("expected 5 state metrics, got %d", cnt)
	}

	cfg.Queries[0].Enabled = false
	cfg.Queries[2].Enabled = false

	if _, err := New(context.Background(), cfg, env.provider, env.reg); !errors.Is(err, ErrNoCollectors) {
		t.Errorf("expected ErrNoCollectors, got %v", err)
	}
}
