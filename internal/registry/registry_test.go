package registry

//
// registry_test.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestGetOrCreateIdempotent(t *testing.T) {
	t.Parallel()

	preg := prometheus.NewRegistry()
	reg := New(preg, "")

	g1, err := reg.GetOrCreate("conns", "conns")
	if err != nil {
		t.Fatalf("create error: %v", err)
	}

	g2, err := reg.GetOrCreate("conns", "other help")
	if err != nil {
		t.Fatalf("second create error: %v", err)
	}

	if g1 != g2 {
		t.Error("expected the same gauge")
	}

	if reg.Len() != 1 {
		t.Errorf("expected 1 gauge, got %d", reg.Len())
	}

	g1.Set("host1", 3)

	expected := `
# HELP conns conns
# TYPE conns gauge
conns{hostname="host1"} 3
`
	if err := testutil.GatherAndCompare(preg, strings.NewReader(expected), "conns"); err != nil {
		t.Error(err)
	}
}

func TestSetOverwrite(t *testing.T) {
	t.Parallel()

	preg := prometheus.NewRegistry()
	reg := New(preg, "instance")

	g, err := reg.GetOrCreate("size", "size")
	if err != nil {
		t.Fatalf("create error: %v", err)
	}

	g.Set("db", 1)
	g.Set("db", 42.5)

	expected := `
# HELP size size
# TYPE size gauge
size{instance="db"} 42.5
`
	if err := testutil.GatherAndCompare(preg, strings.NewReader(expected), "size"); err != nil {
		t.Error(err)
	}
}

func TestUnregister(t *testing.T) {
	t.Parallel()

	preg := prometheus.NewRegistry()
	reg := New(preg, "")

	g, _ := reg.GetOrCreate("a", "a")
	g.Set("h", 1)

	// second user of the same gauge
	_, _ = reg.GetOrCreate("a", "a")

	reg.Unregister(g)

	if cnt, _ := testutil.GatherAndCount(preg, "a"); cnt != 1 {
		t.Errorf("gauge removed while still in use; count=%d", cnt)
	}

	reg.Unregister(g)

	if cnt, _ := testutil.GatherAndCount(preg, "a"); cnt != 0 {
		t.Errorf("gauge not removed; count=%d", cnt)
	}

	if reg.Len() != 0 {
		t.Errorf("expected empty registry, got %v", reg.Names())
	}

	// unknown gauges are ignored
	reg.Unregister(g)
	reg.Unregister(nil)

	// recreate after remove
	g2, err := reg.GetOrCreate("a", "a")
	if err != nil {
		t.Fatalf("recreate error: %v", err)
	}

	if g2 == g {
		t.Error("expected new gauge instance")
	}
}

func TestGetOrCreateInvalidName(t *testing.T) {
	t.Parallel()

	reg := New(prometheus.NewRegistry(), "")

	if _, err := reg.GetOrCreate("", "x"); err == nil {
		t.Error("expected error for invalid metric name")
	}

	if reg.Len() != 0 {
		t.Errorf("unexpected gauges: %v", reg.Names())
	}
}

func TestNames(t *testing.T) {
	t.Parallel()

	reg := New(prometheus.NewRegistry(), "")
	_, _ = reg.GetOrCreate("b", "b")
	_, _ = reg.GetOrCreate("a", "a")

	if names := strings.Join(reg.Names(), ","); names != "a,b" {
		t.Errorf("unexpected names: %q", names)
	}
}

func TestUnregisterKeepsExternalGauge(t *testing.T) {
	t.Parallel()

	preg := prometheus.NewRegistry()
	ext := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "ext", Help: "ext"}, []string{DefaultLabelName})
	preg.MustRegister(ext)
	ext.WithLabelValues("host1").Set(1)

	reg := New(preg, "")

	g, err := reg.GetOrCreate("ext", "ext")
	if err != nil {
		t.Fatalf("create error: %v", err)
	}

	g.Set("host1", 2)
	reg.Unregister(g)

	if reg.Len() != 0 {
		t.Errorf("gauge still in registry: %v", reg.Names())
	}

	if cnt, _ := testutil.GatherAndCount(preg, "ext"); cnt != 1 {
		t.Errorf("external gauge removed from prometheus registry")
	}
}
