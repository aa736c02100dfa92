package collectors

//
// types_test.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"errors"
	"testing"
	"time"
)

func TestNormalizeTypeName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"bigint":             "BIGINT",
		"UNSIGNED BIGINT":    "BIGINT",
		"int unsigned":       "INT",
		"NUMERIC(10,2)":      "NUMERIC",
		"varchar(64)":        "VARCHAR",
		"double   precision": "DOUBLE PRECISION",
		" INT4 ":             "INT4",
		"":                   "",
	}

	for input, expected := range tests {
		if res := normalizeTypeName(input); res != expected {
			t.Errorf("normalizeTypeName(%q): expected %q, got %q", input, expected, res)
		}
	}
}

func TestIsNumericType(t *testing.T) {
	t.Parallel()

	numeric := []string{
		"BIGINT", "INTEGER", "DOUBLE", "FLOAT", "NUMERIC", "REAL", "VARCHAR", "SMALLINT",
		"TINYINT", "DECIMAL", "INT4", "INT8", "FLOAT8", "NUMBER", "UNSIGNED INT", "CHARACTER VARYING",
	}
	for _, n := range numeric {
		if !isNumericType(n) {
			t.Errorf("%q should be numeric", n)
		}
	}

	other := []string{"TEXT", "DATE", "TIMESTAMP", "BOOL", "BLOB", "CHAR", "JSON", ""}
	for _, n := range other {
		if isNumericType(n) {
			t.Errorf("%q should not be numeric", n)
		}
	}
}

func TestGaugeName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		prefix, rowKey, column string
		expected               string
	}{
		{"", "", "conns", "conns"},
		{"p", "", "conns", "p__conns"},
		{"p", "db1", "conns", "p__db1__conns"},
		{"", "db1", "conns", "db1__conns"},
		{"  ", " ", "conns", "conns"},
		{"my-app", "db.1", "active conns%", "myapp__db1__activeconns"},
		{"p", "zażółć", "c", "p__za__c"},
	}

	for _, tc := range tests {
		if res := gaugeName(tc.prefix, tc.rowKey, tc.column); res != tc.expected {
			t.Errorf("gaugeName(%q, %q, %q): expected %q, got %q",
				tc.prefix, tc.rowKey, tc.column, tc.expected, res)
		}
	}
}

func TestToFloat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value    any
		expected float64
	}{
		{nil, 0},
		{int64(10), 10},
		{int32(-3), -3},
		{uint8(7), 7},
		{float64(1.5), 1.5},
		{float32(0.5), 0.5},
		{true, 1},
		{false, 0},
		{[]byte("12.25"), 12.25},
		{" 42 ", 42},
	}

	for _, tc := range tests {
		res, err := toFloat("c", tc.value)
		if err != nil {
			t.Errorf("toFloat(%v) error: %v", tc.value, err)
		} else if res != tc.expected {
			t.Errorf("toFloat(%v): expected %v, got %v", tc.value, tc.expected, res)
		}
	}

	for _, value := range []any{"abc", []byte(""), time.Now(), struct{}{}} {
		_, err := toFloat("c", value)

		var uerr UnsupportedValueError
		if !errors.As(err, &uerr) {
			t.Errorf("toFloat(%v): expected UnsupportedValueError, got %v", value, err)
		}
	}
}

func TestToRowKey(t *testing.T) {
	t.Parallel()

	if k := toRowKey(nil); k != "" {
		t.Errorf("unexpected key for nil: %q", k)
	}

	if k := toRowKey([]byte("db1")); k != "db1" {
		t.Errorf("unexpected key for bytes: %q", k)
	}

	if k := toRowKey(int64(12)); k != "12" {
		t.Errorf("unexpected key for int: %q", k)
	}
}
