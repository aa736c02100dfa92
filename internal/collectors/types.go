package collectors

//
// types.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// numericTypes are normalized database type names which values are exported.
var numericTypes = map[string]struct{}{
	"BIGINT":            {},
	"INT8":              {},
	"INTEGER":           {},
	"INT":               {},
	"INT4":              {},
	"MEDIUMINT":         {},
	"SMALLINT":          {},
	"INT2":              {},
	"TINYINT":           {},
	"DOUBLE":            {},
	"DOUBLE PRECISION":  {},
	"FLOAT8":            {},
	"BINARY_DOUBLE":     {},
	"FLOAT":             {},
	"FLOAT4":            {},
	"BINARY_FLOAT":      {},
	"REAL":              {},
	"NUMERIC":           {},
	"NUMBER":            {},
	"DECIMAL":           {},
	"DEC":               {},
	"VARCHAR":           {},
	"VARCHAR2":          {},
	"NVARCHAR":          {},
	"NVARCHAR2":         {},
	"CHARACTER VARYING": {},
}

var (
	typeSizeSuffix   = regexp.MustCompile(`\s*\(.*\)\s*$`)
	invalidNameChars = regexp.MustCompile(`[^_A-Za-z0-9]`)
)

// normalizeTypeName convert driver type name to upper case and remove
// size and `UNSIGNED` modifier.
func normalizeTypeName(name string) string {
	name = strings.ToUpper(strings.TrimSpace(name))
	name = typeSizeSuffix.ReplaceAllString(name, "")

	fields := strings.Fields(name)
	res := fields[:0]

	for _, f := range fields {
		if f != "UNSIGNED" {
			res = append(res, f)
		}
	}

	return strings.Join(res, " ")
}

func isNumericType(name string) bool {
	_, ok := numericTypes[normalizeTypeName(name)]

	return ok
}

func isNumericColumn(col *sql.ColumnType) bool {
	return col != nil && isNumericType(col.DatabaseTypeName())
}

// gaugeName build metric name `[prefix__][rowKey__]column` with all
// characters other than letters, digits and underscore removed.
func gaugeName(prefix, rowKey, column string) string {
	var name strings.Builder

	if strings.TrimSpace(prefix) != "" {
		name.WriteString(prefix)
		name.WriteString("__")
	}

	if strings.TrimSpace(rowKey) != "" {
		name.WriteString(rowKey)
		name.WriteString("__")
	}

	name.WriteString(column)

	return invalidNameChars.ReplaceAllString(name.String(), "")
}

// toFloat convert value returned by driver to float. NULL is 0.
func toFloat(column string, value any) (float64, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int16:
		return float64(v), nil
	case int8:
		return float64(v), nil
	case int:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case uint16:
		return float64(v), nil
	case uint8:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case bool:
		if v {
			return 1, nil
		}

		return 0, nil
	case []byte:
		return parseFloat(column, string(v))
	case string:
		return parseFloat(column, v)
	case fmt.Stringer:
		// ie. decimal types of some drivers
		return parseFloat(column, v.String())
	}

	return 0, UnsupportedValueError{Column: column, Value: value}
}

func parseFloat(column, value string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, UnsupportedValueError{Column: column, Value: value, Err: err}
	}

	return f, nil
}

// toRowKey convert value of first column in multi-row mode to string.
func toRowKey(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
	}

	return fmt.Sprintf("%v", value)
}
