package collectors

// errors.go
// Copyright (C) 2023 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCollectors is returned when configuration contains no enabled query.
	ErrNoCollectors = errors.New("no enabled queries")
	// ErrNoNumericColumns is returned when rediscovery found no numeric column
	// in result of query that exported gauges before.
	ErrNoNumericColumns = errors.New("no numeric columns in result")
)

// Stage of query processing where error occurred.
type Stage string

const (
	StageConnect    Stage = "connect"
	StagePrepare    Stage = "prepare"
	StageExecute    Stage = "execute"
	StageDiscovery  Stage = "discovery"
	StageRead       Stage = "read"
	StageConversion Stage = "conversion"
	StageRegistry   Stage = "registry"
	StageLock       Stage = "lock"
)

// QueryExecutionError is returned when collection of query failed.
type QueryExecutionError struct {
	Err   error
	Query string
	Stage Stage
}

func newQueryExecutionError(query string, stage Stage, err error) QueryExecutionError {
	return QueryExecutionError{Err: err, Query: query, Stage: stage}
}

func (q QueryExecutionError) Error() string {
	return fmt.Sprintf("query %q %s error: %v", q.Query, q.Stage, q.Err)
}

func (q QueryExecutionError) Unwrap() error {
	return q.Err
}

// UnsupportedValueError is returned when value of numeric column can't be
// converted to float.
type UnsupportedValueError struct {
	Value  any
	Err    error
	Column string
}

func (u UnsupportedValueError) Error() string {
	msg := fmt.Sprintf("column %q: unsupported value %v (%T)", u.Column, u.Value, u.Value)
	if u.Err != nil {
		msg += ": " + u.Err.Error()
	}

	return msg
}

func (u UnsupportedValueError) Unwrap() error {
	return u.Err
}
