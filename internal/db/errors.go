// errors.go
// Copyright (C) 2023 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
package db

import "fmt"

// InvalidConfigurationError is error generated when database configuration is invalid.
type InvalidConfigurationError string

func (i InvalidConfigurationError) Error() string {
	return string(i)
}

// NotSupportedError is returned for unknown or not compiled-in database driver.
type NotSupportedError string

func (n NotSupportedError) Error() string {
	return "database driver " + string(n) + " is not supported"
}

var (
	ErrNoDatabaseName = InvalidConfigurationError("no database name")
	ErrProviderClosed = InvalidConfigurationError("connection provider closed")
)

// ConnectionError is returned when driver can't establish session with database.
type ConnectionError struct {
	Err    error
	Driver string
	Target string
}

func (c ConnectionError) Error() string {
	return fmt.Sprintf("connect to %s (%s) error: %v", c.Target, c.Driver, c.Err)
}

func (c ConnectionError) Unwrap() error {
	return c.Err
}
