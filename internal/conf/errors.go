package conf

import "fmt"

//
// errors.go
// Copyright (C) 2023 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

// ConfigurationError is error returned when loading or validating configuration failed.
type ConfigurationError struct {
	Err      error
	Message  string
	Filename string
}

func newConfigurationError(msg string) ConfigurationError {
	return ConfigurationError{Message: msg}
}

// Wrap error with ConfigurationError.
func (c ConfigurationError) Wrap(err error) ConfigurationError {
	return ConfigurationError{Err: err, Message: c.Message, Filename: c.Filename}
}

// InFile set name of file that caused error.
func (c ConfigurationError) InFile(filename string) ConfigurationError {
	return ConfigurationError{Err: c.Err, Message: c.Message, Filename: filename}
}

func (c ConfigurationError) Error() string {
	msg := c.Message
	if c.Filename != "" {
		msg = c.Filename + ": " + msg
	}

	if c.Err != nil {
		return fmt.Sprintf("%s: %v", msg, c.Err)
	}

	return msg
}

func (c ConfigurationError) Unwrap() error {
	return c.Err
}

// MissingFieldError is error generated when `field` is missing in configuration.
type MissingFieldError string

func (e MissingFieldError) Error() string {
	return "missing field " + string(e)
}

// InvalidFieldError is error generated when validation of `field` with `value` failed.
type InvalidFieldError struct {
	Field   string
	Value   any
	Message string
}

// NewInvalidFieldError create InvalidFieldError; optional msg describe problem.
func NewInvalidFieldError(field string, value any, msg ...string) InvalidFieldError {
	e := InvalidFieldError{Field: field, Value: value}
	if len(msg) > 0 {
		e.Message = msg[0]
	}

	return e
}

// WithMsg add message to InvalidFieldError.
func (e InvalidFieldError) WithMsg(msg string) InvalidFieldError {
	return InvalidFieldError{e.Field, e.Value, msg}
}

func (e InvalidFieldError) Error() string {
	res := "invalid " + e.Field

	if e.Value != nil {
		res += fmt.Sprintf(" (%v)", e.Value)
	}

	if e.Message != "" {
		res += ": " + e.Message
	}

	return res
}
