package server

//
// errors.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import "fmt"

// PortInUseError is returned when listen address is already bound.
type PortInUseError struct {
	Err     error
	Address string
}

func (p PortInUseError) Error() string {
	return fmt.Sprintf("address %s already in use", p.Address)
}

func (p PortInUseError) Unwrap() error {
	return p.Err
}
