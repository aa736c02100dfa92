//
// driver.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

package db

import (
	"sort"
	"sync"

	"sqlgauge_exporter.app/internal/conf"
)

// dbDefinition describe how to connect to one kind of database.
type dbDefinition interface {
	// driverName return name of database/sql driver.
	driverName() string
	// connstr build connection string from configuration.
	connstr(cfg *conf.Database) (string, error)
}

var (
	definitions     = make(map[string]dbDefinition)
	definitionsLock sync.Mutex
)

// registerDatabase make definition available under all `names`.
func registerDatabase(def dbDefinition, names ...string) {
	definitionsLock.Lock()
	defer definitionsLock.Unlock()

	for _, n := range names {
		definitions[n] = def
	}
}

func getDefinition(driver string) (dbDefinition, error) {
	definitionsLock.Lock()
	defer definitionsLock.Unlock()

	if def, ok := definitions[driver]; ok {
		return def, nil
	}

	return nil, NotSupportedError(driver)
}

// SupportedDrivers return list of known driver identifiers.
func SupportedDrivers() []string {
	definitionsLock.Lock()
	defer definitionsLock.Unlock()

	names := make([]string, 0, len(definitions))
	for k := range definitions {
		names = append(names, k)
	}

	sort.Strings(names)

	return names
}
