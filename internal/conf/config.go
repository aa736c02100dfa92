//
// config.go
// Copyright (C) 2023 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

package conf

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

// Configuration keep application configuration loaded from database and
// queries files.
type Configuration struct {
	// Monitored database
	Database *Database `yaml:"database"`
	// Queries in order defined in configuration file
	Queries []*Query `yaml:"-"`
	// Global application settings
	Global GlobalConf `yaml:"global"`

	DatabaseFilename string `yaml:"-"`
	QueriesFilename  string `yaml:"-"`
}

// queriesFile is content of queries configuration file.
type queriesFile struct {
	Queries []*Query `yaml:"queries"`
}

// MarshalZerologObject implements LogObjectMarshaler.
func (c *Configuration) MarshalZerologObject(event *zerolog.Event) {
	event.Object("global", &c.Global).
		Str("database_file", c.DatabaseFilename).
		Str("queries_file", c.QueriesFilename)

	if c.Database != nil {
		event.Object("database", c.Database)
	}

	queries := zerolog.Arr()
	for _, q := range c.Queries {
		queries.Object(q)
	}

	event.Array("queries", queries)
}

// EnabledQueries return list of queries with enabled flag set.
func (c *Configuration) EnabledQueries() []*Query {
	queries := make([]*Query, 0, len(c.Queries))

	for _, q := range c.Queries {
		if q.Enabled {
			queries = append(queries, q)
		}
	}

	return queries
}

func (c *Configuration) validate() error {
	var errs *multierror.Error

	if c.Database == nil {
		errs = multierror.Append(errs, newConfigurationError("no database configured").
			InFile(c.DatabaseFilename))
	} else if err := c.Database.validate(); err != nil {
		errs = multierror.Append(errs, newConfigurationError("validate database error").
			InFile(c.DatabaseFilename).Wrap(err))
	}

	if err := c.Global.validate(); err != nil {
		errs = multierror.Append(errs, newConfigurationError("validate global settings error").
			InFile(c.DatabaseFilename).Wrap(err))
	}

	if len(c.Queries) == 0 {
		errs = multierror.Append(errs, newConfigurationError("no query configured").InFile(c.QueriesFilename))
	}

	names := make(map[string]bool, len(c.Queries))

	for idx, query := range c.Queries {
		if query == nil {
			errs = multierror.Append(errs, newConfigurationError(
				fmt.Sprintf("query %d is empty", idx+1)).InFile(c.QueriesFilename))

			continue
		}

		if err := query.validate(); err != nil {
			errs = multierror.Append(errs, newConfigurationError(
				fmt.Sprintf("validate query %d '%s' error", idx+1, query.Name)).
				InFile(c.QueriesFilename).Wrap(err))
		}

		if names[query.Name] {
			errs = multierror.Append(errs, newConfigurationError(
				fmt.Sprintf("duplicated query name '%s'", query.Name)).InFile(c.QueriesFilename))
		}

		names[query.Name] = true
	}

	return errs.ErrorOrNil()
}

// LoadConfiguration from database configuration file and queries file.
func LoadConfiguration(databaseFilename, queriesFilename string) (*Configuration, error) {
	conf := &Configuration{
		DatabaseFilename: databaseFilename,
		QueriesFilename:  queriesFilename,
	}

	if err := loadYaml(databaseFilename, conf); err != nil {
		return nil, err
	}

	var queries queriesFile
	if err := loadYaml(queriesFilename, &queries); err != nil {
		return nil, err
	}

	conf.Queries = queries.Queries
	conf.Global.setup()

	if err := conf.validate(); err != nil {
		return nil, newConfigurationError("validate error").Wrap(err)
	}

	configLoadTime.SetToCurrentTime()

	return conf, nil
}

// loadYaml read `filename` and unmarshal it into `dst`. Json is valid yaml so
// it is also accepted.
func loadYaml(filename string, dst any) error {
	b, err := os.ReadFile(filename) // #nosec
	if err != nil {
		return newConfigurationError("read file error").InFile(filename).Wrap(err)
	}

	if err = yaml.Unmarshal(b, dst); err != nil {
		return newConfigurationError("unmarshal file error").InFile(filename).Wrap(err)
	}

	return nil
}
