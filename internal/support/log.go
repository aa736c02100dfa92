//
// log.go
// Copyright (C) 2017 Karol Będkowski <Karol Będkowski@kntbk>
//
// Distributed under terms of the GPLv3 license.
//
// based on: github.com/prometheus/common/log

package support

import (
	"context"
	stdlog "log"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitializeLogger set log level and output format (logfmt or json).
// Standard library logger (and so default slog logger) is redirected to zerolog.
func InitializeLogger(level string, format string) {
	var llog zerolog.Logger

	switch format {
	default:
		log.Error().Msgf("logger: unknown log format '%s'; using logfmt", format)

		fallthrough
	case "logfmt":
		llog = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			NoColor:    !outputIsConsole(),
			TimeFormat: time.RFC3339,
		})
	case "json":
		llog = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	if l, err := zerolog.ParseLevel(level); err == nil && level != "" {
		zerolog.SetGlobalLevel(l)
	} else {
		log.Error().Msgf("logger: unknown log level '%s'; using info", level)
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	log.Logger = llog.With().Caller().Logger()

	stdlog.SetFlags(0)
	stdlog.SetOutput(log.Logger)
}

// ModuleLogger create sub-logger for application module.
func ModuleLogger(module string) zerolog.Logger {
	return log.Logger.With().Str("module", module).Logger()
}

func outputIsConsole() bool {
	fileInfo, _ := os.Stderr.Stat()

	return fileInfo != nil && (fileInfo.Mode()&os.ModeCharDevice) != 0
}

// GetLoggerFromCtx return logger from context or global logger.
func GetLoggerFromCtx(ctx context.Context) zerolog.Logger {
	if llog := zerolog.Ctx(ctx); llog != nil && llog.GetLevel() != zerolog.Disabled {
		return *llog
	}

	return log.Logger
}
