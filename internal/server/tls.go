package server

//
// tls.go
// Copyright (C) 2021 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//
// tls configuration.
// based on github.com/prometheus/exporter-toolkit/web

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"syscall"

	"github.com/prometheus/exporter-toolkit/web"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v2"
)

// listen open tcp listener on `address`. Return PortInUseError when address
// is already bound.
func listen(address string) (net.Listener, error) {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return nil, PortInUseError{Address: address, Err: err}
		}

		return nil, fmt.Errorf("listen error: %w", err)
	}

	return listener, nil
}

func serveHTTP(server *http.Server, listener net.Listener) error {
	log.Logger.Info().Msg("webhandler: TLS is disabled.")

	if err := server.Serve(listener); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// serve start webserver on `listener`; enable tls when configured in
// `tlsConfigPath` file.
func serve(server *http.Server, listener net.Listener, tlsConfigPath string) error {
	if tlsConfigPath == "" {
		return serveHTTP(server, listener)
	}

	cfg, err := loadTLSConfig(tlsConfigPath)
	if err != nil {
		return fmt.Errorf("tls configuration error: %w", err)
	}

	server.Handler = newHeadersHandler(cfg, server.Handler)

	config, err := web.ConfigToTLSConfig(&cfg.TLSConfig)
	if err != nil {
		return serveHTTP(server, listener)
	}

	if !cfg.HTTPConfig.HTTP2 {
		server.TLSNextProto = make(map[string]func(*http.Server, *tls.Conn, http.Handler))
	}

	log.Logger.Info().Msg("webhandler: TLS is enabled.")

	server.TLSConfig = config
	server.TLSConfig.GetConfigForClient = func(*tls.ClientHelloInfo) (*tls.Config, error) {
		config, err := getConfig(tlsConfigPath)
		if err != nil {
			return nil, err
		}

		tlsconf, err := web.ConfigToTLSConfig(&config.TLSConfig)
		if err != nil {
			return nil, fmt.Errorf("tls configuration error: %w", err)
		}

		tlsconf.NextProtos = server.TLSConfig.NextProtos

		return tlsconf, nil
	}

	if err := server.ServeTLS(listener, "", ""); err != nil {
		return fmt.Errorf("server tls error: %w", err)
	}

	return nil
}

func loadTLSConfig(tlsConfigPath string) (*web.Config, error) {
	if err := web.Validate(tlsConfigPath); err != nil {
		return nil, fmt.Errorf("validate tls config error: %w", err)
	}

	return getConfig(tlsConfigPath)
}

func getConfig(configPath string) (*web.Config, error) {
	content, err := os.ReadFile(configPath) // #nosec
	if err != nil {
		return nil, fmt.Errorf("read config file error: %w", err)
	}

	cfg := &web.Config{
		TLSConfig: web.TLSConfig{ //nolint:exhaustruct
			MinVersion:               tls.VersionTLS12,
			MaxVersion:               tls.VersionTLS13,
			PreferServerCipherSuites: true,
		},
		HTTPConfig: web.HTTPConfig{HTTP2: true, Header: nil},
		Users:      nil,
	}

	err = yaml.UnmarshalStrict(content, cfg)
	cfg.TLSConfig.SetDirectory(filepath.Dir(configPath))

	if err != nil {
		return cfg, fmt.Errorf("unmarshal config error: %w", err)
	}

	return cfg, nil
}

// newHeadersHandler add http headers configured in web config to every response.
func newHeadersHandler(conf *web.Config, handler http.Handler) http.Handler {
	if len(conf.Users) > 0 {
		log.Logger.Warn().Msg("webhandler: basic_auth_users in web config are not supported and ignored")
	}

	headers := conf.HTTPConfig.Header
	if len(headers) == 0 {
		return handler
	}

	return http.HandlerFunc(func(writer http.ResponseWriter, req *http.Request) {
		for k, v := range headers {
			writer.Header().Set(k, v)
		}

		handler.ServeHTTP(writer, req)
	})
}
