// Recserve - Blended Offline/Online Recommendation Serving
// Copyright 2026 Recserve Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recserve/recserve

// Package services contains suture.Service wrappers for long-running
// components.
package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/recserve/recserve/internal/logging"
)

// HTTPServer is the subset of *http.Server the service needs. Tests
// substitute a fake.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServerService adapts an HTTP server to the suture.Service interface
// with graceful shutdown.
type HTTPServerService struct {
	server          HTTPServer
	addr            string
	shutdownTimeout time.Duration
}

// NewHTTPServerService creates the service. addr is only used for logging.
func NewHTTPServerService(server HTTPServer, addr string, shutdownTimeout time.Duration) *HTTPServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPServerService{
		server:          server,
		addr:            addr,
		shutdownTimeout: shutdownTimeout,
	}
}

// Serve runs the HTTP server until the context is canceled, then shuts it
// down gracefully. A clean shutdown returns nil so suture does not restart
// the service.
func (s *HTTPServerService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		logging.Info().Str("addr", s.addr).Msg("HTTP server listening")
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logging.Error().Err(err).Str("addr", s.addr).Msg("HTTP server failed")
		}
		return err
	case <-ctx.Done():
		// Shutdown needs its own context; the serve context is already done.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		logging.Info().Str("addr", s.addr).Msg("shutting down HTTP server")
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			logging.Error().Err(err).Msg("HTTP server shutdown failed")
			return err
		}
		<-errCh
		return ctx.Err()
	}
}

// String identifies the service in suture logs.
func (s *HTTPServerService) String() string {
	return "http-server"
}
