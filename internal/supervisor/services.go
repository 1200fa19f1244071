// Omni Fiber Service Mapper - Fiber Serviceability Tracking
// Copyright 2026 S. Demanett (scdemanett)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/scdemanett/omni-fiber-service-mapper-sub001

package supervisor

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/logging"
)

// HTTPService runs an HTTP server under supervision. A fresh http.Server is
// built per Serve call because a server cannot be reused after Shutdown.
type HTTPService struct {
	addr            string
	handler         http.Handler
	timeout         time.Duration
	shutdownTimeout time.Duration
}

// NewHTTPService creates a supervised HTTP server service.
func NewHTTPService(addr string, handler http.Handler, timeout time.Duration) *HTTPService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPService{
		addr:            addr,
		handler:         handler,
		timeout:         timeout,
		shutdownTimeout: 10 * time.Second,
	}
}

// Serve implements suture.Service. Blocks until the context is canceled or
// the server fails.
func (s *HTTPService) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadTimeout:       s.timeout,
		WriteTimeout:      s.timeout,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * s.timeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", s.addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Warn().Err(err).Msg("HTTP server shutdown incomplete")
		}
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *HTTPService) String() string { return "http-server" }

// Checkpointer flushes database state to disk.
type Checkpointer interface {
	Checkpoint(ctx context.Context) error
}

// CheckpointService periodically checkpoints the database so the WAL stays
// bounded and restarts recover quickly.
type CheckpointService struct {
	db       Checkpointer
	interval time.Duration
}

// NewCheckpointService creates a periodic checkpoint service.
func NewCheckpointService(db Checkpointer, interval time.Duration) *CheckpointService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &CheckpointService{db: db, interval: interval}
}

// Serve implements suture.Service.
func (s *CheckpointService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.db.Checkpoint(ctx); err != nil {
				logging.Warn().Err(err).Msg("Database checkpoint failed")
			}
		}
	}
}

func (s *CheckpointService) String() string { return "db-checkpoint" }

// JobShutdowner stops in-flight batch jobs.
type JobShutdowner interface {
	Shutdown()
}

// CheckerService ties the batch check manager's lifetime to the supervision
// tree: when the tree stops, running jobs stop with it.
type CheckerService struct {
	manager JobShutdowner
}

// NewCheckerService wraps the check manager as a supervised service.
func NewCheckerService(manager JobShutdowner) *CheckerService {
	return &CheckerService{manager: manager}
}

// Serve implements suture.Service. The manager launches jobs on demand from
// API calls; this service only propagates shutdown.
func (s *CheckerService) Serve(ctx context.Context) error {
	<-ctx.Done()
	logging.Info().Msg("Stopping check manager")
	s.manager.Shutdown()
	return ctx.Err()
}

func (s *CheckerService) String() string { return "check-manager" }
