// Package server assembles the HTTP API from the configuration.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"evalup/pkg/api/reference"
	"evalup/pkg/api/valuation"
	"evalup/pkg/core/config"
	"evalup/pkg/core/store"
)

// shutdownTimeout bounds the graceful shutdown.
const shutdownTimeout = 10 * time.Second

// Server is the configured API server.
type Server struct {
	http *http.Server
	pool *pgxpool.Pool
	log  *zap.Logger
}

// New builds the engine, the optional Postgres store and the routes. The
// store is enabled only when store.database_url is set.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}
	engine, err := cfg.NewEngine(log.Named("engine"))
	if err != nil {
		return nil, err
	}

	s := &Server{log: log}
	var repo valuation.Repository
	if cfg.Store.DatabaseURL != "" {
		pool, err := store.Connect(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		s.pool = pool
		repo = store.NewEvaluationRepo(pool)
		log.Info("persistence enabled")
	} else {
		log.Info("persistence disabled: store.database_url is empty")
	}

	mux := http.NewServeMux()
	valuation.NewHandler(engine, repo, log.Named("api"), valuation.NewMetrics()).Register(mux)
	reference.NewHandler(engine).Register(mux)

	var handler http.Handler = mux
	if d := cfg.Server.RequestTimeout(); d > 0 {
		handler = http.TimeoutHandler(mux, d, "request timed out")
	}
	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info("engine ready",
		zap.String("catalog_version", engine.Catalog().Version()),
		zap.String("tables_version", engine.Tables().Version()),
		zap.Int("reference_as_of", engine.Tables().AsOf()),
	)
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Addr returns the listen address.
func (s *Server) Addr() string { return s.http.Addr }

// Run serves until ctx is cancelled, then shuts down gracefully and releases
// the store.
func (s *Server) Run(ctx context.Context) error {
	defer s.Close()

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("API server starting", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}

// Close releases the database pool, if any.
func (s *Server) Close() {
	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
	}
}
