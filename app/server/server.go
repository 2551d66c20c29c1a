// Package server wires the catalog handlers into an HTTP server.
package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/mytheresa/go-catalog-query/app/catalog"
	"github.com/mytheresa/go-catalog-query/app/categories"
	"github.com/mytheresa/go-catalog-query/app/metrics"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func NewRouter(cat *catalog.CatalogHandler, cats *categories.CategoryHandler, m *metrics.Metrics) http.Handler {
	mux := http.NewServeMux()

	// Go 1.22+ routing patterns
	mux.Handle("GET /products", m.Instrument("/products", cat.HandleGet))
	mux.Handle("GET /products/joined", m.Instrument("/products/joined", cat.HandleGetJoined))
	mux.Handle("GET /products/stats", m.Instrument("/products/stats", cat.HandleGetStats))
	mux.Handle("GET /products/{id}", m.Instrument("/products/{id}", cat.HandleGetProduct))
	mux.Handle("GET /categories", m.Instrument("/categories", cats.HandleGetAll))
	mux.Handle("GET /metrics", m.Handler())

	return mux
}

type Server struct {
	srv *http.Server
}

func New(addr string, handler http.Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", s.srv.Addr)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("catalog API listening", zap.String("addr", ln.Addr().String()))
		errCh <- s.srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "serve")
	case <-ctx.Done():
	}

	zap.L().Info("shutting down catalog API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "serve")
	}
	return nil
}
