// Package server exposes the routing engine to the UI layer over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/buildledger/ledgerroute/internal/engine"
	"github.com/buildledger/ledgerroute/internal/service"
)

// Server hosts the JSON API for rules, routing runs, and assignments.
type Server struct {
	engine  *engine.RoutingEngine
	storage service.Storage
	httpSrv *http.Server
}

// New creates a server for the given engine and storage.
func New(eng *engine.RoutingEngine, storage service.Storage, addr string) *Server {
	s := &Server{
		engine:  eng,
		storage: storage,
	}

	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

// Router builds the HTTP route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/rules", s.handleCreateRule).Methods(http.MethodPost)
	api.HandleFunc("/rules", s.handleListRules).Methods(http.MethodGet)
	api.HandleFunc("/rules/{id:[0-9]+}", s.handleUpdateRule).Methods(http.MethodPatch)
	api.HandleFunc("/rules/{id:[0-9]+}", s.handleDeactivateRule).Methods(http.MethodDelete)

	api.HandleFunc("/companies/{companyID}/route", s.handleRunAutoRouting).Methods(http.MethodPost)
	api.HandleFunc("/companies/{companyID}/transactions/unrouted", s.handleGetUnrouted).Methods(http.MethodGet)
	api.HandleFunc("/companies/{companyID}/history", s.handleHistory).Methods(http.MethodGet)

	api.HandleFunc("/assignments", s.handleAssign).Methods(http.MethodPost)

	return r
}

// ListenAndServe runs the server until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		slog.Info("HTTP API listening", "addr", s.httpSrv.Addr)
		errCh <- s.httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
