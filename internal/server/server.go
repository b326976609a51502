// Package server exposes the inbox over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/danielolaszy/ghinbox/internal/config"
	"github.com/danielolaszy/ghinbox/internal/inbox"
	"github.com/danielolaszy/ghinbox/internal/logging"
)

// InboxPath is the route serving the inbox of the default repository.
// The inbox of any other repository is served under InboxPath/{owner}/{repo}.
const InboxPath = "/github-inbox"

const shutdownTimeout = 10 * time.Second

// Server answers inbox queries against a Source.
type Server struct {
	source     inbox.Source
	repository string
	inbox      config.InboxConfig
	router     *mux.Router
}

// New returns a server. repository is the "owner/repo" used when a request does
// not name one; it may be empty.
func New(source inbox.Source, repository string, cfg config.InboxConfig) *Server {
	s := &Server{
		source:     source,
		repository: repository,
		inbox:      cfg,
		router:     mux.NewRouter(),
	}
	s.router.HandleFunc(InboxPath, s.handleInbox).Methods(http.MethodGet)
	s.router.HandleFunc(InboxPath+"/{owner}/{repo}", s.handleInbox).Methods(http.MethodGet)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("http server listening", "addr", addr, "path", InboxPath)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server stopped: %w", err)
	case <-ctx.Done():
	}

	logging.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleInbox(w http.ResponseWriter, r *http.Request) {
	owner, repo, err := s.resolveRepository(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	query := r.URL.Query()
	opts := inbox.QueryOptions{
		Status:     query.Get("status"),
		State:      query.Get("state"),
		PerPage:    s.inbox.PerPage,
		PageLimit:  inbox.ConfiguredPageLimit(s.inbox.PageLimit),
		Maintainer: s.inbox.MaintainerFor(owner),
	}
	if err := opts.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	logging.Debug("inbox request", "repository", owner+"/"+repo, "status", opts.Status, "state", opts.State)

	resp, err := inbox.Query(r.Context(), s.source, owner, repo, opts)
	if err != nil {
		logging.Error("inbox query failed", "repository", owner+"/"+repo, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "inbox query failed"})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) resolveRepository(r *http.Request) (owner, repo string, err error) {
	vars := mux.Vars(r)
	if vars["owner"] != "" {
		return vars["owner"], vars["repo"], nil
	}
	if s.repository == "" {
		return "", "", errors.New("no repository configured: request " + InboxPath + "/{owner}/{repo}")
	}
	return config.SplitRepository(s.repository)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode response", "error", err)
	}
}
