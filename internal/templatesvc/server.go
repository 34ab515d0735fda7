// Package templatesvc serves the RAG prompt template over HTTP.
//
// It is the producer side of the template that ragtemplate resolves against:
// any user token may read the template, and admin tokens may read and change
// it together with the retrieval top-k.
//
//	GET  {base}/                       status, template and k (no auth)
//	GET  {base}/template               {"status": true, "template": ...}
//	GET  {base}/query/settings         {"status": true, "template": ..., "k": ...} (admin)
//	POST {base}/query/settings/update  {"k"?, "template"?} -> {"status": true, "template": ...} (admin)
package templatesvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// maxRequestBody caps settings update bodies.
const maxRequestBody = 1 << 20

// shutdownTimeout bounds graceful shutdown in ListenAndServe.
const shutdownTimeout = 5 * time.Second

// Server is the template service HTTP handler.
type Server struct {
	store    *Store
	auth     *Authenticator
	logger   *zap.Logger
	basePath string
	handler  http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithBasePath mounts the routes under prefix, e.g. "/rag/api/v1".
// A missing leading slash is added.
func WithBasePath(prefix string) Option {
	return func(s *Server) {
		s.basePath = normalizeBasePath(prefix)
	}
}

func normalizeBasePath(prefix string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return ""
	}
	return "/" + prefix
}

// NewServer creates a Server backed by store and auth.
func NewServer(store *Store, auth *Authenticator, opts ...Option) *Server {
	s := &Server{
		store:  store,
		auth:   auth,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	if s.basePath == "" {
		mux.HandleFunc("GET /{$}", s.handleStatus)
	} else {
		mux.HandleFunc("GET "+s.basePath, s.handleStatus)
		mux.HandleFunc("GET "+s.basePath+"/{$}", s.handleStatus)
	}
	mux.HandleFunc("GET "+s.basePath+"/template", s.require(RoleUser, s.handleTemplate))
	mux.HandleFunc("GET "+s.basePath+"/query/settings", s.require(RoleAdmin, s.handleQuerySettings))
	mux.HandleFunc("POST "+s.basePath+"/query/settings/update", s.require(RoleAdmin, s.handleUpdateQuerySettings))

	s.handler = s.logRequests(mux)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully. If ready is non-nil it receives the bound address.
func (s *Server) ListenAndServe(ctx context.Context, addr string, ready chan<- net.Addr) error {
	listener, err := (&net.ListenConfig{}).Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()

	s.logger.Info("template service listening",
		zap.String("addr", listener.Addr().String()),
		zap.String("base_path", s.basePath))
	if ready != nil {
		ready <- listener.Addr()
	}

	select {
	case err := <-errCh:
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}
	s.logger.Info("template service stopped")
	return nil
}

type statusResponse struct {
	Status   bool   `json:"status"`
	Template string `json:"template"`
	K        int    `json:"k"`
}

type templateResponse struct {
	Status   bool   `json:"status"`
	Template string `json:"template"`
}

type querySettingsForm struct {
	K        *int    `json:"k"`
	Template *string `json:"template"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	settings := s.store.Get()
	writeJSON(w, http.StatusOK, statusResponse{Status: true, Template: settings.Template, K: settings.TopK})
}

func (s *Server) handleTemplate(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, templateResponse{Status: true, Template: s.store.Get().Template})
}

func (s *Server) handleQuerySettings(w http.ResponseWriter, _ *http.Request) {
	settings := s.store.Get()
	writeJSON(w, http.StatusOK, statusResponse{Status: true, Template: settings.Template, K: settings.TopK})
}

func (s *Server) handleUpdateQuerySettings(w http.ResponseWriter, r *http.Request) {
	var form querySettingsForm
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&form); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid settings body: "+err.Error())
		return
	}

	settings, err := s.store.Update(form.K, form.Template)
	if err != nil {
		s.logger.Error("settings update failed", zap.Error(err))
		writeDetail(w, http.StatusInternalServerError, "failed to save settings")
		return
	}

	s.logger.Info("query settings updated", zap.Int("k", settings.TopK), zap.Int("template_bytes", len(settings.Template)))
	writeJSON(w, http.StatusOK, templateResponse{Status: true, Template: settings.Template})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(body)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
