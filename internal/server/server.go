// Package server exposes freshly computed session reports over HTTP so other
// devices and dashboards can fetch them.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/theirongolddev/ocburn/internal/config"
	"github.com/theirongolddev/ocburn/internal/model"
	"github.com/theirongolddev/ocburn/internal/pipeline"
)

// ScopeLocal restricts /api/sessions to this machine's store.
const ScopeLocal = "local"

// Config controls the HTTP service.
type Config struct {
	Addr    string
	Options pipeline.Options
	// Local tags sessions served for scope=local.
	Local config.Device
}

// Service serves session reports. Nothing is cached: every request
// recomputes from the message files and, for fleet scope, the devices.
type Service struct {
	cfg       Config
	startedAt time.Time
}

// New returns a service with the given config.
func New(cfg Config) *Service {
	if cfg.Addr == "" {
		cfg.Addr = config.DefaultAddr
	}
	if cfg.Local.ID == "" {
		cfg.Local = config.Device{ID: config.DefaultLocalDeviceID, Name: config.DefaultLocalDeviceName, URL: config.LocalURL}
	}
	return &Service{cfg: cfg, startedAt: time.Now()}
}

// Handler returns the router with all routes configured.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/sessions", s.handleSessions)
	r.Get("/api/sessions/{id}", s.handleSession)
	r.Get("/api/devices", s.handleDevices)

	return r
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	slog.Info("serving session API", "addr", s.cfg.Addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
}

func (s *Service) report(ctx context.Context, scope string) (*model.Report, error) {
	if scope == ScopeLocal {
		return pipeline.LoadLocalReport(ctx, s.cfg.Options, s.cfg.Local)
	}
	return pipeline.Aggregate(ctx, s.cfg.Options)
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleSessions(w http.ResponseWriter, r *http.Request) {
	rep, err := s.report(r.Context(), r.URL.Query().Get("scope"))
	if err != nil {
		slog.Error("computing report", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Service) handleSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rep, err := s.report(r.Context(), r.URL.Query().Get("scope"))
	if err != nil {
		slog.Error("computing report", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	sess, ok := pipeline.FindSession(rep.Sessions, id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

type devicesResponse struct {
	Devices []config.Device `json:"devices"`
}

func (s *Service) handleDevices(w http.ResponseWriter, _ *http.Request) {
	devices := s.cfg.Options.Devices
	if devices == nil {
		devices = []config.Device{}
	}
	writeJSON(w, http.StatusOK, devicesResponse{Devices: devices})
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Debug("writing response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Detail: message})
}
