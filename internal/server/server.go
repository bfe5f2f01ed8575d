// Package server exposes the scoring pipeline over an HTTP API.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/davestroud/publix/internal/analytics"
	"github.com/davestroud/publix/internal/config"
	"github.com/davestroud/publix/internal/narrative"
	"github.com/davestroud/publix/internal/store"
)

// defaultWorkers bounds the per-request city metric fan-out.
const defaultWorkers = 8

// Server wires the HTTP handlers to the store and scoring packages.
type Server struct {
	store store.Store
	cfg   *config.Config
	synth *narrative.Synthesizer // nil disables narrative generation
	log   *zap.Logger
}

// New creates a Server. synth may be nil.
func New(st store.Store, cfg *config.Config, synth *narrative.Synthesizer) *Server {
	return &Server{
		store: st,
		cfg:   cfg,
		synth: synth,
		log:   zap.L().With(zap.String("component", "server")),
	}
}

// Router assembles the chi routing tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/saturation", s.handleSaturation)
		r.Get("/opportunities", s.handleOpportunities)
		r.Get("/roi", s.handleROI)
		r.Get("/cotenancy", s.handleCoTenancy)
		r.Get("/heatmap", s.handleHeatmap)
		r.Get("/market-share", s.handleMarketShare)
		r.Post("/predict", s.handlePredict)
	})

	return r
}

// Run serves the API until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", zap.Int("port", s.cfg.Server.Port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) densityConfig() analytics.DensityConfig {
	return analytics.DensityConfig{
		BaselineStoresPer100k:   s.cfg.Analytics.BaselineStoresPer100k,
		AssumedDensityPerSqMile: s.cfg.Analytics.AssumedDensityPerSqMile,
	}
}

// respond helpers

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

type apiError struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apiError{Error: msg})
}
