// Package server wires the AetherGrid core together: storage, the SCADA
// simulation loop, the dispatch registry, the solar estimator, the reasoning
// backend, the orchestrator, and the HTTP surface.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/aethergrid/aethergrid/internal/api"
	"github.com/aethergrid/aethergrid/internal/config"
	"github.com/aethergrid/aethergrid/internal/logistics"
	"github.com/aethergrid/aethergrid/internal/orchestrator"
	"github.com/aethergrid/aethergrid/internal/reasoning"
	"github.com/aethergrid/aethergrid/internal/scada"
	"github.com/aethergrid/aethergrid/internal/solar"
	"github.com/aethergrid/aethergrid/internal/store"
	"github.com/aethergrid/aethergrid/internal/tracing"
)

// Server is the assembled AetherGrid core process.
type Server struct {
	cfg   *config.Config
	http  *http.Server
	store store.Store
	scada *scada.Service

	cancel          context.CancelFunc
	shutdownTracing func(context.Context) error
}

// New builds the full service graph from config. Nothing starts running
// until Start.
func New(cfg *config.Config) (*Server, error) {
	st, err := store.NewFileStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	weather := scada.NewOpenMeteo(cfg.Scada.Latitude, cfg.Scada.Longitude)
	scadaSvc := scada.New(st, weather, scada.Options{
		TickInterval:   cfg.Scada.TickInterval,
		WindowCapacity: cfg.Scada.WindowCapacity,
	})
	registry := logistics.New(st)
	estimator := solar.New(cfg.Solar.ElectricityRate)

	reasoner := reasoning.NewGemini(cfg.Reasoning.APIKey, reasoning.GeminiOptions{
		Endpoint:    cfg.Reasoning.Endpoint,
		Model:       cfg.Reasoning.Model,
		Temperature: cfg.Reasoning.Temperature,
		CallTimeout: cfg.Reasoning.CallTimeout,
	})
	if !reasoner.Available() {
		log.Warn().Msg("No reasoning API key configured, agent runs will use the simulation path")
	}

	orch := orchestrator.New(reasoner, scadaSvc, registry, estimator, orchestrator.Options{
		MaxTurns:    cfg.Reasoning.MaxTurns,
		Temperature: cfg.Reasoning.Temperature,
	})

	handlers := &api.Handlers{
		Scada:        scadaSvc,
		Registry:     registry,
		Solar:        estimator,
		Orchestrator: orch,
		Version:      cfg.Version,
	}

	return &Server{
		cfg:   cfg,
		store: st,
		scada: scadaSvc,
		http: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           api.NewRouter(handlers),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Start initializes tracing, launches the telemetry loop, and serves HTTP
// until Shutdown. Blocks.
func (s *Server) Start(ctx context.Context) error {
	shutdownTracing, err := tracing.Init(ctx, s.cfg.Telemetry, s.cfg.Version)
	if err != nil {
		log.Warn().Err(err).Msg("Tracing init failed, continuing without traces")
		shutdownTracing = func(context.Context) error { return nil }
	}
	s.shutdownTracing = shutdownTracing

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.scada.Run(runCtx)

	log.Info().Int("port", s.cfg.Port).Str("version", s.cfg.Version).Msg("AetherGrid core listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops the telemetry loop, drains HTTP, flushes traces, and closes
// the store. The first error wins; later steps still run.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	var firstErr error
	if err := s.http.Shutdown(ctx); err != nil {
		firstErr = err
	}
	if s.shutdownTracing != nil {
		if err := s.shutdownTracing(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := s.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}

	log.Info().Msg("Server stopped")
	return firstErr
}
