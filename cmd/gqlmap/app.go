package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gqlmap/internal/core/app"
	"gqlmap/internal/core/config"
	"gqlmap/internal/engine/analyzer"
)

// App decorates the core application with the terminal UI and the
// observability HTTP surface.
type App struct {
	*app.App

	teaProgram *tea.Program
}

func NewApp(cfg *config.Config) (*App, error) {
	core, err := app.New(cfg)
	if err != nil {
		return nil, err
	}

	a := &App{App: core}
	core.SetUpdateHandler(func(result *analyzer.Result) {
		if a.teaProgram != nil {
			a.teaProgram.Send(updateMsg{result: result})
		}
	})
	return a, nil
}

func (a *App) RunUI() error {
	m := initialModel()
	p := tea.NewProgram(m, tea.WithAltScreen())
	a.teaProgram = p

	// Seed the UI with the initial run's result.
	go func() {
		if result := a.LastResult(); result != nil {
			p.Send(updateMsg{result: result})
		}
	}()

	_, err := p.Run()
	return err
}

// ObservabilityServer serves /metrics and /health while the process
// runs in watch mode.
type ObservabilityServer struct {
	addr   string
	app    *App
	server *http.Server
}

func NewObservabilityServer(addr string, app *App) *ObservabilityServer {
	return &ObservabilityServer{addr: addr, app: app}
}

type healthStatus struct {
	Status     string    `json:"status"`
	LastRunID  string    `json:"lastRunId,omitempty"`
	LastRunAt  time.Time `json:"lastRunAt,omitempty"`
	Operations int       `json:"operations"`
}

func (s *ObservabilityServer) Start() {
	mux := http.NewServeMux()

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	// Health check: up once at least one run has completed.
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := healthStatus{Status: "starting"}
		if result := s.app.LastResult(); result != nil {
			status = healthStatus{
				Status:     "up",
				LastRunID:  result.RunID,
				LastRunAt:  result.StartedAt,
				Operations: len(result.Operations),
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if status.Status != "up" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(status)
	})

	s.server = &http.Server{
		Addr:    s.addr,
		Handler: mux,
	}

	slog.Info("observability server starting", "addr", s.addr)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("observability server failed", "error", err)
		}
	}()
}

func (s *ObservabilityServer) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
