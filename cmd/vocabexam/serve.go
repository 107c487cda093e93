package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/p-n-ai/pai-vocab/internal/bot"
	"github.com/p-n-ai/pai-vocab/internal/lexicon"
	"github.com/p-n-ai/pai-vocab/internal/reading"
	"github.com/p-n-ai/pai-vocab/internal/scheduler"
)

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "serve",
		Short:       "Run the daily scheduler, the chat bot and the health endpoints",
		Annotations: map[string]string{annotationDelivers: "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()
			return c.serve(ctx)
		},
	}
}

func (c *cli) serve(ctx context.Context) error {
	cfg := c.cfg

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	daily, err := scheduler.NewDaily(cfg.Schedule.At, loc)
	if err != nil {
		return err
	}

	a, err := build(ctx, cfg, buildOptions{delivery: true})
	if err != nil {
		return err
	}
	defer a.Close()

	engineCfg := bot.EngineConfig{Exams: a.runner, Location: loc}
	if cfg.HasAIProvider() {
		engineCfg.Definer = lexicon.NewDefiner(newAIRouter(cfg.AI))
	} else {
		slog.Warn("no AI provider configured, word lookups disabled")
	}
	if store := a.appender(); store != nil {
		engineCfg.Store = store
	}
	engine := bot.NewEngine(engineCfg)

	var (
		morning       *scheduler.Daily
		readingRunner *reading.Runner
	)
	if cfg.Reading.Enabled {
		if morning, err = scheduler.NewDaily(cfg.Reading.At, loc); err != nil {
			return err
		}
		if readingRunner, err = newReadingRunner(cfg, a.gateway, ""); err != nil {
			return err
		}
	}

	if err := a.gateway.StartAll(ctx, bot.Handler(ctx, engine, a.gateway)); err != nil {
		return err
	}
	defer a.gateway.StopAll()

	var checks []readinessCheck
	if a.db != nil {
		checks = append(checks, readinessCheck{Name: "database", Check: a.db.HealthCheck})
	}
	if a.cache != nil {
		checks = append(checks, readinessCheck{Name: "cache", Check: a.cache.HealthCheck})
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      newMux(checks...),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	go daily.Run(ctx, func(ctx context.Context, day time.Time) error {
		_, err := a.runner.Run(ctx, day, false)
		return err
	})

	if readingRunner != nil {
		go morning.Run(ctx, func(ctx context.Context, day time.Time) error {
			_, err := readingRunner.Run(ctx, day)
			return err
		})
	}

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		return fmt.Errorf("http server: %w", err)
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	return nil
}

// readinessCheck is a named dependency checked by /readyz.
type readinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// newMux creates the HTTP router with health check endpoints.
func newMux(checks ...readinessCheck) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", handleReadyz(checks))
	return mux
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleReadyz(checks []readinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		failed := map[string]string{}
		for _, c := range checks {
			if err := c.Check(ctx); err != nil {
				failed[c.Name] = err.Error()
			}
		}
		if len(failed) > 0 {
			slog.Warn("readiness check failed", "failed", failed)
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "failed": failed})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("writing response failed", "error", err)
	}
}
