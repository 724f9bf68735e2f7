package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shelfmetrics/enrich-cli/internal/model"
	"github.com/shelfmetrics/enrich-cli/internal/research"
	"github.com/shelfmetrics/enrich-cli/internal/seed"
	"github.com/shelfmetrics/enrich-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for research requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		api := newAPIServer(ctx, st, cfg.BudgetFor, cfg.Research.Locale,
			func(runCtx context.Context, id model.Identity, mode model.Mode, locale string, budget model.Budget) research.RunResult {
				return buildOrchestrator(budget, locale).Run(runCtx, id, mode, locale, budget)
			})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           api.routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// runStarter executes one research run synchronously.
type runStarter func(ctx context.Context, id model.Identity, mode model.Mode, locale string, budget model.Budget) research.RunResult

// apiServer exposes research runs over HTTP. Runs accepted via POST are
// executed asynchronously on baseCtx so an in-flight run outlives its
// originating request.
type apiServer struct {
	baseCtx   context.Context
	store     store.Store
	budgetFor func(model.Mode, bool) (model.Budget, error)
	locale    string
	run       runStarter
}

func newAPIServer(baseCtx context.Context, st store.Store, budgetFor func(model.Mode, bool) (model.Budget, error), locale string, run runStarter) *apiServer {
	return &apiServer{
		baseCtx:   baseCtx,
		store:     st,
		budgetFor: budgetFor,
		locale:    locale,
		run:       run,
	}
}

func (s *apiServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/research", s.handleResearch)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
	})
	return r
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type researchRequest struct {
	Query         string `json:"query"`
	Mode          string `json:"mode"`
	Locale        string `json:"locale"`
	StrictSources bool   `json:"strict_sources"`
}

func (s *apiServer) handleResearch(w http.ResponseWriter, r *http.Request) {
	var req researchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeJSONError(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.Mode == "" {
		req.Mode = string(model.ModeStandard)
	}

	mode := model.Mode(req.Mode)
	budget, err := s.budgetFor(mode, req.StrictSources)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "unknown mode: "+req.Mode)
		return
	}
	locale := req.Locale
	if locale == "" {
		locale = s.locale
	}

	run, err := s.store.CreateRun(r.Context(), req.Query, mode)
	if err != nil {
		zap.L().Error("failed to create run", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "failed to create run")
		return
	}

	// Run asynchronously; the result lands in the store.
	go func() {
		result := s.run(s.baseCtx, seed.Parse(req.Query), mode, locale, budget)
		if err := s.store.SaveResult(s.baseCtx, run.ID, result.Record, result.Logs, result.Status); err != nil {
			zap.L().Error("failed to persist run result",
				zap.String("run_id", run.ID),
				zap.Error(err),
			)
			return
		}
		zap.L().Info("research run complete",
			zap.String("run_id", run.ID),
			zap.String("status", string(result.Status)),
		)
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{
		"run_id": run.ID,
		"status": "accepted",
	})
}

func (s *apiServer) handleListRuns(w http.ResponseWriter, r *http.Request) {
	filter := store.RunFilter{
		Status: model.AutomationStatus(r.URL.Query().Get("status")),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSONError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSONError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		filter.Offset = n
	}

	runs, err := s.store.ListRuns(r.Context(), filter)
	if err != nil {
		zap.L().Error("failed to list runs", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *apiServer) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		writeJSONError(w, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
