package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spendview/spendview/internal/api/handlers"
	"github.com/spendview/spendview/internal/api/middleware"
	"github.com/spendview/spendview/internal/config"
	"github.com/spendview/spendview/internal/extraction"
	"github.com/spendview/spendview/internal/gcs"
	infraBQ "github.com/spendview/spendview/internal/infra/bigquery"
	"github.com/spendview/spendview/internal/jobs/inmemory"
	"github.com/spendview/spendview/internal/logger"
	"github.com/spendview/spendview/internal/worker"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if cfg.GCSBucket == "" {
		log.Warn().Msg("No GCS bucket configured, statement uploads will fail")
	}

	ctx := logger.WithContext(context.Background(), log)

	classifier, err := cfg.NewClassifier()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build classifier")
	}
	pipeline := extraction.NewPipeline(classifier, cfg.Categories)
	pipeline.Dedupe = cfg.Dedupe

	repo, err := infraBQ.NewRepository(ctx, cfg.ProjectID, cfg.Dataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create warehouse repository")
	}
	defer repo.Close()

	storage, err := gcs.NewClient(ctx, cfg.GCSBucket)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create storage client")
	}
	defer storage.Close()

	var model extraction.ModelParser
	if cfg.GeminiAPIKey != "" {
		model = extraction.NewGeminiParser("")
	}

	processor := &worker.Processor{
		Storage:  storage,
		Repo:     repo,
		Pipeline: pipeline,
		Model:    model,
	}

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, cfg.Workers, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	go func() {
		log.Info().Int("workers", cfg.Workers).Msg("Starting embedded job workers")
		if err := jobQueue.Start(workerCtx, processor.Handle); err != nil {
			log.Error().Err(err).Msg("Job workers stopped with error")
		}
	}()

	extractHandler := handlers.NewExtractHandler(pipeline, log)
	statementsHandler := handlers.NewStatementsHandler(repo, storage, jobQueue, log)
	transactionsHandler := handlers.NewTransactionsHandler(repo, log)
	categoriesHandler := handlers.NewCategoriesHandler(cfg.Categories)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/extract", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			extractHandler.Extract(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/statements", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			statementsHandler.Upload(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			transactionsHandler.List(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/categories", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			categoriesHandler.List(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.List(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
		if jobID == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
			return
		}
		jobsHandler.Get(w, r, jobID)
	})

	mux.HandleFunc("/healthz", handlers.Health)

	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(log)(
				middleware.CORS(mux),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Server exited")
}
