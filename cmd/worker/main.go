package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

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

	ctx, cancel := context.WithCancel(logger.WithContext(context.Background(), log))
	defer cancel()

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

	// In-process queue only. A multi-instance deployment would swap this
	// for Cloud Tasks or Pub/Sub behind the same interfaces.
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, cfg.Workers, jobStore)

	if err := jobQueue.Start(ctx, processor.Handle); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	log.Info().Int("workers", cfg.Workers).Msg("Worker service started, waiting for jobs...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}
	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Worker service exited")
}
