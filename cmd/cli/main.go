package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/spendview/spendview/internal/config"
	"github.com/spendview/spendview/internal/extraction"
	"github.com/spendview/spendview/internal/extractor"
	"github.com/spendview/spendview/internal/gcs"
	infraBQ "github.com/spendview/spendview/internal/infra/bigquery"
	"github.com/spendview/spendview/internal/jobs"
	"github.com/spendview/spendview/internal/logger"
	"github.com/spendview/spendview/internal/notionsync"
	"github.com/spendview/spendview/internal/worker"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "extract":
		runExtract(log)
	case "classify":
		runClassify(log)
	case "upload":
		runUpload(log)
	case "ingest":
		runIngest(log)
	case "sync-notion":
		runSyncNotion(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Spendview CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  extract      Extract transactions from a local statement and print JSON")
	fmt.Println("  classify     Classify a single transaction description")
	fmt.Println("  upload       Upload a statement PDF to GCS and record it")
	fmt.Println("  ingest       Extract a statement from GCS and persist the results")
	fmt.Println("  sync-notion  Push persisted transactions to a Notion database")
	fmt.Println("  help         Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func loadConfig(log zerolog.Logger) *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	return cfg
}

func newPipeline(cfg *config.Config, log zerolog.Logger) *extraction.Pipeline {
	classifier, err := cfg.NewClassifier()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build classifier")
	}
	p := extraction.NewPipeline(classifier, cfg.Categories)
	p.Dedupe = cfg.Dedupe
	return p
}

// runExtract processes a local statement without touching GCS or BigQuery.
// PDF input goes through text extraction first; anything else is read as
// plain text.
func runExtract(log zerolog.Logger) {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	filePath := fs.String("file", "", "Path to a statement PDF or text file")
	useModel := fs.Bool("model", false, "Use the Gemini parsing path")
	fs.Parse(os.Args[2:])

	if *filePath == "" {
		log.Fatal().Msg("Error: --file is required")
	}

	cfg := loadConfig(log)
	pipeline := newPipeline(cfg, log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	var rawText string
	if strings.EqualFold(filepath.Ext(*filePath), ".pdf") {
		text, err := extractor.Text(*filePath)
		if err != nil {
			log.Fatal().Err(err).Msg("PDF text extraction failed")
		}
		rawText = text
	} else {
		data, err := os.ReadFile(*filePath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read statement file")
		}
		rawText = string(data)
	}

	result, err := pipeline.ProcessText(ctx, rawText)
	if *useModel {
		if cfg.GeminiAPIKey == "" {
			log.Fatal().Msg("Error: --model requires GEMINI_API_KEY")
		}
		parser := extraction.NewGeminiParser("")
		response, mErr := parser.ParseStatement(ctx, rawText, cfg.Categories)
		if mErr != nil {
			log.Fatal().Err(mErr).Msg("Model parsing failed")
		}
		result, err = pipeline.ProcessModelResponse(ctx, response)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Extraction failed")
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to encode result")
	}
	fmt.Println(string(out))
}

// runClassify runs the keyword classifier over a single description, for
// checking how a merchant would be categorized with the active training set.
func runClassify(log zerolog.Logger) {
	fs := flag.NewFlagSet("classify", flag.ExitOnError)
	description := fs.String("description", "", "Transaction description to classify")
	fs.Parse(os.Args[2:])

	if *description == "" {
		log.Fatal().Msg("Error: --description is required")
	}

	cfg := loadConfig(log)
	classifier, err := cfg.NewClassifier()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build classifier")
	}

	c := classifier.Classify(*description)

	out, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to encode classification")
	}
	fmt.Println(string(out))
}

func runUpload(log zerolog.Logger) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	filePath := fs.String("file", "", "Path to local PDF file")
	objectName := fs.String("object", "", "GCS object name (defaults to filename)")
	fs.Parse(os.Args[2:])

	if *filePath == "" {
		log.Fatal().Msg("Usage: cli upload -file PATH [-object NAME]")
	}

	cfg := loadConfig(log)
	if cfg.GCSBucket == "" {
		log.Fatal().Msg("Error: GCS_BUCKET is not configured")
	}

	statementID := uuid.NewString()
	filename := filepath.Base(*filePath)
	if *objectName == "" {
		*objectName = fmt.Sprintf("statements/%s/%s-%s", time.Now().Format("2006/01"), statementID, filename)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	storage, err := gcs.NewClient(ctx, cfg.GCSBucket)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create storage client")
	}
	defer storage.Close()

	uri, err := storage.Upload(ctx, *objectName, *filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	repo, err := infraBQ.NewRepository(ctx, cfg.ProjectID, cfg.Dataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create warehouse repository")
	}
	defer repo.Close()

	row := &infraBQ.StatementRow{
		StatementID:      statementID,
		GCSURI:           uri,
		OriginalFilename: filename,
		UploadTS:         time.Now(),
	}
	if err := repo.InsertStatement(ctx, row); err != nil {
		log.Fatal().Err(err).Msg("Failed to record statement")
	}

	fmt.Printf("Uploaded %s\n", uri)
	fmt.Printf("Statement ID: %s\n", statementID)
}

func runIngest(log zerolog.Logger) {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	gcsURI := fs.String("gcs-uri", "", "GCS URI of the statement PDF")
	statementID := fs.String("statement-id", "", "Statement ID (defaults to a new ID)")
	useModel := fs.Bool("model", false, "Use the Gemini parsing path")
	fs.Parse(os.Args[2:])

	if *gcsURI == "" {
		log.Fatal().Msg("Error: --gcs-uri is required")
	}
	if *statementID == "" {
		*statementID = uuid.NewString()
	}

	cfg := loadConfig(log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

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
		Pipeline: newPipeline(cfg, log),
		Model:    model,
	}

	job := &jobs.ExtractStatementJob{
		JobID:       uuid.NewString(),
		StatementID: *statementID,
		GCSURI:      *gcsURI,
		UseModel:    *useModel,
	}
	if err := processor.Process(ctx, job); err != nil {
		log.Fatal().Err(err).Msg("Ingestion failed")
	}

	fmt.Println("Ingestion completed successfully.")
	fmt.Printf("Run ID: %s\n", job.RunID)
}

func runSyncNotion(log zerolog.Logger) {
	fs := flag.NewFlagSet("sync-notion", flag.ExitOnError)
	startStr := fs.String("start", "", "Start date YYYY-MM-DD (defaults to one year ago)")
	endStr := fs.String("end", "", "End date YYYY-MM-DD (defaults to today)")
	runID := fs.String("run-id", "", "Also sync category totals for this extraction run")
	dryRun := fs.Bool("dry-run", false, "Log planned changes without writing to Notion")
	fs.Parse(os.Args[2:])

	cfg := loadConfig(log)
	if cfg.NotionToken == "" || cfg.NotionDatabaseID == "" {
		log.Fatal().Msg("Error: NOTION_TOKEN and NOTION_DATABASE_ID are required")
	}

	start := time.Now().AddDate(-1, 0, 0)
	end := time.Now()
	var err error
	if *startStr != "" {
		if start, err = time.Parse("2006-01-02", *startStr); err != nil {
			log.Fatal().Err(err).Msg("Invalid --start date")
		}
	}
	if *endStr != "" {
		if end, err = time.Parse("2006-01-02", *endStr); err != nil {
			log.Fatal().Err(err).Msg("Invalid --end date")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	repo, err := infraBQ.NewRepository(ctx, cfg.ProjectID, cfg.Dataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create warehouse repository")
	}
	defer repo.Close()

	notion := notionsync.NewNotionClient(cfg.NotionToken)

	if err := notionsync.SyncTransactions(ctx, repo, notion, cfg.NotionDatabaseID, start, end, *dryRun); err != nil {
		log.Fatal().Err(err).Msg("Transaction sync failed")
	}
	if *runID != "" {
		if err := notionsync.SyncCategoryTotals(ctx, repo, notion, cfg.NotionDatabaseID, *runID, *dryRun); err != nil {
			log.Fatal().Err(err).Msg("Category total sync failed")
		}
	}

	fmt.Println("Notion sync completed.")
}
