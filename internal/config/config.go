package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/spendview/spendview/internal/domain"
)

// Config carries the process-level settings shared by the API, worker and
// CLI entry points. Values come from the environment, with a .env file
// loaded first when present.
type Config struct {
	Port string

	// GCSBucket receives uploaded statement documents.
	GCSBucket string

	// BigQuery warehouse coordinates.
	ProjectID string
	Dataset   string

	// GeminiAPIKey enables the model-backed extraction path when set.
	GeminiAPIKey string

	// Notion export settings.
	NotionToken      string
	NotionDatabaseID string

	// Workers is the job queue consumer count.
	Workers int

	// Dedupe enables the duplicate-record stage on the local parsing path.
	Dedupe bool

	// TrainingFile optionally extends the built-in classifier table.
	TrainingFile string

	// Categories is the active category set.
	Categories domain.CategorySet
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first; its absence is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:             envOr("PORT", "8080"),
		GCSBucket:        os.Getenv("GCS_BUCKET"),
		ProjectID:        os.Getenv("BIGQUERY_PROJECT"),
		Dataset:          envOr("BIGQUERY_DATASET", "spending"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		NotionToken:      os.Getenv("NOTION_TOKEN"),
		NotionDatabaseID: os.Getenv("NOTION_DATABASE_ID"),
		TrainingFile:     os.Getenv("TRAINING_FILE"),
		Categories:       domain.NewCategorySet(domain.DefaultCategories...),
	}

	workers, err := envInt("WORKERS", 4)
	if err != nil {
		return nil, err
	}
	cfg.Workers = workers

	dedupe, err := envBool("DEDUPE", false)
	if err != nil {
		return nil, err
	}
	cfg.Dedupe = dedupe

	if names := os.Getenv("CATEGORIES"); names != "" {
		cfg.Categories = domain.NewCategorySet(splitList(names)...)
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q is not an integer: %w", key, v, err)
	}
	return n, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: %s=%q is not a boolean: %w", key, v, err)
	}
	return b, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
