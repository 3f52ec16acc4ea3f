package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "WORKERS", "DEDUPE", "CATEGORIES", "BIGQUERY_DATASET"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Workers)
	}
	if cfg.Dedupe {
		t.Error("Dedupe = true, want false by default")
	}
	if cfg.Dataset != "spending" {
		t.Errorf("Dataset = %q, want spending", cfg.Dataset)
	}
	if !cfg.Categories.Contains("Miscellaneous") {
		t.Error("default categories missing the catch-all")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("WORKERS", "2")
	t.Setenv("DEDUPE", "true")
	t.Setenv("CATEGORIES", "Food, Travel")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9000" || cfg.Workers != 2 || !cfg.Dedupe {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if !cfg.Categories.Contains("Food") || !cfg.Categories.Contains("Travel") {
		t.Error("custom categories not loaded")
	}
	if !cfg.Categories.Contains("Miscellaneous") {
		t.Error("catch-all not appended to custom categories")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("WORKERS", "many")
	if _, err := Load(); err == nil {
		t.Error("expected error for non-integer WORKERS")
	}

	t.Setenv("WORKERS", "4")
	t.Setenv("DEDUPE", "maybe")
	if _, err := Load(); err == nil {
		t.Error("expected error for non-boolean DEDUPE")
	}
}

func TestLoadTrainingExamples(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "training.yaml")
	content := `examples:
  - phrase: local market
    category: Groceries
    keywords: [market, produce]
  - phrase: transit pass
    category: Living Expenses
    keywords: [transit]
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	examples, err := LoadTrainingExamples(path)
	if err != nil {
		t.Fatalf("LoadTrainingExamples: %v", err)
	}
	if len(examples) != 2 {
		t.Fatalf("got %d examples, want 2", len(examples))
	}
	if examples[0].Phrase != "local market" || examples[0].Category != "Groceries" {
		t.Errorf("unexpected first example: %+v", examples[0])
	}
	if len(examples[1].Keywords) != 1 || examples[1].Keywords[0] != "transit" {
		t.Errorf("unexpected keywords: %v", examples[1].Keywords)
	}
}

func TestLoadTrainingExamplesRejectsIncomplete(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "training.yaml")
	content := `examples:
  - phrase: local market
    keywords: [market]
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadTrainingExamples(path); err == nil {
		t.Error("expected error for example missing category")
	}
}

func TestNewClassifierWithTrainingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "training.yaml")
	content := `examples:
  - phrase: quantum gym
    category: Entertainment
    keywords: [gym]
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{TrainingFile: path}
	classifier, err := cfg.NewClassifier()
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}

	got := classifier.Classify("QUANTUM GYM MEMBERSHIP")
	if got.Category != "Entertainment" {
		t.Errorf("Category = %q, want Entertainment from training file", got.Category)
	}
}
