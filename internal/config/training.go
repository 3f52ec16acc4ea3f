package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/spendview/spendview/internal/extraction"
)

// trainingFile is the YAML shape of a classifier training table:
//
//	examples:
//	  - phrase: safeway
//	    category: Groceries
//	    keywords: [safeway, grocery]
type trainingFile struct {
	Examples []extraction.TrainingExample `yaml:"examples"`
}

// LoadTrainingExamples reads extra classifier training examples from a YAML
// file. Entries without a phrase or category are rejected rather than
// silently skipped, since a broken table degrades every classification.
func LoadTrainingExamples(path string) ([]extraction.TrainingExample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read training file: %w", err)
	}

	var file trainingFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse training file %s: %w", path, err)
	}

	for i, ex := range file.Examples {
		if ex.Phrase == "" || ex.Category == "" {
			return nil, fmt.Errorf("training file %s: example %d missing phrase or category", path, i+1)
		}
	}
	return file.Examples, nil
}

// NewClassifier builds the classifier from the built-in table plus the
// configured training file, when one is set.
func (c *Config) NewClassifier() (*extraction.Classifier, error) {
	classifier := extraction.NewDefaultClassifier()
	if c.TrainingFile == "" {
		return classifier, nil
	}

	examples, err := LoadTrainingExamples(c.TrainingFile)
	if err != nil {
		return nil, err
	}
	for _, ex := range examples {
		classifier.AddTrainingExample(ex)
	}
	return classifier, nil
}
