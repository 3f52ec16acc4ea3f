package extraction

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spendview/spendview/internal/domain"
)

// Scoring weights for the keyword classifier. A score of strongMatchScore is
// treated as a fully confident match when scaling into [0,1].
const (
	exactMatchScore   = 0.9
	keywordMatchScore = 0.7
	partialMatchScore = 0.3
	strongMatchScore  = 2.0

	// minPartialTokenLen keeps trivially short description tokens ("a",
	// "to") from producing partial matches against every keyword.
	minPartialTokenLen = 3

	maxReasons = 3
)

// TrainingExample is one (example phrase, category, keyword set) tuple used
// by the classifier to score candidate descriptions.
type TrainingExample struct {
	Phrase   string   `yaml:"phrase"`
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

// Classifier maps a cleaned transaction description to a category plus a
// confidence score using weighted keyword matching against a training table.
//
// The table is iterated in declaration order, so results are reproducible:
// ties favor whichever category was scored first. The table is append-only
// and guarded by a read-write lock, so classification may run concurrently
// with AddTrainingExample.
type Classifier struct {
	mu       sync.RWMutex
	examples []TrainingExample
	catchAll string
}

// NewClassifier builds a classifier over the given training table. catchAll
// is the category returned when nothing matches.
func NewClassifier(examples []TrainingExample, catchAll string) *Classifier {
	table := make([]TrainingExample, len(examples))
	copy(table, examples)
	return &Classifier{examples: table, catchAll: catchAll}
}

// NewDefaultClassifier builds a classifier over the built-in training table
// with the standard catch-all category.
func NewDefaultClassifier() *Classifier {
	return NewClassifier(defaultTrainingTable, domain.CatchAllCategory)
}

// AddTrainingExample appends an entry to the live table. The mutation lasts
// for the lifetime of the classifier, not a single request.
func (c *Classifier) AddTrainingExample(example TrainingExample) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.examples = append(c.examples, example)
}

// Classify scores description against every training entry and returns the
// winning category with a confidence in [0,1].
//
// Confidence is min(score/2, 1) with a deliberate floor applied afterwards:
// values above 0.5 are raised to at least 0.7, everything else to at least
// 0.4. The floor smooths very low scores away from end users while keeping
// relative certainty; it is intentional, not a scaling artifact.
func (c *Classifier) Classify(description string) domain.Classification {
	c.mu.RLock()
	defer c.mu.RUnlock()

	desc := strings.ToLower(strings.Join(strings.Fields(description), " "))
	tokens := partialTokens(desc)

	scores := make(map[string]float64)
	reasons := make(map[string][]string)
	var order []string // categories in first-scored order, for tie-breaking

	for _, entry := range c.examples {
		score, why := scoreEntry(entry, desc, tokens)
		if score == 0 {
			continue
		}
		if _, seen := scores[entry.Category]; !seen {
			order = append(order, entry.Category)
		}
		scores[entry.Category] += score
		reasons[entry.Category] = append(reasons[entry.Category], why...)
	}

	winner := ""
	best := 0.0
	for _, category := range order {
		if scores[category] > best {
			best = scores[category]
			winner = category
		}
	}

	if winner == "" {
		return domain.Classification{Category: c.catchAll, Confidence: floorConfidence(0)}
	}

	why := reasons[winner]
	if len(why) > maxReasons {
		why = why[:maxReasons]
	}

	return domain.Classification{
		Category:   winner,
		Confidence: floorConfidence(best / strongMatchScore),
		Reasoning:  why,
	}
}

// ClassifyBatch applies Classify to each description independently,
// preserving order.
func (c *Classifier) ClassifyBatch(descriptions []string) []domain.Classification {
	results := make([]domain.Classification, len(descriptions))
	for i, d := range descriptions {
		results[i] = c.Classify(d)
	}
	return results
}

func scoreEntry(entry TrainingExample, desc string, tokens []string) (float64, []string) {
	var score float64
	var why []string

	phrase := strings.ToLower(entry.Phrase)
	if phrase != "" && strings.Contains(desc, phrase) {
		score += exactMatchScore
		why = append(why, fmt.Sprintf("exact match: %q", entry.Phrase))
	}

	for _, keyword := range entry.Keywords {
		kw := strings.ToLower(keyword)
		if kw == "" {
			continue
		}
		if strings.Contains(desc, kw) {
			score += keywordMatchScore
			why = append(why, fmt.Sprintf("keyword: %q", keyword))
			continue
		}
		for _, token := range tokens {
			if strings.Contains(kw, token) || strings.Contains(token, kw) {
				score += partialMatchScore
				why = append(why, fmt.Sprintf("partial match: %q ~ %q", token, keyword))
				break
			}
		}
	}

	return score, why
}

func partialTokens(desc string) []string {
	var tokens []string
	for _, tok := range strings.Fields(desc) {
		if len(tok) >= minPartialTokenLen {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

func floorConfidence(raw float64) float64 {
	if raw > 1 {
		raw = 1
	}
	if raw > 0.5 {
		if raw < 0.7 {
			return 0.7
		}
		return raw
	}
	if raw < 0.4 {
		return 0.4
	}
	return raw
}
