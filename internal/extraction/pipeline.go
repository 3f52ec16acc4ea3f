package extraction

import (
	"context"
	"fmt"
	"strings"

	"github.com/spendview/spendview/internal/domain"
	"github.com/spendview/spendview/internal/logger"
)

// Step is a single stage of the extraction pipeline.
type Step interface {
	Execute(ctx context.Context, state *State) error
}

// State holds the shared state across pipeline steps for one input.
type State struct {
	RawText    string
	Response   string
	Categories domain.CategorySet

	Records      []domain.RawTransaction
	Transactions []domain.Transaction
	Result       *domain.Result
}

// Pipeline turns raw statement text, or an external model's response, into
// classified expense transactions plus their aggregation. Every call is a
// pure function of its input and category configuration, modulo the
// classifier's append-only training table.
type Pipeline struct {
	Parser     *LineParser
	Classifier *Classifier
	Categories domain.CategorySet

	// Dedupe enables the optional duplicate-record stage on the local
	// parsing path.
	Dedupe bool
}

// NewPipeline builds a pipeline over the given classifier and category set.
func NewPipeline(classifier *Classifier, categories domain.CategorySet) *Pipeline {
	return &Pipeline{
		Parser:     &LineParser{},
		Classifier: classifier,
		Categories: categories,
	}
}

// ProcessText runs the local line-based extraction path:
// parse -> expense filter -> (dedupe) -> classify -> aggregate.
func (p *Pipeline) ProcessText(ctx context.Context, rawText string) (*domain.Result, error) {
	if strings.TrimSpace(rawText) == "" {
		return nil, ErrEmptyInput
	}

	steps := []Step{
		&parseLinesStep{parser: p.Parser},
		&filterExpensesStep{},
	}
	if p.Dedupe {
		steps = append(steps, &deduplicateStep{})
	}
	steps = append(steps,
		&classifyStep{classifier: p.Classifier},
		&aggregateStep{},
	)

	state := &State{RawText: rawText, Categories: p.Categories}
	if err := execute(ctx, steps, state); err != nil {
		return nil, err
	}
	return state.Result, nil
}

// ProcessModelResponse runs the external-model path: the response already
// carries categories and confidences, so no classification step is applied.
func (p *Pipeline) ProcessModelResponse(ctx context.Context, response string) (*domain.Result, error) {
	if strings.TrimSpace(response) == "" {
		return nil, ErrEmptyInput
	}

	steps := []Step{
		&validateResponseStep{},
		&aggregateStep{},
	}

	state := &State{Response: response, Categories: p.Categories}
	if err := execute(ctx, steps, state); err != nil {
		return nil, err
	}
	return state.Result, nil
}

func execute(ctx context.Context, steps []Step, state *State) error {
	for i, step := range steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d: %w", i+1, err)
		}
	}
	return nil
}

// parseLinesStep splits the raw text into candidate records.
type parseLinesStep struct {
	parser *LineParser
}

func (s *parseLinesStep) Execute(ctx context.Context, state *State) error {
	state.Records = s.parser.Parse(state.RawText)

	log := logger.FromContext(ctx)
	log.Debug().
		Int("records", len(state.Records)).
		Msg("Parsed statement lines")
	return nil
}

// filterExpensesStep enforces the expense-only invariant: credit-interpreted
// records (amount >= 0) are excluded from the batch.
type filterExpensesStep struct{}

func (s *filterExpensesStep) Execute(ctx context.Context, state *State) error {
	kept := state.Records[:0]
	for _, r := range state.Records {
		if r.Amount < 0 {
			kept = append(kept, r)
		}
	}

	if dropped := len(state.Records) - len(kept); dropped > 0 {
		log := logger.FromContext(ctx)
		log.Debug().
			Int("dropped", dropped).
			Msg("Excluded non-expense records")
	}
	state.Records = kept
	return nil
}

// deduplicateStep drops repeated records; see Deduplicate.
type deduplicateStep struct{}

func (s *deduplicateStep) Execute(ctx context.Context, state *State) error {
	before := len(state.Records)
	state.Records = Deduplicate(state.Records)

	if dropped := before - len(state.Records); dropped > 0 {
		log := logger.FromContext(ctx)
		log.Debug().
			Int("dropped", dropped).
			Msg("Removed duplicate records")
	}
	return nil
}

// classifyStep assigns a category and confidence to every surviving record.
type classifyStep struct {
	classifier *Classifier
}

func (s *classifyStep) Execute(ctx context.Context, state *State) error {
	state.Transactions = make([]domain.Transaction, 0, len(state.Records))
	for i, r := range state.Records {
		c := s.classifier.Classify(r.Description)
		state.Transactions = append(state.Transactions, domain.Transaction{
			ID:          fmt.Sprintf("txn_%03d", i+1),
			Date:        r.Date,
			Description: r.Description,
			Amount:      r.Amount,
			Category:    state.Categories.Canonical(c.Category),
			Confidence:  c.Confidence,
		})
	}
	return nil
}

// validateResponseStep parses and validates an external model response.
type validateResponseStep struct{}

func (s *validateResponseStep) Execute(ctx context.Context, state *State) error {
	transactions, err := ValidateModelResponse(state.Response, state.Categories)
	if err != nil {
		return err
	}

	log := logger.FromContext(ctx)
	log.Debug().
		Int("transactions", len(transactions)).
		Msg("Validated model response")
	state.Transactions = transactions
	return nil
}

// aggregateStep computes the batch total and per-category summary.
type aggregateStep struct{}

func (s *aggregateStep) Execute(ctx context.Context, state *State) error {
	total, summary := Aggregate(state.Transactions, state.Categories)
	state.Result = &domain.Result{
		Transactions: state.Transactions,
		TotalAmount:  total,
		Summary:      summary,
	}
	return nil
}
