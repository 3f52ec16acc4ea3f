package extraction

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/spendview/spendview/internal/domain"
)

// DefaultModelName is the Gemini model used for statement parsing.
const DefaultModelName = "gemini-2.5-flash"

// ModelParser produces a free-form response that should contain the JSON
// object consumed by ValidateModelResponse. The interface enables mocking in
// tests and swapping the model provider.
type ModelParser interface {
	ParseStatement(ctx context.Context, rawText string, categories domain.CategorySet) (string, error)
}

// GeminiParser is the ModelParser implementation backed by Gemini.
type GeminiParser struct {
	model string
}

// NewGeminiParser creates a Gemini-backed statement parser. An empty model
// name selects DefaultModelName.
func NewGeminiParser(model string) *GeminiParser {
	if model == "" {
		model = DefaultModelName
	}
	return &GeminiParser{model: model}
}

// ParseStatement sends the statement text to Gemini and returns the raw
// response text. No JSON validation happens here; the response goes through
// ValidateModelResponse, which tolerates fences and surrounding prose.
func (p *GeminiParser) ParseStatement(ctx context.Context, rawText string, categories domain.CategorySet) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return "", fmt.Errorf("ParseStatement: create genai client: %w", err)
	}

	prompt := buildStatementPrompt(rawText, categories)

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, p.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("ParseStatement: generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("ParseStatement: empty response from model")
	}

	return text, nil
}
