package extraction

import "errors"

var (
	// ErrEmptyInput is returned when the statement text is empty or
	// whitespace-only. Fatal to the current request, never retried here.
	ErrEmptyInput = errors.New("extraction: empty input text")

	// ErrModelResponse is returned when no valid JSON object could be
	// extracted from a model response. Callers may recover by falling back
	// to local line parsing or by re-prompting; this package does not retry.
	ErrModelResponse = errors.New("extraction: no valid JSON in model response")
)
