package extraction

import (
	"regexp"
	"strings"
)

// boilerplatePrefixes are bank-statement noise tokens stripped from the front
// of a description. They carry no semantic content about the merchant.
var boilerplatePrefixes = []string{
	"Contactless Interac purchase",
	"Visa Debit purchase",
	"Online Banking payment",
	"Transfer sent",
	"Payroll Deposit",
	"e:",
}

// trailingRefPattern matches a reference-number suffix: a run of exactly four
// digits at the end of the description, separated by whitespace or a '#'.
var trailingRefPattern = regexp.MustCompile(`(?:\s+#?|#)\d{4}$`)

// CleanDescription collapses whitespace, strips known boilerplate prefixes
// and a trailing 4-digit reference number. It never returns an empty string
// for non-empty input: if stripping would destroy all content, the
// whitespace-collapsed original is returned instead.
func CleanDescription(raw string) string {
	original := strings.Join(strings.Fields(raw), " ")
	cleaned := original

	for _, prefix := range boilerplatePrefixes {
		if len(cleaned) >= len(prefix) && strings.EqualFold(cleaned[:len(prefix)], prefix) {
			cleaned = strings.TrimSpace(cleaned[len(prefix):])
		}
	}

	cleaned = strings.TrimSpace(trailingRefPattern.ReplaceAllString(cleaned, ""))

	if cleaned == "" {
		return original
	}
	return cleaned
}
