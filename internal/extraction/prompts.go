package extraction

import (
	"strings"

	"github.com/spendview/spendview/internal/domain"
)

// buildStatementPrompt constructs the instruction block sent to the model
// together with the raw statement text. The category list is embedded so the
// model only emits names the validator will accept.
func buildStatementPrompt(rawText string, categories domain.CategorySet) string {
	var b strings.Builder

	b.WriteString("You are a bank statement parser for personal expense tracking.\n\n")
	b.WriteString("Task:\n")
	b.WriteString("- Extract ALL expense transactions from the statement text below.\n")
	b.WriteString("- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n")
	b.WriteString("- Output a single JSON object: {\"transactions\": [...]}.\n\n")

	b.WriteString("Each array element must have these fields:\n")
	b.WriteString("- \"id\": string (optional, e.g. \"txn_001\")\n")
	b.WriteString("- \"date\": string, ISO format \"YYYY-MM-DD\"\n")
	b.WriteString("- \"description\": string, the merchant or activity\n")
	b.WriteString("- \"amount\": number (negative for expenses)\n")
	b.WriteString("- \"category\": string, EXACTLY one of the categories below\n")
	b.WriteString("- \"confidence\": number between 0 and 1\n\n")

	b.WriteString("Use ONLY the following categories:\n")
	for _, name := range categories.Names() {
		b.WriteString("  - " + name + "\n")
	}
	b.WriteString("\nRules:\n")
	b.WriteString("- Skip deposits, transfers in, and other incoming funds.\n")
	b.WriteString("- If unsure about a category, use \"" + domain.CatchAllCategory + "\".\n")
	b.WriteString("- Do NOT wrap the response in code fences or Markdown.\n")
	b.WriteString("- Output must begin with \"{\" and end with \"}\".\n\n")

	b.WriteString("Statement text:\n")
	b.WriteString(rawText)

	return b.String()
}
