package extraction

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spendview/spendview/internal/domain"
)

// LineParser splits raw statement text into candidate transaction records
// using pattern heuristics. It is a best-effort layer: lines that do not look
// like transactions are skipped silently, never reported as errors.
type LineParser struct {
	// Year resolves short-form dates without a year ("14 Jul"). Zero means
	// the current calendar year.
	Year int
}

// Date patterns, tried in order. Short-form dates come in both "14 Jul" and
// "Jul 14" arrangements depending on the bank.
var (
	isoDatePattern   = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	slashDatePattern = regexp.MustCompile(`\b(\d{1,2}/\d{1,2}/\d{4})\b`)
	dayMonthPattern  = regexp.MustCompile(`(?i)\b(\d{1,2})\s+(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\b`)
	monthDayPattern  = regexp.MustCompile(`(?i)\b(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+(\d{1,2})\b`)
)

// amountPattern matches statement amounts like "1,234.56" or "£25.99".
// The currency symbol, when present, is consumed so it does not leak into
// the description.
var amountPattern = regexp.MustCompile(`[£$€]?\s?([\d,]+\.\d{2})`)

// debitKeywords negate an amount when they appear anywhere in the line
// remainder. This is the complete list: fee/charge lines without one of
// these default to a credit interpretation and are later excluded by the
// expense-only invariant.
var debitKeywords = []string{"withdrawal", "debit", "purchase", "payment"}

var monthNumbers = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// Parse splits rawText into lines and extracts one RawTransaction per line
// that carries a recognizable date token and a non-zero amount. Output order
// matches input line order; no deduplication is performed here.
func (p *LineParser) Parse(rawText string) []domain.RawTransaction {
	var records []domain.RawTransaction

	for i, line := range strings.Split(rawText, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || isHeaderLine(line) {
			continue
		}

		date, remainder, ok := p.extractDate(line)
		if !ok {
			continue
		}

		amount, remainder, ok := extractLastAmount(remainder)
		if !ok || amount == 0 {
			continue
		}

		if isDebitLine(remainder) {
			amount = -amount
		}

		description := CleanDescription(remainder)
		if description == "" {
			continue
		}

		records = append(records, domain.RawTransaction{
			Date:        date,
			Description: description,
			Amount:      amount,
			Line:        i + 1,
		})
	}

	return records
}

// isHeaderLine recognizes statement table headers such as
// "Date  Description  Amount  Balance".
func isHeaderLine(line string) bool {
	lower := strings.ToLower(line)
	hits := 0
	for _, token := range []string{"date", "description", "balance"} {
		if strings.Contains(lower, token) {
			hits++
		}
	}
	return hits >= 2
}

// extractDate finds the first recognizable date token, returns it in
// canonical YYYY-MM-DD form together with the line minus the token.
func (p *LineParser) extractDate(line string) (string, string, bool) {
	if m := isoDatePattern.FindStringIndex(line); m != nil {
		tok := line[m[0]:m[1]]
		if _, err := time.Parse("2006-01-02", tok); err != nil {
			return "", "", false
		}
		return tok, cutSpan(line, m), true
	}

	if m := slashDatePattern.FindStringIndex(line); m != nil {
		tok := line[m[0]:m[1]]
		t, err := time.Parse("1/2/2006", tok) // MM/DD/YYYY
		if err != nil {
			return "", "", false
		}
		return t.Format("2006-01-02"), cutSpan(line, m), true
	}

	if m := dayMonthPattern.FindStringSubmatchIndex(line); m != nil {
		day, _ := strconv.Atoi(line[m[2]:m[3]])
		month := monthNumbers[strings.ToLower(line[m[4]:m[5]])]
		return p.shortDate(line, m, month, day)
	}

	if m := monthDayPattern.FindStringSubmatchIndex(line); m != nil {
		month := monthNumbers[strings.ToLower(line[m[2]:m[3]])]
		day, _ := strconv.Atoi(line[m[4]:m[5]])
		return p.shortDate(line, m, month, day)
	}

	return "", "", false
}

// shortDate resolves a year-less date against the configured year. Ambiguity
// near year boundaries is accepted as a known limitation of the heuristic.
func (p *LineParser) shortDate(line string, m []int, month time.Month, day int) (string, string, bool) {
	year := p.Year
	if year == 0 {
		year = time.Now().Year()
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != month {
		return "", "", false
	}
	return t.Format("2006-01-02"), cutSpan(line, m[:2]), true
}

// extractLastAmount finds the last numeric token matching the amount pattern,
// returning its positive magnitude and the line with the token removed.
func extractLastAmount(line string) (float64, string, bool) {
	matches := amountPattern.FindAllStringSubmatchIndex(line, -1)
	if len(matches) == 0 {
		return 0, line, false
	}

	m := matches[len(matches)-1]
	tok := strings.ReplaceAll(line[m[2]:m[3]], ",", "")
	amount, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, line, false
	}

	return amount, cutSpan(line, m[:2]), true
}

func isDebitLine(remainder string) bool {
	lower := strings.ToLower(remainder)
	for _, kw := range debitKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// cutSpan removes the [start,end) span from s, joining the halves with a
// space so neighboring tokens do not fuse.
func cutSpan(s string, span []int) string {
	return strings.TrimSpace(fmt.Sprintf("%s %s", s[:span[0]], s[span[1]:]))
}
