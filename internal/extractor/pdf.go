package extractor

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// Text reads a PDF statement and returns its text content, pages joined by
// blank lines. Row-based extraction is tried first because it preserves the
// tabular layout line parsers depend on; whole-document plain text is the
// fallback for PDFs where per-page row data is unavailable.
func Text(filePath string) (string, error) {
	pages, err := extractPages(filePath)
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	if !Readable(pages) {
		return "", fmt.Errorf("extract pdf text: no readable text; the file may be image-based or use custom font encodings")
	}
	return strings.Join(pages, "\n\n"), nil
}

// TextFromBytes extracts text from an in-memory PDF, e.g. one fetched from
// blob storage.
func TextFromBytes(data []byte) (string, error) {
	pages, err := readerPages(func() (*pdf.Reader, io.Closer, error) {
		r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
		return r, nopCloser{}, err
	})
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	if !Readable(pages) {
		return "", fmt.Errorf("extract pdf text: no readable text; the file may be image-based or use custom font encodings")
	}
	return strings.Join(pages, "\n\n"), nil
}

func extractPages(filePath string) ([]string, error) {
	return readerPages(func() (*pdf.Reader, io.Closer, error) {
		f, r, err := pdf.Open(filePath)
		return r, f, err
	})
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func readerPages(open func() (*pdf.Reader, io.Closer, error)) (pages []string, err error) {
	// The pdf library can panic on malformed cross-reference tables.
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdf reader panic: %v", rec)
		}
	}()

	r, closer, err := open()
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	if r.NumPage() == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}

	pages = extractByRow(r)
	if Readable(pages) {
		return pages, nil
	}

	if text := extractPlainText(r); text != "" {
		return []string{text}, nil
	}
	return pages, nil
}

// extractByRow walks each page's text rows top to bottom, one output line per
// row.
func extractByRow(r *pdf.Reader) []string {
	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}

		var lines []string
		for _, row := range rows {
			var parts []string
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}
			if line := strings.TrimSpace(strings.Join(parts, " ")); line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

func extractPlainText(r *pdf.Reader) string {
	reader, err := r.GetPlainText()
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Minimum total length and ASCII ratio below which extracted text is treated
// as garbage rather than statement content. Identity-encoded fonts decode
// into streams of non-ASCII runes, so the ratio check is deliberately strict.
const (
	minReadableLen   = 50
	minReadableRatio = 0.6
)

// Readable reports whether the extracted pages contain enough plausible
// statement text to hand to a line parser.
func Readable(pages []string) bool {
	total, readable := 0, 0
	for _, page := range pages {
		for _, r := range page {
			total++
			if asciiReadable(r) {
				readable++
			}
		}
	}
	if total < minReadableLen {
		return false
	}
	return float64(readable)/float64(total) > minReadableRatio
}

func asciiReadable(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case unicode.IsSpace(r):
		return true
	}
	return strings.ContainsRune(`.,-/:;()'"£$€%&@#!?+=*`, r)
}
