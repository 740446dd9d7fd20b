// Package textextract reads the text layer of PDF reports, bounded by a page cap.
package textextract

import (
	"context"
	"unicode/utf8"

	"github.com/rotisserie/eris"

	"github.com/sells-group/minedocs/internal/config"
)

// ErrEmptyContent is returned when there are no bytes to parse.
var ErrEmptyContent = eris.New("textextract: empty content")

// Result is the text of the first PagesRead pages, each followed by "\n".
type Result struct {
	Text       string
	TotalPages int
	PagesRead  int
}

// Extractor extracts text content from PDF bytes. Implementations read at
// most maxPages pages from the start of the document; maxPages <= 0 reads all.
type Extractor interface {
	ExtractText(ctx context.Context, content []byte, maxPages int) (*Result, error)
}

// NewExtractor creates an Extractor based on config.
func NewExtractor(cfg config.TextConfig) (Extractor, error) {
	switch cfg.Provider {
	case "native", "":
		return NewNative(), nil
	case "pdftotext":
		return NewPdfToText(cfg.PdfToTextPath), nil
	default:
		return nil, eris.Errorf("textextract: unknown provider %q", cfg.Provider)
	}
}

// Sufficient reports whether text has at least minChars characters.
func Sufficient(text string, minChars int) bool {
	return utf8.RuneCountInString(text) >= minChars
}

func pageCount(total, maxPages int) int {
	if maxPages > 0 && maxPages < total {
		return maxPages
	}
	return total
}
