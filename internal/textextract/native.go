package textextract

import (
	"bytes"
	"context"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rotisserie/eris"
)

// Native extracts text in-process with github.com/ledongthuc/pdf.
type Native struct{}

// NewNative creates a Native extractor.
func NewNative() *Native {
	return &Native{}
}

// ExtractText reads the first maxPages pages. The reader panics on some
// malformed inputs; those panics are returned as errors.
func (n *Native) ExtractText(ctx context.Context, content []byte, maxPages int) (res *Result, err error) {
	if len(content) == 0 {
		return nil, ErrEmptyContent
	}

	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = eris.Errorf("textextract: malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, eris.Wrap(err, "textextract: open pdf")
	}

	total := reader.NumPage()
	limit := pageCount(total, maxPages)

	var b strings.Builder
	for i := 1; i <= limit; i++ {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "textextract: cancelled")
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			b.WriteString("\n")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, eris.Wrapf(err, "textextract: page %d", i)
		}
		b.WriteString(text)
		b.WriteString("\n")
	}

	return &Result{Text: b.String(), TotalPages: total, PagesRead: limit}, nil
}
