package textextract

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// PdfToText extracts text from PDFs using the pdftotext CLI tool.
type PdfToText struct {
	binPath string
}

// NewPdfToText creates a PdfToText extractor. If binPath is empty, "pdftotext" is used.
func NewPdfToText(binPath string) *PdfToText {
	if binPath == "" {
		binPath = "pdftotext"
	}
	return &PdfToText{binPath: binPath}
}

// ExtractText writes content to a temp file and runs pdftotext over the
// first maxPages pages. Pages come back separated by form feeds.
func (p *PdfToText) ExtractText(ctx context.Context, content []byte, maxPages int) (*Result, error) {
	if len(content) == 0 {
		return nil, ErrEmptyContent
	}

	f, err := os.CreateTemp("", "minedocs-*.pdf")
	if err != nil {
		return nil, eris.Wrap(err, "textextract: create temp file")
	}
	defer os.Remove(f.Name()) //nolint:errcheck
	if _, err := f.Write(content); err != nil {
		f.Close()
		return nil, eris.Wrap(err, "textextract: write temp file")
	}
	if err := f.Close(); err != nil {
		return nil, eris.Wrap(err, "textextract: close temp file")
	}

	args := []string{"-layout", "-f", "1"}
	if maxPages > 0 {
		args = append(args, "-l", strconv.Itoa(maxPages))
	}
	args = append(args, f.Name(), "-")

	cmd := exec.CommandContext(ctx, p.binPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, eris.Wrapf(err, "textextract: pdftotext failed: %s", strings.TrimSpace(stderr.String()))
	}

	pages := splitPages(stdout.String())
	var b strings.Builder
	for _, pg := range pages {
		b.WriteString(pg)
		b.WriteString("\n")
	}
	return &Result{Text: b.String(), TotalPages: len(pages), PagesRead: len(pages)}, nil
}

// splitPages splits pdftotext output on form feeds. pdftotext terminates
// every page with one, so the trailing empty element is dropped.
func splitPages(out string) []string {
	if out == "" {
		return nil
	}
	pages := strings.Split(out, "\f")
	if pages[len(pages)-1] == "" {
		pages = pages[:len(pages)-1]
	}
	return pages
}
