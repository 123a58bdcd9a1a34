// Package source extracts plain text from PDFs, HTML and web pages.
package source

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/liliang-cn/askpdf/internal/domain"
)

// PDFText returns the plain text of every page, pages separated by a blank
// line. A PDF without any extractable text yields ErrEmptyDocument.
func PDFText(r io.ReaderAt, size int64) (text string, err error) {
	// the parser panics on some malformed files
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: malformed pdf: %v", domain.ErrInvalidRequest, p)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("%w: open pdf: %w", domain.ErrInvalidRequest, err)
	}

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("read page %d: %w", i, err)
		}
		if content = strings.TrimSpace(content); content != "" {
			pages = append(pages, content)
		}
	}

	if len(pages) == 0 {
		return "", domain.ErrEmptyDocument
	}
	return strings.Join(pages, "\n\n"), nil
}

// ReadPDF buffers r and extracts its text.
func ReadPDF(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}
	return PDFText(bytes.NewReader(data), int64(len(data)))
}
