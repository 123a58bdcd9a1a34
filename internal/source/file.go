package source

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/liliang-cn/askpdf/internal/domain"
)

// File types accepted for ingestion
const (
	FileTypePDF  = "pdf"
	FileTypeMD   = "md"
	FileTypeTXT  = "txt"
	FileTypeHTML = "html"
)

// DetectFileType detects file type from filename
func DetectFileType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return FileTypePDF
	case ".md", ".markdown":
		return FileTypeMD
	case ".txt", ".text":
		return FileTypeTXT
	case ".html", ".htm":
		return FileTypeHTML
	case "":
		return ""
	default:
		return ext[1:]
	}
}

// IsSupported checks if file type is supported
func IsSupported(fileType string) bool {
	switch fileType {
	case FileTypePDF, FileTypeMD, FileTypeTXT, FileTypeHTML:
		return true
	}
	return false
}

// Read extracts a document from r, choosing the parser by the file name.
// HTML is reduced to its <body> text.
func Read(filename string, r io.Reader) (domain.Document, error) {
	fileType := DetectFileType(filename)
	if !IsSupported(fileType) {
		return domain.Document{}, fmt.Errorf("%w: unsupported file type %q", domain.ErrInvalidRequest, fileType)
	}

	var (
		text string
		err  error
	)
	switch fileType {
	case FileTypePDF:
		text, err = ReadPDF(r)
	case FileTypeHTML:
		text, err = HTMLText(r, "body")
	default:
		var data []byte
		data, err = io.ReadAll(r)
		text = string(data)
	}
	if err != nil {
		return domain.Document{}, fmt.Errorf("%s: %w", filename, err)
	}
	return domain.Document{Text: text, Source: filepath.Base(filename)}, nil
}

// Load reads a document from disk.
func Load(path string) (domain.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Document{}, err
	}
	defer f.Close()
	return Read(path, f)
}
