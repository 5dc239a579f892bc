// ABOUTME: Format-specific text extraction for ingested documents
// ABOUTME: PDF pages are joined with newlines, text and markdown are read verbatim
package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/harper/recall/internal/models"
)

// Format is a document format recognised by extension
type Format string

const (
	FormatPDF      Format = "pdf"
	FormatText     Format = "txt"
	FormatMarkdown Format = "md"
)

// formats maps each parseable extension to its format
var formats = map[string]Format{
	".pdf":      FormatPDF,
	".txt":      FormatText,
	".md":       FormatMarkdown,
	".markdown": FormatMarkdown,
}

// SupportedExtensions lists the file extensions ExtractText understands
var SupportedExtensions = []string{".pdf", ".txt", ".md", ".markdown"}

// DetectFormat maps a filename to its format by extension
func DetectFormat(filename string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if format, ok := formats[ext]; ok {
		return format, nil
	}
	return "", fmt.Errorf("%w: %q (supported: %s)",
		models.ErrUnsupportedFormat, filepath.Ext(filename), strings.Join(SupportedExtensions, ", "))
}

// Supported reports whether the filename has a parseable extension
func Supported(filename string) bool {
	_, err := DetectFormat(filename)
	return err == nil
}

// ExtractText reads the file at path. The format is implied by filename,
// which may differ from path when the caller stages uploads under a temp name.
// Errors are returned as *models.IngestionError naming filename.
func ExtractText(path, filename string) (string, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return "", &models.IngestionError{File: filename, Err: err}
	}

	var text string
	switch format {
	case FormatPDF:
		text, err = extractPDF(path)
	default:
		text, err = extractPlain(path)
	}
	if err != nil {
		return "", &models.IngestionError{File: filename, Err: err}
	}
	return text, nil
}

func extractPlain(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	if !utf8.Valid(data) {
		return "", models.ErrInvalidEncoding
	}
	return string(data), nil
}

// extractPDF concatenates each page's plain text followed by a newline
func extractPDF(path string) (text string, err error) {
	// the pdf reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("corrupt pdf: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer func() { _ = f.Close() }()

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			b.WriteString("\n")
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to read pdf page %d: %w", i, err)
		}
		b.WriteString(content)
		b.WriteString("\n")
	}
	return b.String(), nil
}
