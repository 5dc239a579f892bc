// ABOUTME: Tests for document text extraction
// ABOUTME: Covers format detection, verbatim text reads, encoding and corrupt-file errors
package parser

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harper/recall/internal/models"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		filename string
		want     Format
		wantErr  bool
	}{
		{"report.pdf", FormatPDF, false},
		{"REPORT.PDF", FormatPDF, false},
		{"notes.txt", FormatText, false},
		{"README.md", FormatMarkdown, false},
		{"guide.markdown", FormatMarkdown, false},
		{"sheet.xlsx", "", true},
		{"noext", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got, err := DetectFormat(tt.filename)
			if tt.wantErr {
				if !errors.Is(err, models.ErrUnsupportedFormat) {
					t.Errorf("expected ErrUnsupportedFormat, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("DetectFormat(%q) = %s, want %s", tt.filename, got, tt.want)
			}
		})
	}
}

func TestExtractText_PlainVerbatim(t *testing.T) {
	dir := t.TempDir()
	content := "# Title\n\n  indented line\r\nunicode: héllo ✓\n"
	path := filepath.Join(dir, "upload-123")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := ExtractText(path, "notes.md")
	if err != nil {
		t.Fatalf("ExtractText failed: %v", err)
	}
	if got != content {
		t.Errorf("ExtractText = %q, want verbatim %q", got, content)
	}
}

func TestExtractText_InvalidUTF8(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "latin1.txt")
	if err := os.WriteFile(path, []byte{'c', 'a', 'f', 0xe9}, 0644); err != nil {
		t.Fatal(err)
	}

	_, err := ExtractText(path, "latin1.txt")
	var ingestErr *models.IngestionError
	if !errors.As(err, &ingestErr) {
		t.Fatalf("expected IngestionError, got %v", err)
	}
	if ingestErr.File != "latin1.txt" {
		t.Errorf("File = %s, want latin1.txt", ingestErr.File)
	}
	if !errors.Is(err, models.ErrInvalidEncoding) {
		t.Errorf("expected ErrInvalidEncoding, got %v", err)
	}
}

func TestExtractText_Unsupported(t *testing.T) {
	_, err := ExtractText("/nonexistent/file.docx", "file.docx")
	var ingestErr *models.IngestionError
	if !errors.As(err, &ingestErr) || ingestErr.File != "file.docx" {
		t.Fatalf("expected IngestionError for file.docx, got %v", err)
	}
	if !errors.Is(err, models.ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestExtractText_CorruptPDF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.pdf")
	if err := os.WriteFile(path, []byte("this is not a pdf at all"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := ExtractText(path, "broken.pdf")
	var ingestErr *models.IngestionError
	if !errors.As(err, &ingestErr) {
		t.Fatalf("expected IngestionError, got %v", err)
	}
	if ingestErr.File != "broken.pdf" {
		t.Errorf("File = %s, want broken.pdf", ingestErr.File)
	}
}

func TestExtractText_MissingFile(t *testing.T) {
	_, err := ExtractText(filepath.Join(t.TempDir(), "gone.txt"), "gone.txt")
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped ErrNotExist, got %v", err)
	}
}

func TestSupported(t *testing.T) {
	for _, ext := range SupportedExtensions {
		if !Supported("file" + ext) {
			t.Errorf("Supported(file%s) = false", ext)
		}
	}
	if Supported("image.png") {
		t.Error("Supported(image.png) = true")
	}
}

func TestSupportedExtensions_MatchDetectFormat(t *testing.T) {
	if len(SupportedExtensions) != len(formats) {
		t.Fatalf("SupportedExtensions has %d entries, DetectFormat knows %d", len(SupportedExtensions), len(formats))
	}
	for _, ext := range SupportedExtensions {
		if _, ok := formats[ext]; !ok {
			t.Errorf("%s is listed but not detected", ext)
		}
	}
	if f, err := DetectFormat("notes.MARKDOWN"); err != nil || f != FormatMarkdown {
		t.Errorf("DetectFormat(notes.MARKDOWN) = %q, %v", f, err)
	}
	_, err := DetectFormat("deck.pptx")
	if err == nil || !strings.Contains(err.Error(), ".markdown") {
		t.Errorf("unsupported error should list supported extensions, got %v", err)
	}
}
