package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/wikiscan/internal/doctree"
)

// Parser converts an uploaded file into raw scan pages.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.Source, error)
}

// Options tune how structured formats are rendered into wiki lines.
type Options struct {
	// TitleOpen wraps headings, e.g. "==" renders "== Heading ==".
	TitleOpen         string
	FallbackPdftotext bool
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	if opts.TitleOpen == "" {
		opts.TitleOpen = "=="
	}
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{TitleOpen: opts.TitleOpen}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{TitleOpen: opts.TitleOpen}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: opts.FallbackPdftotext}, nil
	case ".docx":
		return &DOCXParser{TitleOpen: opts.TitleOpen}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// titleFromFilename drops the directory and the extension.
func titleFromFilename(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// pageWriter renders structured documents as wiki lines: paragraphs are
// separated by blank lines and headings become title lines.
type pageWriter struct {
	titleOpen string
	pages     []string
	lines     []string
}

func (w *pageWriter) paragraph(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	w.lines = append(w.lines, strings.Split(text, "\n")...)
	w.lines = append(w.lines, "")
}

func (w *pageWriter) heading(text string) {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return
	}
	w.lines = append(w.lines, w.titleOpen+" "+text+" "+w.titleOpen, "")
}

// pageBreak closes the current page. Pages without text are not emitted.
func (w *pageWriter) pageBreak() {
	page := strings.TrimSpace(strings.Join(w.lines, "\n"))
	w.lines = w.lines[:0]
	if page != "" {
		w.pages = append(w.pages, page)
	}
}

func (w *pageWriter) finish() []string {
	w.pageBreak()
	return w.pages
}
