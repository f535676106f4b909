// Package wikiparser turns raw wiki transcription pages into an ordered
// sequence of section chunks. Page-marker lines become inline tokens,
// common OCR and encoding artifacts are repaired, and punctuation balance is
// checked across the whole document. Only malformed page info is fatal;
// everything else is reported as a Warning.
package wikiparser

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgallion1/wikiscan/internal/chunker"
	"github.com/dgallion1/wikiscan/internal/config"
	"github.com/dgallion1/wikiscan/internal/doctree"
)

// Result is the outcome of parsing one source.
type Result struct {
	Title    string          `json:"title" yaml:"title"`
	Chunks   []doctree.Chunk `json:"content" yaml:"content"`
	Warnings []Warning       `json:"warnings" yaml:"warnings"`
}

// Parser is safe for concurrent use; each Parse call keeps its own state.
type Parser struct {
	rules     *Rules
	sanitizer *Sanitizer
	log       *slog.Logger
}

// New compiles f into a Parser. log may be nil.
func New(f config.Format, log *slog.Logger) (*Parser, error) {
	rules, err := NewRules(f)
	if err != nil {
		return nil, err
	}
	return &Parser{rules: rules, sanitizer: NewSanitizer(rules), log: log}, nil
}

// Parse sanitizes every page of src, then groups the document into chunks.
func (p *Parser) Parse(src doctree.Source) (*Result, error) {
	if len(src.Pages) == 0 {
		return nil, fmt.Errorf("parse %q: no pages: %w", src.Title, ErrEmptyInput)
	}
	if src.Title == "" {
		return nil, fmt.Errorf("parse: no title: %w", ErrEmptyInput)
	}

	warn := &collector{title: src.Title, log: p.log}
	bal := NewBalance(p.rules)

	pages := make([][]string, 0, len(src.Pages))
	for i, text := range src.Pages {
		lines, err := p.sanitizer.SanitizePage(src.Title, i+1, SplitLines(text), bal, warn.emit)
		if err != nil {
			return nil, err
		}
		pages = append(pages, lines)
	}
	bal.Finish(warn.emit)

	var lines []string
	for _, page := range pages {
		lines = append(lines, chunker.StripLines(page)...)
	}

	chunks, empty := chunker.Group(lines, p.rules.IsTitle, p.rules.TitleName)
	for _, section := range empty {
		warn.emit(Warning{
			Kind:    KindNoTextInSection,
			Message: fmt.Sprintf("no text in section %q", section),
		})
	}

	return &Result{Title: src.Title, Chunks: chunks, Warnings: warn.warnings}, nil
}

// SplitLines splits text on \n, \r\n or \r. A final line break does not
// start an extra empty line.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}
