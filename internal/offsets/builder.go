// Package offsets concatenates parsed chunks into one document and locates
// every section and physical page in it by character offset.
package offsets

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"unicode/utf8"

	"github.com/dgallion1/wikiscan/internal/config"
	"github.com/dgallion1/wikiscan/internal/doctree"
)

// Builder turns a chunk sequence into an AnnotatedText. It holds no per-call
// state and may be shared between goroutines.
type Builder struct {
	marker *regexp.Regexp
	log    *slog.Logger
}

// NewBuilder compiles the inline page marker of f. log may be nil.
func NewBuilder(f config.Format, log *slog.Logger) (*Builder, error) {
	marker, err := regexp.Compile(f.MarkerPattern())
	if err != nil {
		return nil, fmt.Errorf("compile page marker: %w", err)
	}
	return &Builder{marker: marker, log: log}, nil
}

type openPage struct {
	name  string
	start int
}

// Build strips the page markers out of the chunk texts and records the
// ranges. Offsets are code point indices into the returned Text; ends are
// inclusive.
func (b *Builder) Build(chunks []doctree.Chunk) *doctree.AnnotatedText {
	var (
		out      []rune
		pivot    int
		page     *openPage
		pages    []doctree.Range
		sections []doctree.Range
	)

	for _, c := range chunks {
		// gap counts marker characters removed from this chunk only.
		gap := 0
		prev := 0
		for _, m := range b.marker.FindAllStringSubmatchIndex(c.Text, -1) {
			ms := utf8.RuneCountInString(c.Text[:m[0]])
			info := c.Text[m[2]:m[3]]

			out = append(out, []rune(c.Text[prev:m[0]])...)
			prev = m[1]

			start := pivot + ms - gap
			if page != nil {
				end := pivot + ms - gap - 1
				pages = append(pages, doctree.Range{Name: page.name, Start: page.start, End: end})
				start = end + 1
			}
			page = &openPage{name: info, start: start}
			gap += utf8.RuneCountInString(c.Text[m[0]:m[1]])
		}
		out = append(out, []rune(c.Text[prev:])...)

		if name := c.SectionName(); name != "" {
			out = append(out, '\n')
			sections = append(sections, doctree.Range{Name: name, Start: pivot, End: len(out) - 1})
		}
		pivot = len(out)
	}
	if page != nil {
		pages = append(pages, doctree.Range{Name: page.name, Start: page.start, End: pivot - 1})
	}

	return &doctree.AnnotatedText{
		Text:     string(out),
		Sections: b.adjustAll(out, sections, "empty_section"),
		Pages:    b.adjustAll(out, pages, "empty_page"),
	}
}

func (b *Builder) adjustAll(text []rune, ranges []doctree.Range, kind string) []doctree.Range {
	kept := make([]doctree.Range, 0, len(ranges))
	for _, r := range ranges {
		adj, ok := adjust(text, r)
		if !ok {
			if b.log != nil {
				b.log.Log(context.Background(), slog.LevelWarn, "range has no content, dropped",
					"kind", kind, "name", r.Name, "start", r.Start, "end", r.End)
			}
			continue
		}
		kept = append(kept, adj)
	}
	return kept
}

func isSeparator(c rune) bool {
	return c == ' ' || c == '\n'
}

// adjust moves start past leading spaces and newlines and end back past
// trailing newlines. It reports false for a range with no content left.
func adjust(text []rune, r doctree.Range) (doctree.Range, bool) {
	if r.Start < 0 || r.End < r.Start || r.End >= len(text) {
		return r, false
	}
	for r.Start < r.End && isSeparator(text[r.Start]) {
		r.Start++
	}
	for r.End > r.Start && text[r.End] == '\n' {
		r.End--
	}
	if r.Start == r.End && isSeparator(text[r.Start]) {
		return r, false
	}
	return r, true
}
