package wikiparser

import (
	"fmt"
	"strings"
)

// Sanitizer normalizes the lines of one scan page at a time.
type Sanitizer struct {
	rules *Rules
}

// NewSanitizer returns a sanitizer for the given rules.
func NewSanitizer(rules *Rules) *Sanitizer {
	return &Sanitizer{rules: rules}
}

// SanitizePage cleans the lines of page (1-based) of the scan title. Lines
// holding only a directionality mark are dropped; everything else keeps its
// position. Every surviving text line is fed to bal. The only error is a
// *FormatError for malformed page info.
func (s *Sanitizer) SanitizePage(title string, page int, lines []string, bal *Balance, emit func(Warning)) ([]string, error) {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if s.isDirectionMark(line) {
			continue
		}
		if line == "" {
			out = append(out, line)
			continue
		}
		if strings.HasPrefix(line, s.rules.pageKeyword) {
			info := strings.TrimSpace(line[len(s.rules.pageKeyword):])
			if !s.rules.pageInfo.MatchString(info) {
				return nil, &FormatError{Page: page, Title: title, Info: info}
			}
			out = append(out, s.rules.Marker(info))
			continue
		}

		line = s.SanitizeLine(page, line, emit)
		out = append(out, line)
		bal.Feed(page, line, emit)
	}
	return out, nil
}

// SanitizeLine applies the text fixes to a single line that is neither
// empty nor a page marker. Applying it twice yields the same line and no
// new modification warnings.
func (s *Sanitizer) SanitizeLine(page int, line string, emit func(Warning)) string {
	r := s.rules

	if strings.ContainsRune(line, r.titleMark) && !strings.HasPrefix(line, r.titleOpen) {
		emit(Warning{
			Page: page,
			Kind: KindMalformedTitle,
			Message: fmt.Sprintf("there may be a malformed title; expected format of titles is \"%s TITLE %s\"",
				r.titleOpen, r.titleOpen),
		})
	}

	if strings.ContainsRune(line, r.bom) {
		line = strings.ReplaceAll(line, string(r.bom), "")
		emit(Warning{Page: page, Kind: KindBOMRemoved, Message: "BOM character found and removed"})
	}

	if strings.ContainsRune(line, r.doublePrime) {
		line = strings.ReplaceAll(line, string(r.doublePrime), string(r.tanwin))
		emit(Warning{
			Page:    page,
			Kind:    KindDoublePrime,
			Message: fmt.Sprintf("double prime character (U+%04X) changed to tanwin fatha (U+%04X)", r.doublePrime, r.tanwin),
		})
	}

	if normalized := s.normalizeQuotes(line); normalized != line {
		line = normalized
		emit(Warning{Page: page, Kind: KindQuotesNormalized, Message: `quotation marks normalized to (")`})
	}

	if separated := s.separateWaw(line); separated != line {
		line = separated
		emit(Warning{Page: page, Kind: KindWawSeparated, Message: "waw separated from quoted word"})
	}

	if strings.ContainsRune(line, r.arabicZero) {
		emit(Warning{
			Page:    page,
			Kind:    KindArabicZero,
			Message: fmt.Sprintf("arabic zero %q may be in position of a dot \".\"", r.arabicZero),
		})
	}

	return r.whitespaceRun.ReplaceAllString(line, " ")
}

func (s *Sanitizer) isDirectionMark(line string) bool {
	return line == string(s.rules.rtl) || line == string(s.rules.ltr)
}

func (s *Sanitizer) normalizeQuotes(line string) string {
	return strings.Map(func(c rune) rune {
		if s.rules.quotes[c] {
			return '"'
		}
		return c
	}, line)
}

// separateWaw splits a word-initial waw from a following opening quote so
// that the tokenizer sees two tokens: `و"المصدوق` becomes `و "المصدوق`.
func (s *Sanitizer) separateWaw(line string) string {
	runes := []rune(line)
	var b strings.Builder
	b.Grow(len(line) + 2)
	for i, c := range runes {
		b.WriteRune(c)
		if c != s.rules.waw || i+1 >= len(runes) || runes[i+1] != '"' {
			continue
		}
		if i == 0 || runes[i-1] == ' ' || runes[i-1] == '\t' {
			b.WriteByte(' ')
		}
	}
	return b.String()
}
