// Package tsv renders parsed documents in the WebAnno TSV2 format with one
// row per token and custom section and page layers.
package tsv

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"github.com/dgallion1/wikiscan/internal/config"
	"github.com/dgallion1/wikiscan/internal/doctree"
)

var tabRun = regexp.MustCompile(`\t+`)

// Converter turns a chunk sequence into TSV text.
type Converter struct {
	seg      Segmenter
	marker   *regexp.Regexp // anywhere in a sentence
	token    *regexp.Regexp // a whole token
	pageOpen string
	layers   config.TSVFormat
	log      *slog.Logger
}

// Result is the TSV document plus the words flagged along the way.
type Result struct {
	TSV   string `json:"tsv"`
	Typos []Typo `json:"typos"`
}

// NewConverter uses seg for sentence splitting; nil selects BuiltinSegmenter.
func NewConverter(f config.Format, seg Segmenter, log *slog.Logger) (*Converter, error) {
	if seg == nil {
		seg = BuiltinSegmenter{}
	}
	pattern := regexp.QuoteMeta(f.PageOpen) + "(" + f.PageAllowed + ")" + regexp.QuoteMeta(f.PageClose)
	marker, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile page marker: %w", err)
	}
	return &Converter{
		seg:      seg,
		marker:   marker,
		token:    regexp.MustCompile("^" + pattern + "$"),
		pageOpen: f.PageOpen,
		layers:   f.TSV,
		log:      log,
	}, nil
}

// tag tracks the B-/I- state of one annotation layer.
type tag struct {
	value string
	begin bool
}

func (t *tag) start(v string) {
	t.value = v
	t.begin = true
}

// next returns the label for the current token and moves to I- afterwards.
func (t *tag) next() string {
	if t.value == "" {
		return ""
	}
	prefix := "I-"
	if t.begin {
		prefix = "B-"
		t.begin = false
	}
	return prefix + t.value
}

// Convert segments every chunk and writes one row per token. Page markers
// are not emitted as tokens; they start a new B- page tag on the next token.
func (c *Converter) Convert(ctx context.Context, title string, chunks []doctree.Chunk) (*Result, error) {
	var (
		out                 []string
		typos               []Typo
		section, page       tag
		sawSection, sawPage bool
		nSentence           int
	)

	for _, chunk := range chunks {
		name := chunk.SectionName()
		if name != "" {
			section.start(name)
			sawSection = true
		} else {
			section = tag{}
		}

		sentences, err := c.seg.Segment(ctx, chunk.Text)
		if err != nil {
			return nil, fmt.Errorf("segment %s: %w", title, err)
		}

		for _, s := range sentences {
			clean := c.marker.ReplaceAllString(s.Sentence, "")
			if strings.Contains(clean, c.pageOpen) {
				return nil, fmt.Errorf("bad format for page info in scan %q: %q", title, s.Sentence)
			}

			id := nSentence + 1
			var rows []string
			for _, tok := range s.Tokens {
				if strings.Contains(tok, c.pageOpen) {
					m := c.token.FindStringSubmatch(tok)
					if m == nil {
						return nil, fmt.Errorf("page information not well formatted in scan %q: %q", title, tok)
					}
					page.start(m[1])
					sawPage = true
					continue
				}

				for _, reason := range CheckToken(tok, c.layers.MaxWordLength) {
					t := Typo{Section: name, Token: tok, Reason: reason}
					typos = append(typos, t)
					if c.log != nil {
						c.log.Warn("possible typo", "title", title, "section", name, "token", tok, "reason", reason)
					}
				}

				entry := fmt.Sprintf("%d-%d\t%s\t%s\t%s", id, len(rows)+1, tok, section.next(), page.next())
				rows = append(rows, strings.TrimRight(tabRun.ReplaceAllString(entry, "\t"), "\t"))
			}
			if len(rows) == 0 {
				continue
			}

			nSentence = id
			out = append(out, "", fmt.Sprintf("#id=%d", id), "#text="+clean)
			out = append(out, rows...)
		}
	}

	var header strings.Builder
	if sawSection {
		fmt.Fprintf(&header, " # webanno.custom.%s | %s", layerName(c.layers.SectionLayer), strings.ReplaceAll(c.layers.SectionFeature, " ", ""))
	}
	if sawPage {
		fmt.Fprintf(&header, " # webanno.custom.%s | %s", layerName(c.layers.PageLayer), strings.ReplaceAll(c.layers.PageFeature, " ", ""))
	}

	lines := append([]string{header.String()}, out...)
	return &Result{TSV: strings.Join(lines, "\n"), Typos: typos}, nil
}

// layerName drops spaces and capitalizes the first letter only.
func layerName(s string) string {
	runes := []rune(strings.ToLower(strings.ReplaceAll(s, " ", "")))
	if len(runes) == 0 {
		return ""
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
