package wikiparser

import (
	"context"
	"log/slog"
)

// Kind classifies a non-fatal finding.
type Kind string

const (
	KindMalformedTitle   Kind = "malformed_title"
	KindBOMRemoved       Kind = "bom_removed"
	KindDoublePrime      Kind = "double_prime"
	KindQuotesNormalized Kind = "quotes_normalized"
	KindWawSeparated     Kind = "waw_separated"
	KindArabicZero       Kind = "arabic_zero"
	KindOpeningMissing   Kind = "opening_missing"
	KindMismatch         Kind = "mismatch"
	KindClosingMissing   Kind = "closing_missing"
	KindNoTextInSection  Kind = "no_text_in_section"
)

// Modification reports whether the finding changed the text rather than
// just flagging it.
func (k Kind) Modification() bool {
	switch k {
	case KindBOMRemoved, KindDoublePrime, KindQuotesNormalized, KindWawSeparated:
		return true
	}
	return false
}

// Warning is a non-fatal finding. Page is 0 when it cannot be attributed to
// a single scan page.
type Warning struct {
	Page    int    `json:"page,omitempty" yaml:"page,omitempty"`
	Kind    Kind   `json:"kind" yaml:"kind"`
	Message string `json:"message" yaml:"message"`
}

// collector gathers warnings for one document and mirrors them to the log.
type collector struct {
	title    string
	log      *slog.Logger
	warnings []Warning
}

func (c *collector) emit(w Warning) {
	c.warnings = append(c.warnings, w)
	if c.log == nil {
		return
	}
	level := slog.LevelWarn
	if w.Kind.Modification() {
		level = slog.LevelInfo
	}
	c.log.Log(context.Background(), level, w.Message, "title", c.title, "page", w.Page, "kind", string(w.Kind))
}
