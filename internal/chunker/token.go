package chunker

import (
	"strings"
	"unicode"
)

// Sentence is one segmented sentence and its tokens.
type Sentence struct {
	Sentence string   `json:"sentence"`
	Tokens   []string `json:"tokens"`
}

// Segment splits chunk text into sentences and whitespace/punctuation
// delimited tokens. Newline tokens end a sentence and are not emitted.
// Inline page markers contain no spaces or punctuation and survive as single
// tokens.
func Segment(text string) []Sentence {
	var out []Sentence
	for _, s := range splitSentences(text) {
		tokens := Tokenize(s)
		if len(tokens) == 0 {
			continue
		}
		out = append(out, Sentence{Sentence: s, Tokens: tokens})
	}
	return out
}

func isTerminator(r rune) bool {
	switch r {
	case '.', '!', '?', '؟', '۔':
		return true
	}
	return false
}

// splitSentences does basic sentence splitting.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
	}

	runes := []rune(text)
	for i, r := range runes {
		if r == '\n' {
			flush()
			continue
		}
		current.WriteRune(r)
		if isTerminator(r) && (i+1 == len(runes) || unicode.IsSpace(runes[i+1])) {
			flush()
		}
	}
	flush()

	return sentences
}

// Tokenize splits on whitespace and detaches leading and trailing
// punctuation into tokens of their own.
func Tokenize(sentence string) []string {
	var tokens []string
	for _, field := range strings.Fields(sentence) {
		runes := []rune(field)
		start, end := 0, len(runes)
		for start < end && unicode.IsPunct(runes[start]) {
			tokens = append(tokens, string(runes[start]))
			start++
		}
		var trailing []string
		for end > start && unicode.IsPunct(runes[end-1]) {
			trailing = append(trailing, string(runes[end-1]))
			end--
		}
		if start < end {
			tokens = append(tokens, string(runes[start:end]))
		}
		for i := len(trailing) - 1; i >= 0; i-- {
			tokens = append(tokens, trailing[i])
		}
	}
	return tokens
}
