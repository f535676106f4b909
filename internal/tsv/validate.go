package tsv

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const taMarbuta = 'ة'

// Typo flags a token that probably contains a transcription error.
type Typo struct {
	Section string `json:"section" yaml:"section"`
	Token   string `json:"token" yaml:"token"`
	Reason  string `json:"reason" yaml:"reason"`
}

func (t Typo) String() string {
	return fmt.Sprintf("word %q in section %q may contain a typo: %s", t.Token, t.Section, t.Reason)
}

// isArabicAlpha reports whether c lies between hamza (U+0621) and sukun (U+0652).
func isArabicAlpha(c rune) bool {
	return c >= 0x0621 && c <= 0x0652
}

// CheckToken returns the reasons a word looks wrong; nil means it looks fine.
func CheckToken(token string, maxLen int) []string {
	var reasons []string

	var arabic, other bool
	for _, c := range token {
		if isArabicAlpha(c) {
			arabic = true
		} else {
			other = true
		}
	}
	if arabic && other {
		reasons = append(reasons, "arabic word mixed with non-arabic characters")
	}

	n := utf8.RuneCountInString(token)
	if maxLen > 0 && n > maxLen {
		reasons = append(reasons, fmt.Sprintf("longer than %d characters", maxLen))
	}

	if n > 2 {
		runes := []rune(token)
		if strings.ContainsRune(string(runes[1:n-1]), taMarbuta) {
			reasons = append(reasons, "ta marbuta inside the word")
		}
	}
	return reasons
}
