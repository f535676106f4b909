package wikiparser

import "fmt"

type stackEntry struct {
	page int
	char rune
}

// Balance tracks paired punctuation across a whole document. One Balance is
// shared by every page of a document and must not be reused for another.
type Balance struct {
	rules *Rules
	stack []stackEntry
}

// NewBalance returns an empty stack using the delimiter tables in rules.
func NewBalance(rules *Rules) *Balance {
	return &Balance{rules: rules}
}

// Depth is the number of delimiters still waiting to be closed.
func (b *Balance) Depth() int {
	return len(b.stack)
}

// Feed classifies every character of line and updates the stack.
func (b *Balance) Feed(page int, line string, emit func(Warning)) {
	for _, c := range line {
		switch b.rules.class(c) {
		case classCloser:
			b.close(page, c, emit)
		case classEqual:
			if n := len(b.stack); n > 0 && b.stack[n-1].char == c {
				b.stack = b.stack[:n-1]
				continue
			}
			b.stack = append(b.stack, stackEntry{page: page, char: c})
		case classOpener:
			b.stack = append(b.stack, stackEntry{page: page, char: c})
		}
	}
}

func (b *Balance) close(page int, c rune, emit func(Warning)) {
	n := len(b.stack)
	if n == 0 {
		emit(Warning{
			Page:    page,
			Kind:    KindOpeningMissing,
			Message: fmt.Sprintf("opening character missing for char %c", c),
		})
		return
	}
	prev := b.stack[n-1]
	b.stack = b.stack[:n-1]

	if b.rules.class(prev.char) == classEqual {
		emit(Warning{
			Page:    prev.page,
			Kind:    KindOpeningMissing,
			Message: fmt.Sprintf("opening character missing for char %c", prev.char),
		})
		return
	}
	if b.rules.closerFor[prev.char] != c {
		emit(Warning{
			Page:    page,
			Kind:    KindMismatch,
			Message: fmt.Sprintf("char %c and char %c don't match", prev.char, c),
		})
	}
}

// Finish reports every delimiter left open at the end of the document and
// empties the stack.
func (b *Balance) Finish(emit func(Warning)) {
	for _, e := range b.stack {
		emit(Warning{
			Page:    e.page,
			Kind:    KindClosingMissing,
			Message: fmt.Sprintf("closing character missing for char %c", e.char),
		})
	}
	b.stack = nil
}
