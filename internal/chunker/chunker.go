package chunker

import (
	"strings"

	"github.com/dgallion1/wikiscan/internal/doctree"
)

// Newline is the token a blank line becomes inside a chunk's text.
const Newline = "\n"

// run is a maximal sequence of lines sharing the same title predicate.
type run struct {
	title bool
	lines []string
}

// Group pairs every title line with the body lines that follow it.
//
// Lines are folded into runs where isTitle is constant; a title run pairs
// with the next body run. Text before the first title gets a nil section.
// When several titles follow each other only the last one receives the body.
// The second return value lists, in order, the sections that ended up with
// an empty body.
func Group(lines []string, isTitle func(string) bool, titleName func(string) string) ([]doctree.Chunk, []string) {
	runs := fold(lines, isTitle)

	var chunks []doctree.Chunk
	var empty []string
	for i := 0; i < len(runs); i++ {
		r := runs[i]
		if !r.title {
			if text := joinBody(r.lines); text != "" {
				chunks = append(chunks, doctree.Chunk{Text: text})
			}
			continue
		}

		for _, t := range r.lines[:len(r.lines)-1] {
			name := titleName(t)
			chunks = append(chunks, doctree.NewChunk(name, ""))
			empty = append(empty, name)
		}

		name := titleName(r.lines[len(r.lines)-1])
		var body string
		if i+1 < len(runs) {
			i++
			body = joinBody(runs[i].lines)
		}
		if body == "" {
			empty = append(empty, name)
		}
		chunks = append(chunks, doctree.NewChunk(name, body))
	}
	return chunks, empty
}

func fold(lines []string, isTitle func(string) bool) []run {
	var runs []run
	for _, line := range lines {
		t := isTitle(line)
		if n := len(runs); n > 0 && runs[n-1].title == t {
			runs[n-1].lines = append(runs[n-1].lines, line)
			continue
		}
		runs = append(runs, run{title: t, lines: []string{line}})
	}
	return runs
}

// joinBody joins body lines with single spaces, encoding interior blank
// lines as Newline tokens.
func joinBody(lines []string) string {
	lines = StripLines(lines)
	parts := make([]string, len(lines))
	for i, l := range lines {
		if l == "" {
			parts[i] = Newline
		} else {
			parts[i] = l
		}
	}
	return strings.Join(parts, " ")
}

// StripLines trims every line, collapses runs of blank lines into one and
// removes blank lines at the beginning and the end.
//
//	["", "", "a", "b", "", "", "c", ""] -> ["a", "b", "", "c"]
func StripLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l == "" && (len(out) == 0 || out[len(out)-1] == "") {
			continue
		}
		out = append(out, l)
	}
	if n := len(out); n > 0 && out[n-1] == "" {
		out = out[:n-1]
	}
	return out
}
