package parser

import (
	"strings"
	"testing"
)

func TestTextParser_FormFeedSplitsPages(t *testing.T) {
	input := "صفحة 1\nFirst page line one.\nFirst page line two.\fصفحة 2\nSecond page."
	p := &TextParser{}
	src, err := p.Parse(strings.NewReader(input), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if src.Title != "notes" {
		t.Errorf("expected title %q, got %q", "notes", src.Title)
	}
	want := []string{
		"صفحة 1\nFirst page line one.\nFirst page line two.",
		"صفحة 2\nSecond page.",
	}
	if len(src.Pages) != len(want) {
		t.Fatalf("expected %d pages, got %d", len(want), len(src.Pages))
	}
	for i, w := range want {
		if src.Pages[i] != w {
			t.Errorf("page[%d]: expected %q, got %q", i, w, src.Pages[i])
		}
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	p := &TextParser{}
	src, err := p.Parse(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.Title != "empty" {
		t.Errorf("expected title %q, got %q", "empty", src.Title)
	}
	if len(src.Pages) != 0 {
		t.Errorf("expected 0 pages for empty input, got %d", len(src.Pages))
	}
}

func TestTextParser_BlankPagesSkipped(t *testing.T) {
	p := &TextParser{}
	src, err := p.Parse(strings.NewReader("one\f  \n\ftwo"), "gaps.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(src.Pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(src.Pages))
	}
}

func TestTextParser_ParagraphsKeepBlankLines(t *testing.T) {
	input := "Para one.\n\n\nPara two."
	p := &TextParser{}
	src, err := p.Parse(strings.NewReader(input), "ws.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(src.Pages) != 1 || src.Pages[0] != input {
		t.Fatalf("expected page to be passed through, got %q", src.Pages)
	}
}
