package parser

import (
	"strings"
	"testing"
)

func TestMarkdownParser_HeadingsAndPageBreaks(t *testing.T) {
	input := `# Title

Intro text.

## Section A

Section A content.

---

Page two text.
`
	p := &MarkdownParser{TitleOpen: "=="}
	src, err := p.Parse(strings.NewReader(input), "doc.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if src.Title != "doc" {
		t.Errorf("expected title %q, got %q", "doc", src.Title)
	}
	if len(src.Pages) != 2 {
		t.Fatalf("expected 2 pages, got %d: %q", len(src.Pages), src.Pages)
	}

	want := "== Title ==\n\nIntro text.\n\n== Section A ==\n\nSection A content."
	if src.Pages[0] != want {
		t.Errorf("page 1: expected %q, got %q", want, src.Pages[0])
	}
	if src.Pages[1] != "Page two text." {
		t.Errorf("page 2: expected %q, got %q", "Page two text.", src.Pages[1])
	}
}

func TestMarkdownParser_SoftBreaksKeepLines(t *testing.T) {
	p := &MarkdownParser{TitleOpen: "=="}
	src, err := p.Parse(strings.NewReader("line one\nline two\n\nnext"), "plain.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(src.Pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(src.Pages))
	}
	if want := "line one\nline two\n\nnext"; src.Pages[0] != want {
		t.Errorf("expected %q, got %q", want, src.Pages[0])
	}
}

func TestMarkdownParser_CodeBlocks(t *testing.T) {
	input := "## Endpoints\n\nList of endpoints:\n\n```\nGET /api/users\nPOST /api/users\n```\n\nMore text after code.\n"

	p := &MarkdownParser{TitleOpen: "=="}
	src, err := p.Parse(strings.NewReader(input), "api.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(src.Pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(src.Pages))
	}
	if !strings.Contains(src.Pages[0], "GET /api/users\nPOST /api/users") {
		t.Errorf("expected code block content in text, got %q", src.Pages[0])
	}
	if !strings.Contains(src.Pages[0], "More text after code.") {
		t.Errorf("expected post-code text, got %q", src.Pages[0])
	}
}

func TestMarkdownParser_EmptyInput(t *testing.T) {
	p := &MarkdownParser{TitleOpen: "=="}
	src, err := p.Parse(strings.NewReader(""), "empty.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(src.Pages) != 0 {
		t.Errorf("expected 0 pages for empty input, got %d", len(src.Pages))
	}
}

func TestMarkdownParser_TitleStripping(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"readme.md", "readme"},
		{"notes.markdown", "notes"},
		{"dir/plain.md", "plain"},
	}
	p := &MarkdownParser{TitleOpen: "=="}
	for _, tt := range tests {
		src, err := p.Parse(strings.NewReader("text"), tt.filename)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", tt.filename, err)
		}
		if src.Title != tt.want {
			t.Errorf("filename=%q: expected title %q, got %q", tt.filename, tt.want, src.Title)
		}
	}
}
