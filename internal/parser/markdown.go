package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/dgallion1/wikiscan/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. A thematic break
// (---) starts a new scan page and every heading becomes a section title.
type MarkdownParser struct {
	TitleOpen string
}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.Source, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	reader := text.NewReader(src)
	doc := md.Parser().Parse(reader)

	w := &pageWriter{titleOpen: p.TitleOpen}
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch n.(type) {
		case *ast.ThematicBreak:
			w.pageBreak()
		case *ast.Heading:
			w.heading(extractText(n, src))
		default:
			w.paragraph(extractText(n, src))
		}
	}

	return &doctree.Source{Title: titleFromFilename(filename), Pages: w.finish()}, nil
}

// extractText gets the text content of a goldmark AST node. Leaf blocks
// such as code blocks carry raw lines; everything else is read from its
// children, one line per nested block.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && n.FirstChild() == nil {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch {
		case c.Kind() == ast.KindText:
			t := c.(*ast.Text)
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		case c.Type() == ast.TypeBlock:
			buf.WriteString(extractText(c, src))
			buf.WriteByte('\n')
		default:
			// Recurse for nested inlines.
			buf.WriteString(extractText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}
