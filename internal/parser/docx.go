package parser

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dgallion1/wikiscan/internal/doctree"
	"github.com/fumiama/go-docx"
)

// DOCXParser handles .docx files. The whole document is a single scan page;
// paragraphs become lines and heading styles become section titles.
type DOCXParser struct {
	TitleOpen string
}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*doctree.Source, error) {
	// go-docx needs a ReadSeeker+size, so write to temp file.
	tmp, err := os.CreateTemp("", "wikiscan-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}

	doc, err := docx.Parse(tmp, int64(size))
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	w := &pageWriter{titleOpen: p.TitleOpen}
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := docxParagraphText(para)
		if docxIsHeading(para) {
			w.heading(text)
		} else {
			w.paragraph(text)
		}
	}

	return &doctree.Source{Title: titleFromFilename(filename), Pages: w.finish()}, nil
}

func docxIsHeading(para *docx.Paragraph) bool {
	if para.Properties == nil || para.Properties.Style == nil {
		return false
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	return style == "title" || strings.HasPrefix(style, "heading")
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
