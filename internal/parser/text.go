package parser

import (
	"io"
	"strings"

	"github.com/dgallion1/wikiscan/internal/doctree"
)

// TextParser handles plain text files. A form feed starts a new scan page.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.Source, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	src := &doctree.Source{Title: titleFromFilename(filename)}
	for _, page := range strings.Split(string(data), "\f") {
		if strings.TrimSpace(page) == "" {
			continue
		}
		src.Pages = append(src.Pages, page)
	}
	return src, nil
}
