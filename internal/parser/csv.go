package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/wikiscan/internal/doctree"
)

// CSVParser handles page exports with a header row. The "text" column is
// required; consecutive rows sharing a "page" value are joined into one
// scan page, otherwise every row is its own page.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.Source, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	src := &doctree.Source{Title: titleFromFilename(filename)}
	if len(records) == 0 {
		return src, nil
	}

	// First row is headers.
	pageCol, textCol := -1, -1
	for i, h := range records[0] {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "page":
			pageCol = i
		case "text":
			textCol = i
		}
	}
	if textCol < 0 {
		return nil, fmt.Errorf("parse csv: no %q column in header %v", "text", records[0])
	}

	var current []string
	lastPage := ""
	flush := func() {
		if len(current) > 0 {
			src.Pages = append(src.Pages, strings.Join(current, "\n"))
			current = nil
		}
	}
	for i, row := range records[1:] {
		if textCol >= len(row) {
			continue
		}
		page := fmt.Sprintf("row-%d", i)
		if pageCol >= 0 && pageCol < len(row) && strings.TrimSpace(row[pageCol]) != "" {
			page = strings.TrimSpace(row[pageCol])
		}
		if page != lastPage {
			flush()
			lastPage = page
		}
		current = append(current, row[textCol])
	}
	flush()

	return src, nil
}
