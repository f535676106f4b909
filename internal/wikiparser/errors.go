package wikiparser

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is returned when a source has no pages or no title.
var ErrEmptyInput = errors.New("empty input")

// FormatError reports page info that does not match the allowed folio pattern.
// It aborts the parse of the whole document.
type FormatError struct {
	Page  int    // 1-based scan page
	Title string // scan title
	Info  string // offending page info
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("page %d of scan %s: page info %q can only contain digits 0-9/٠-٩ and r or v for manuscripts",
		e.Page, e.Title, e.Info)
}
