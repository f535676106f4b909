package wikiparser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dgallion1/wikiscan/internal/config"
)

type charClass uint8

const (
	classNone charClass = iota
	classOpener
	classCloser
	classEqual
)

// Rules is the compiled form of a config.Format: patterns and character
// lookup tables are built once and shared read-only by every parse.
type Rules struct {
	pageKeyword string
	pageOpen    string
	pageClose   string
	pageInfo    *regexp.Regexp
	title       *regexp.Regexp
	titleOpen   string
	titleStrip  string
	titleMark   rune

	rtl         rune
	ltr         rune
	bom         rune
	doublePrime rune
	tanwin      rune
	waw         rune
	arabicZero  rune

	quotes        map[rune]bool
	classes       map[rune]charClass
	closerFor     map[rune]rune // opener -> closer
	whitespaceRun *regexp.Regexp
}

// NewRules validates f and compiles it.
func NewRules(f config.Format) (*Rules, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	pageInfo, err := regexp.Compile("^(?:" + f.PageAllowed + ")$")
	if err != nil {
		return nil, fmt.Errorf("compile page pattern: %w", err)
	}
	title, err := regexp.Compile("^(?:" + f.TitlePattern + ")$")
	if err != nil {
		return nil, fmt.Errorf("compile title pattern: %w", err)
	}

	r := &Rules{
		pageKeyword:   f.PageKeyword,
		pageOpen:      f.PageOpen,
		pageClose:     f.PageClose,
		pageInfo:      pageInfo,
		title:         title,
		titleOpen:     f.TitleOpen,
		titleStrip:    f.TitleStrip,
		titleMark:     []rune(f.TitleOpen)[0],
		rtl:           f.MustChar(config.CharRTL),
		ltr:           f.MustChar(config.CharLTR),
		bom:           f.MustChar(config.CharBOM),
		doublePrime:   f.MustChar(config.CharDoublePrime),
		tanwin:        f.MustChar(config.CharTanwinFatha),
		waw:           f.MustChar(config.CharWaw),
		arabicZero:    f.MustChar(config.CharArabicZero),
		quotes:        make(map[rune]bool, len(f.QuotationMarks)),
		classes:       make(map[rune]charClass),
		closerFor:     make(map[rune]rune, len(f.PunctPairs)),
		whitespaceRun: regexp.MustCompile(`[\t ]+`),
	}
	for _, q := range f.QuotationMarks {
		r.quotes[[]rune(q)[0]] = true
	}
	for _, p := range f.PunctPairs {
		pair := []rune(p)
		r.classes[pair[0]] = classOpener
		r.classes[pair[1]] = classCloser
		r.closerFor[pair[0]] = pair[1]
	}
	for _, e := range f.PunctEqual {
		r.classes[[]rune(e)[0]] = classEqual
	}
	return r, nil
}

// IsTitle reports whether a stripped line is a section title.
func (r *Rules) IsTitle(line string) bool {
	return r.title.MatchString(line)
}

// TitleName strips the title circumfix and surrounding spaces.
func (r *Rules) TitleName(line string) string {
	return strings.Trim(line, r.titleStrip)
}

// Marker renders page info as an inline page marker.
func (r *Rules) Marker(info string) string {
	return r.pageOpen + info + r.pageClose
}

func (r *Rules) class(c rune) charClass {
	return r.classes[c]
}
