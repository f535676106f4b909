package config

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spf13/viper"
)

// Format describes the wiki transcription conventions and the inline page
// marker syntax. It is loaded once and treated as read-only afterwards.
type Format struct {
	PageKeyword string `mapstructure:"page_keyword"`
	PageOpen    string `mapstructure:"page_open"`
	PageClose   string `mapstructure:"page_close"`
	PageAllowed string `mapstructure:"page_allowed"`

	TitlePattern string `mapstructure:"title_pattern"`
	TitleOpen    string `mapstructure:"title_open"`
	TitleStrip   string `mapstructure:"title_strip"`

	// Unicode maps a character role to its hex code point.
	Unicode map[string]string `mapstructure:"unicode"`

	QuotationMarks []string `mapstructure:"quotation_marks"`
	// PunctPairs holds two-character strings: opener then closer.
	PunctPairs []string `mapstructure:"punct_pairs"`
	// PunctEqual holds delimiters that open and close with the same character.
	PunctEqual []string `mapstructure:"punct_equal"`

	TSV TSVFormat `mapstructure:"tsv"`
}

// TSVFormat names the WebAnno layers used by the TSV export.
type TSVFormat struct {
	SectionLayer   string `mapstructure:"section_layer"`
	SectionFeature string `mapstructure:"section_feature"`
	PageLayer      string `mapstructure:"page_layer"`
	PageFeature    string `mapstructure:"page_feature"`
	MaxWordLength  int    `mapstructure:"max_word_length"`
}

// Unicode roles every Format must define.
const (
	CharRTL         = "rtl"
	CharLTR         = "ltr"
	CharBOM         = "bom"
	CharDoublePrime = "double_prime"
	CharTanwinFatha = "tanwin_fatha"
	CharTatweel     = "tatweel"
	CharWaw         = "waw"
	CharArabicZero  = "arabic_zero"
)

var requiredChars = []string{
	CharRTL, CharLTR, CharBOM, CharDoublePrime, CharTanwinFatha, CharWaw, CharArabicZero,
}

// DefaultFormat returns the conventions used by the transcription wiki.
func DefaultFormat() Format {
	return Format{
		PageKeyword: "صفحة",
		PageOpen:    "PAGE",
		PageClose:   "EGAP",
		PageAllowed: `[0-9٠-٩]+[rv]?`,

		TitlePattern: `=+[^=].*=+`,
		TitleOpen:    "==",
		TitleStrip:   "= ",

		Unicode: map[string]string{
			CharRTL:         "200F",
			CharLTR:         "200E",
			CharBOM:         "FEFF",
			CharDoublePrime: "2033",
			CharTanwinFatha: "064B",
			CharTatweel:     "0640",
			CharWaw:         "0648",
			CharArabicZero:  "0660",
		},

		QuotationMarks: []string{"“", "”", "„", "‟"},
		PunctPairs:     []string{"()", "[]", "{}", "«»"},
		PunctEqual:     []string{`"`},

		TSV: TSVFormat{
			SectionLayer:   "Section",
			SectionFeature: "sectionname",
			PageLayer:      "Page",
			PageFeature:    "sectionpage",
			MaxWordLength:  15,
		},
	}
}

// LoadFormat reads the format from an optional YAML file on top of the
// defaults. Keys may be overridden with WIKISCAN_* environment variables.
func LoadFormat(path string) (Format, error) {
	v := viper.New()
	d := DefaultFormat()
	v.SetDefault("page_keyword", d.PageKeyword)
	v.SetDefault("page_open", d.PageOpen)
	v.SetDefault("page_close", d.PageClose)
	v.SetDefault("page_allowed", d.PageAllowed)
	v.SetDefault("title_pattern", d.TitlePattern)
	v.SetDefault("title_open", d.TitleOpen)
	v.SetDefault("title_strip", d.TitleStrip)
	v.SetDefault("unicode", d.Unicode)
	v.SetDefault("quotation_marks", d.QuotationMarks)
	v.SetDefault("punct_pairs", d.PunctPairs)
	v.SetDefault("punct_equal", d.PunctEqual)
	v.SetDefault("tsv.section_layer", d.TSV.SectionLayer)
	v.SetDefault("tsv.section_feature", d.TSV.SectionFeature)
	v.SetDefault("tsv.page_layer", d.TSV.PageLayer)
	v.SetDefault("tsv.page_feature", d.TSV.PageFeature)
	v.SetDefault("tsv.max_word_length", d.TSV.MaxWordLength)

	v.SetEnvPrefix("WIKISCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Format{}, fmt.Errorf("read format config %s: %w", path, err)
		}
	}

	var f Format
	if err := v.Unmarshal(&f); err != nil {
		return Format{}, fmt.Errorf("unmarshal format config: %w", err)
	}
	// A partial unicode table in the file replaces the whole default map.
	for k, val := range d.Unicode {
		if _, ok := f.Unicode[k]; !ok {
			if f.Unicode == nil {
				f.Unicode = map[string]string{}
			}
			f.Unicode[k] = val
		}
	}
	if err := f.Validate(); err != nil {
		return Format{}, err
	}
	return f, nil
}

// Validate checks patterns compile, required characters are present and the
// delimiter tables are consistent.
func (f Format) Validate() error {
	if f.PageKeyword == "" {
		return errors.New("format: page_keyword is required")
	}
	if f.PageOpen == "" || f.PageClose == "" {
		return errors.New("format: page_open and page_close are required")
	}
	if _, err := regexp.Compile(f.PageAllowed); err != nil {
		return fmt.Errorf("format: page_allowed: %w", err)
	}
	if _, err := regexp.Compile(f.TitlePattern); err != nil {
		return fmt.Errorf("format: title_pattern: %w", err)
	}
	if f.TitleOpen == "" {
		return errors.New("format: title_open is required")
	}
	for _, name := range requiredChars {
		if _, err := f.Char(name); err != nil {
			return err
		}
	}
	for _, q := range f.QuotationMarks {
		if utf8.RuneCountInString(q) != 1 {
			return fmt.Errorf("format: quotation mark %q must be a single character", q)
		}
	}
	openers := map[rune]bool{}
	closers := map[rune]bool{}
	for _, p := range f.PunctPairs {
		r := []rune(p)
		if len(r) != 2 {
			return fmt.Errorf("format: punct pair %q must be two characters", p)
		}
		if openers[r[0]] || closers[r[1]] {
			return fmt.Errorf("format: punct pair %q reuses a delimiter", p)
		}
		openers[r[0]] = true
		closers[r[1]] = true
	}
	for _, e := range f.PunctEqual {
		r := []rune(e)
		if len(r) != 1 {
			return fmt.Errorf("format: punct equal %q must be a single character", e)
		}
		if openers[r[0]] || closers[r[0]] {
			return fmt.Errorf("format: %q is both paired and self-paired", e)
		}
	}
	return nil
}

// Char decodes the hex code point configured for a character role.
func (f Format) Char(name string) (rune, error) {
	hex, ok := f.Unicode[name]
	if !ok || hex == "" {
		return 0, fmt.Errorf("format: unicode %q is not configured", name)
	}
	n, err := strconv.ParseUint(strings.TrimPrefix(strings.ToUpper(hex), "U+"), 16, 32)
	if err != nil {
		return 0, fmt.Errorf("format: unicode %q: %w", name, err)
	}
	return rune(n), nil
}

// MustChar is Char for formats that already passed Validate.
func (f Format) MustChar(name string) rune {
	r, err := f.Char(name)
	if err != nil {
		panic(err)
	}
	return r
}

// MarkerPattern returns the regex source matching an inline page marker with
// the page info captured in group 1 and trailing spaces consumed.
func (f Format) MarkerPattern() string {
	return regexp.QuoteMeta(f.PageOpen) + "(" + f.PageAllowed + ")" + regexp.QuoteMeta(f.PageClose) + " *"
}
