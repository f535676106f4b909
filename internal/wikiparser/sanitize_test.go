package wikiparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/wikiscan/internal/config"
)

func newTestRules(t *testing.T) *Rules {
	t.Helper()
	r, err := NewRules(config.DefaultFormat())
	require.NoError(t, err)
	return r
}

func sanitize(t *testing.T, line string) (string, []Warning) {
	t.Helper()
	var ws []Warning
	out := NewSanitizer(newTestRules(t)).SanitizeLine(1, line, func(w Warning) { ws = append(ws, w) })
	return out, ws
}

func TestSanitizeLine_Fixes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		kind Kind
	}{
		{"bom", "\ufeffنص", "نص", KindBOMRemoved},
		{"double prime", "شيئ\u2033ا", "شيئ\u064bا", KindDoublePrime},
		{"quotes", "قال “نعم”", `قال "نعم"`, KindQuotesNormalized},
		{"waw", `قال و"المصدوق"`, `قال و "المصدوق"`, KindWawSeparated},
		{"arabic zero", "سنة ١٠٠", "سنة ١٠٠", KindArabicZero},
		{"malformed title", "= عنوان =", "= عنوان =", KindMalformedTitle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ws := sanitize(t, tt.in)
			assert.Equal(t, tt.want, got)
			require.Len(t, ws, 1)
			assert.Equal(t, tt.kind, ws[0].Kind)
			assert.Equal(t, 1, ws[0].Page)
		})
	}
}

func TestSanitizeLine_WawInsideWordUntouched(t *testing.T) {
	got, ws := sanitize(t, `قالو"ا`)
	assert.Equal(t, `قالو"ا`, got)
	assert.Empty(t, ws)
}

func TestSanitizeLine_CollapsesWhitespace(t *testing.T) {
	got, ws := sanitize(t, "a  \t b\t\tc")
	assert.Equal(t, "a b c", got)
	assert.Empty(t, ws)
}

func TestSanitizeLine_Idempotent(t *testing.T) {
	inputs := []string{
		"\ufeffقال  “نعم” و“لا”",
		"شيئ\u2033ا",
		"plain text already clean",
	}
	for _, in := range inputs {
		once, _ := sanitize(t, in)
		twice, ws := sanitize(t, once)
		assert.Equal(t, once, twice)
		for _, w := range ws {
			assert.False(t, w.Kind.Modification(), "unexpected modification %s on second pass", w.Kind)
		}
	}
}

func TestSanitizePage_MarkersAndDirectionMarks(t *testing.T) {
	r := newTestRules(t)
	bal := NewBalance(r)
	var ws []Warning

	out, err := NewSanitizer(r).SanitizePage("T", 3, []string{"\u200e", "صفحة  12r ", "", "text"}, bal, func(w Warning) { ws = append(ws, w) })
	require.NoError(t, err)
	assert.Equal(t, []string{"PAGE12rEGAP", "", "text"}, out)
	assert.Empty(t, ws)
	assert.Equal(t, 0, bal.Depth())
}

func TestSanitizePage_BadInfo(t *testing.T) {
	r := newTestRules(t)
	_, err := NewSanitizer(r).SanitizePage("Scan", 4, []string{"صفحة abc"}, NewBalance(r), func(Warning) {})

	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 4, fe.Page)
	assert.Equal(t, "Scan", fe.Title)
}

func TestBalance(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  []Kind
		depth int
	}{
		{"balanced", []string{"(a [b] {c} «d» \"e\")"}, nil, 0},
		{"closer on empty stack", []string{"a)"}, []Kind{KindOpeningMissing}, 0},
		{"mismatch", []string{"(a]"}, []Kind{KindMismatch}, 0},
		{"closer over quote", []string{"\"a)"}, []Kind{KindOpeningMissing}, 0},
		{"unclosed", []string{"(a", "[b"}, nil, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bal := NewBalance(newTestRules(t))
			var ws []Warning
			for _, l := range tt.lines {
				bal.Feed(1, l, func(w Warning) { ws = append(ws, w) })
			}
			assert.Equal(t, tt.want, kindsOrNil(ws))
			assert.Equal(t, tt.depth, bal.Depth())
		})
	}
}

func TestBalance_FinishReportsEachOpenEntry(t *testing.T) {
	bal := NewBalance(newTestRules(t))
	bal.Feed(1, "(a", func(Warning) {})
	bal.Feed(2, "«b", func(Warning) {})

	var ws []Warning
	bal.Finish(func(w Warning) { ws = append(ws, w) })
	require.Len(t, ws, 2)
	assert.Equal(t, KindClosingMissing, ws[0].Kind)
	assert.Equal(t, 1, ws[0].Page)
	assert.Equal(t, 2, ws[1].Page)
	assert.Equal(t, 0, bal.Depth())
}

func kindsOrNil(ws []Warning) []Kind {
	if len(ws) == 0 {
		return nil
	}
	return kinds(ws)
}
