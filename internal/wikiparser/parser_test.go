package wikiparser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/wikiscan/internal/config"
	"github.com/dgallion1/wikiscan/internal/doctree"
)

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	p, err := New(config.DefaultFormat(), nil)
	require.NoError(t, err)
	return p
}

func kinds(ws []Warning) []Kind {
	out := make([]Kind, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Kind)
	}
	return out
}

func TestParse_EmptyInput(t *testing.T) {
	p := newTestParser(t)

	_, err := p.Parse(doctree.Source{Title: "Book", Pages: nil})
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = p.Parse(doctree.Source{Title: "", Pages: []string{"text"}})
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestParse_MalformedPageInfoIsFatal(t *testing.T) {
	p := newTestParser(t)

	_, err := p.Parse(doctree.Source{
		Title: "Kitab.djvu",
		Pages: []string{"first page", "== t ==\nصفحة abc\nbody"},
	})
	require.Error(t, err)

	var fe *FormatError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 2, fe.Page)
	assert.Equal(t, "Kitab.djvu", fe.Title)
	assert.Equal(t, "abc", fe.Info)
	assert.Contains(t, err.Error(), "Kitab.djvu")
}

func TestParse_PageMarkersAndSections(t *testing.T) {
	p := newTestParser(t)

	res, err := p.Parse(doctree.Source{
		Title: "Kitab",
		Pages: []string{
			"\u200f\nصفحة 1\nمقدمة\n\n== باب الأول ==\nنص  الباب",
			"صفحة ٢v\nتكملة\n",
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Chunks, 2)

	assert.Nil(t, res.Chunks[0].Section)
	assert.Equal(t, "PAGE1EGAP مقدمة", res.Chunks[0].Text)

	assert.Equal(t, "باب الأول", res.Chunks[1].SectionName())
	assert.Equal(t, "نص الباب PAGE٢vEGAP تكملة", res.Chunks[1].Text)
	assert.Empty(t, res.Warnings)
}

func TestParse_UnclosedParenthesisWarnsOnce(t *testing.T) {
	p := newTestParser(t)

	res, err := p.Parse(doctree.Source{Title: "T", Pages: []string{"(abc"}})
	require.NoError(t, err)
	assert.Equal(t, []Kind{KindClosingMissing}, kinds(res.Warnings))
	assert.Equal(t, 1, res.Warnings[0].Page)
}

func TestParse_BalanceSpansPages(t *testing.T) {
	p := newTestParser(t)

	res, err := p.Parse(doctree.Source{Title: "T", Pages: []string{"(abc", "def)"}})
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
}

func TestParse_TitleWithoutBodyWarns(t *testing.T) {
	p := newTestParser(t)

	res, err := p.Parse(doctree.Source{Title: "T", Pages: []string{"text\n== Last =="}})
	require.NoError(t, err)
	require.Len(t, res.Chunks, 2)
	assert.Equal(t, "", res.Chunks[1].Text)
	assert.Equal(t, []Kind{KindNoTextInSection}, kinds(res.Warnings))
}

func TestParse_StripsBlankRunsPerPage(t *testing.T) {
	p := newTestParser(t)

	res, err := p.Parse(doctree.Source{Title: "T", Pages: []string{"\n\none\n\n\n\ntwo\n\n", "\nthree"}})
	require.NoError(t, err)
	require.Len(t, res.Chunks, 1)
	assert.Equal(t, "one \n two three", res.Chunks[0].Text)
}

func TestSplitLines(t *testing.T) {
	assert.Nil(t, SplitLines(""))
	assert.Equal(t, []string{"a", "b", "c"}, SplitLines("a\r\nb\rc\n"))
	assert.Equal(t, []string{"a", ""}, SplitLines("a\n\n"))
}
