package offsets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/wikiscan/internal/config"
	"github.com/dgallion1/wikiscan/internal/doctree"
)

func newTestBuilder(t *testing.T) *Builder {
	t.Helper()
	b, err := NewBuilder(config.DefaultFormat(), nil)
	require.NoError(t, err)
	return b
}

func section(name, text string) doctree.Chunk {
	return doctree.NewChunk(name, text)
}

func plain(text string) doctree.Chunk {
	return doctree.Chunk{Text: text}
}

func TestBuild_NoSectionNoMarker(t *testing.T) {
	got := newTestBuilder(t).Build([]doctree.Chunk{plain("hello world")})

	assert.Equal(t, "hello world", got.Text)
	assert.Empty(t, got.Sections)
	assert.Empty(t, got.Pages)
}

func TestBuild_SingleSectionSinglePage(t *testing.T) {
	got := newTestBuilder(t).Build([]doctree.Chunk{section("Intro", "PAGE1EGAP hello")})

	assert.Equal(t, "hello\n", got.Text)
	assert.Equal(t, []doctree.Range{{Name: "Intro", Start: 0, End: 4}}, got.Sections)
	assert.Equal(t, []doctree.Range{{Name: "1", Start: 0, End: 4}}, got.Pages)
}

func TestBuild_TwoSectionsTwoPagesAreContiguous(t *testing.T) {
	got := newTestBuilder(t).Build([]doctree.Chunk{
		section("A", "PAGE1EGAP foo"),
		section("B", "bar PAGE2EGAP baz"),
	})

	assert.Equal(t, "foo\nbar baz\n", got.Text)
	require.Len(t, got.Pages, 2)
	assert.Equal(t, doctree.Range{Name: "1", Start: 0, End: 7}, got.Pages[0])
	assert.Equal(t, doctree.Range{Name: "2", Start: 8, End: 10}, got.Pages[1])
	assert.Equal(t, got.Pages[0].End+1, got.Pages[1].Start)

	assert.Equal(t, []doctree.Range{
		{Name: "A", Start: 0, End: 2},
		{Name: "B", Start: 4, End: 10},
	}, got.Sections)
}

func TestBuild_MarkerOpeningEachSection(t *testing.T) {
	got := newTestBuilder(t).Build([]doctree.Chunk{
		section("A", "PAGE1EGAP foo"),
		section("B", "PAGE2EGAP bar"),
	})

	assert.Equal(t, "foo\nbar\n", got.Text)
	// The newline closing section A is trimmed from page 1, so the pages
	// are separated by one character instead of touching.
	assert.Equal(t, []doctree.Range{
		{Name: "1", Start: 0, End: 2},
		{Name: "2", Start: 4, End: 6},
	}, got.Pages)
	assert.Equal(t, []doctree.Range{
		{Name: "A", Start: 0, End: 2},
		{Name: "B", Start: 4, End: 6},
	}, got.Sections)
}

func TestBuild_MultipleMarkersInOneChunk(t *testing.T) {
	got := newTestBuilder(t).Build([]doctree.Chunk{
		plain("one PAGE1EGAP two PAGE2EGAP three"),
	})

	assert.Equal(t, "one two three", got.Text)
	assert.Equal(t, []doctree.Range{
		{Name: "1", Start: 4, End: 7},
		{Name: "2", Start: 8, End: 12},
	}, got.Pages)
}

func TestBuild_ArabicTextCountsCharacters(t *testing.T) {
	got := newTestBuilder(t).Build([]doctree.Chunk{
		section("باب", "PAGE١EGAP نص عربي PAGE٢vEGAP تكملة"),
	})

	text := []rune(got.Text)
	require.Len(t, got.Pages, 2)
	assert.Equal(t, "١", got.Pages[0].Name)
	assert.Equal(t, "٢v", got.Pages[1].Name)
	assert.Equal(t, "نص عربي ", string(text[got.Pages[0].Start:got.Pages[0].End+1]))
	assert.Equal(t, "تكملة", string(text[got.Pages[1].Start:got.Pages[1].End+1]))
}

func TestBuild_AdjacentMarkersDropEmptyPage(t *testing.T) {
	got := newTestBuilder(t).Build([]doctree.Chunk{plain("PAGE1EGAP PAGE2EGAP text")})

	assert.Equal(t, "text", got.Text)
	assert.Equal(t, []doctree.Range{{Name: "2", Start: 0, End: 3}}, got.Pages)
}

func TestBuild_EmptySectionDropped(t *testing.T) {
	got := newTestBuilder(t).Build([]doctree.Chunk{
		section("A", ""),
		section("B", "body"),
	})

	assert.Equal(t, "\nbody\n", got.Text)
	assert.Equal(t, []doctree.Range{{Name: "B", Start: 1, End: 4}}, got.Sections)
}

func TestBuild_StartSkipsNewlineToken(t *testing.T) {
	got := newTestBuilder(t).Build([]doctree.Chunk{
		section("A", "PAGE1EGAP one \n two"),
	})

	assert.Equal(t, "one \n two\n", got.Text)
	assert.Equal(t, []doctree.Range{{Name: "A", Start: 0, End: 8}}, got.Sections)
}

func TestBuild_RangesStayInBoundsAndSkipSeparators(t *testing.T) {
	inputs := [][]doctree.Chunk{
		{plain("")},
		{plain("PAGE1EGAP")},
		{section("A", "")},
		{section("A", "PAGE1EGAP")},
		{plain("x PAGE1EGAP"), section("S", "PAGE2EGAP")},
		{section("A", " \n lead"), plain("PAGE3rEGAP mid \n "), section("B", "tail PAGE4vEGAP")},
		{section("A", "PAGE1EGAP a"), section("B", "PAGE2EGAP b PAGE3EGAP c"), section("C", "d")},
	}
	b := newTestBuilder(t)
	for _, chunks := range inputs {
		got := b.Build(chunks)
		text := []rune(got.Text)
		for _, r := range append(append([]doctree.Range{}, got.Sections...), got.Pages...) {
			require.GreaterOrEqual(t, r.Start, 0, "%+v in %q", r, got.Text)
			require.LessOrEqual(t, r.Start, r.End, "%+v in %q", r, got.Text)
			require.Less(t, r.End, len(text), "%+v in %q", r, got.Text)
			assert.NotEqual(t, '\n', text[r.Start], "%+v in %q", r, got.Text)
			assert.NotEqual(t, ' ', text[r.Start], "%+v in %q", r, got.Text)
			assert.NotEqual(t, '\n', text[r.End], "%+v in %q", r, got.Text)
		}
	}
}

func TestBuild_PagesReconstructText(t *testing.T) {
	got := newTestBuilder(t).Build([]doctree.Chunk{
		section("A", "PAGE1EGAP alpha beta"),
		section("B", "gamma PAGE2EGAP delta"),
		plain("epsilon PAGE3EGAP zeta"),
	})

	text := []rune(got.Text)
	var joined strings.Builder
	for _, p := range got.Pages {
		joined.WriteString(string(text[p.Start : p.End+1]))
	}
	assert.Equal(t, "alpha beta\ngamma delta\nepsilon zeta", joined.String())
	assert.Equal(t, "alpha beta\ngamma delta\nepsilon zeta", got.Text)
}
