package tsv

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/wikiscan/internal/chunker"
	"github.com/dgallion1/wikiscan/internal/config"
	"github.com/dgallion1/wikiscan/internal/doctree"
)

func newTestConverter(t *testing.T, seg Segmenter) *Converter {
	t.Helper()
	c, err := NewConverter(config.DefaultFormat(), seg, nil)
	require.NoError(t, err)
	return c
}

func TestConvert_SectionAndPageTags(t *testing.T) {
	chunks := []doctree.Chunk{
		doctree.NewChunk("section 1", "PAGE٥٤EGAP \n الطائعين بغير الايمان"),
		doctree.NewChunk("section 2", "نااش حخن PAGE٥٥EGAP ة ومتكاملة"),
	}

	res, err := newTestConverter(t, nil).Convert(context.Background(), "Nabrawi.djvu", chunks)
	require.NoError(t, err)

	want := strings.Join([]string{
		" # webanno.custom.Section | sectionname # webanno.custom.Page | sectionpage",
		"",
		"#id=1",
		"#text=الطائعين بغير الايمان",
		"1-1\tالطائعين\tB-section 1\tB-٥٤",
		"1-2\tبغير\tI-section 1\tI-٥٤",
		"1-3\tالايمان\tI-section 1\tI-٥٤",
		"",
		"#id=2",
		"#text=نااش حخن  ة ومتكاملة",
		"2-1\tنااش\tB-section 2\tI-٥٤",
		"2-2\tحخن\tI-section 2\tI-٥٤",
		"2-3\tة\tI-section 2\tB-٥٥",
		"2-4\tومتكاملة\tI-section 2\tI-٥٥",
	}, "\n")
	assert.Equal(t, want, res.TSV)
	assert.Empty(t, res.Typos)
}

func TestConvert_NoSectionCollapsesTabs(t *testing.T) {
	res, err := newTestConverter(t, nil).Convert(context.Background(), "T", []doctree.Chunk{
		{Text: "PAGE1EGAP word"},
	})
	require.NoError(t, err)
	assert.Equal(t, " # webanno.custom.Page | sectionpage\n\n#id=1\n#text= word\n1-1\tword\tB-1", res.TSV)
}

func TestConvert_FlagsTypos(t *testing.T) {
	res, err := newTestConverter(t, nil).Convert(context.Background(), "T", []doctree.Chunk{
		doctree.NewChunk("S", "كتابx مدرسةكبيرة"),
	})
	require.NoError(t, err)
	require.Len(t, res.Typos, 2)
	assert.Equal(t, "كتابx", res.Typos[0].Token)
	assert.Equal(t, "مدرسةكبيرة", res.Typos[1].Token)
	assert.Equal(t, "S", res.Typos[1].Section)
}

func TestConvert_MalformedMarkerToken(t *testing.T) {
	seg := fixedSegmenter{{Sentence: "a PAGEbadEGAP", Tokens: []string{"a", "PAGEbadEGAP"}}}
	_, err := newTestConverter(t, seg).Convert(context.Background(), "Scan.djvu", []doctree.Chunk{{Text: "x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Scan.djvu")
}

func TestConvert_SegmenterError(t *testing.T) {
	_, err := newTestConverter(t, failingSegmenter{}).Convert(context.Background(), "T", []doctree.Chunk{{Text: "x"}})
	assert.ErrorIs(t, err, errSegment)
}

type fixedSegmenter []chunker.Sentence

func (f fixedSegmenter) Segment(context.Context, string) ([]chunker.Sentence, error) {
	return f, nil
}

var errSegment = errors.New("segmenter down")

type failingSegmenter struct{}

func (failingSegmenter) Segment(context.Context, string) ([]chunker.Sentence, error) {
	return nil, errSegment
}

func TestExecSegmenter(t *testing.T) {
	seg := ExecSegmenter{
		Command: "sh",
		Args:    []string{"-c", `cat >/dev/null; echo '[{"sentence":"a b","tokens":["a","b"]}]'`},
	}
	got, err := seg.Segment(context.Background(), "a b")
	require.NoError(t, err)
	assert.Equal(t, []chunker.Sentence{{Sentence: "a b", Tokens: []string{"a", "b"}}}, got)
}

func TestExecSegmenter_StderrFails(t *testing.T) {
	seg := ExecSegmenter{Command: "sh", Args: []string{"-c", `cat >/dev/null; echo oops >&2; echo '[]'`}}
	_, err := seg.Segment(context.Background(), "a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oops")
}

func TestCheckToken(t *testing.T) {
	assert.Empty(t, CheckToken("كتاب", 15))
	assert.Empty(t, CheckToken("word", 15))
	assert.Len(t, CheckToken("كتابx", 15), 1)
	assert.Len(t, CheckToken("abcdefghijklmnop", 15), 1)
	assert.Len(t, CheckToken("صلاةالفجر", 15), 1)
	assert.Empty(t, CheckToken("صلاة", 15))
}
