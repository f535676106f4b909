package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/wikiscan/internal/doctree"
	"github.com/dgallion1/wikiscan/internal/wikiparser"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testRecord(title, hash string) *Record {
	return &Record{
		Title:       title,
		Source:      "wiki",
		ContentHash: hash,
		Chunks:      []doctree.Chunk{doctree.NewChunk("Intro", "PAGE1EGAP hello")},
		Annotated: &doctree.AnnotatedText{
			Text:     "hello\n",
			Sections: []doctree.Range{{Name: "Intro", Start: 0, End: 4}},
			Pages:    []doctree.Range{{Name: "1", Start: 0, End: 4}},
		},
		Warnings: []wikiparser.Warning{{Page: 1, Kind: wikiparser.KindBOMRemoved, Message: "BOM character found and removed"}},
	}
}

func TestPutGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := testRecord("Book.djvu", "h1")
	require.NoError(t, s.Put(ctx, rec))

	got, err := s.Get(ctx, "Book.djvu")
	require.NoError(t, err)
	assert.Equal(t, rec.Title, got.Title)
	assert.Equal(t, rec.Source, got.Source)
	assert.Equal(t, rec.ContentHash, got.ContentHash)
	assert.Equal(t, rec.Chunks, got.Chunks)
	assert.Equal(t, rec.Annotated, got.Annotated)
	assert.Equal(t, rec.Warnings, got.Warnings)
	assert.WithinDuration(t, rec.CreatedAt, got.CreatedAt, time.Microsecond)
}

func TestPut_ReplacesSameTitle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, testRecord("Book.djvu", "h1")))
	require.NoError(t, s.Put(ctx, testRecord("Book.djvu", "h2")))

	got, err := s.Get(ctx, "Book.djvu")
	require.NoError(t, err)
	assert.Equal(t, "h2", got.ContentHash)

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestPut_RequiresTitle(t *testing.T) {
	s := openTestStore(t)
	assert.Error(t, s.Put(context.Background(), &Record{}))
}

func TestGet_NotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList_NewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	old := testRecord("Old.djvu", "a")
	old.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := testRecord("New.djvu", "b")
	recent.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Put(ctx, old))
	require.NoError(t, s.Put(ctx, recent))

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "New.djvu", list[0].Title)
	assert.Equal(t, 1, list[0].Sections)
	assert.Equal(t, 1, list[0].Pages)
	assert.Equal(t, 1, list[0].Warnings)
	assert.Equal(t, "Old.djvu", list[1].Title)
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, testRecord("Book.djvu", "h1")))
	require.NoError(t, s.Delete(ctx, "Book.djvu"))

	_, err := s.Get(ctx, "Book.djvu")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "Book.djvu"), ErrNotFound)
}

func TestFindByHash(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, testRecord("Book.djvu", "h1")))

	title, ok, err := s.FindByHash(ctx, "h1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Book.djvu", title)

	_, ok, err = s.FindByHash(ctx, "other")
	require.NoError(t, err)
	assert.False(t, ok)
}
