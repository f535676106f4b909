// Package store persists parsed documents and their annotations in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dgallion1/wikiscan/internal/doctree"
	"github.com/dgallion1/wikiscan/internal/wikiparser"
)

// ErrNotFound is returned when no document has the requested title.
var ErrNotFound = errors.New("document not found")

// Record is one stored document.
type Record struct {
	Title       string                 `json:"title"`
	Source      string                 `json:"source"`
	ContentHash string                 `json:"content_hash"`
	Chunks      []doctree.Chunk        `json:"content"`
	Annotated   *doctree.AnnotatedText `json:"annotated"`
	Warnings    []wikiparser.Warning   `json:"warnings"`
	CreatedAt   time.Time              `json:"created_at"`
}

// Summary is the listing form of a Record.
type Summary struct {
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	ContentHash string    `json:"content_hash"`
	Sections    int       `json:"sections"`
	Pages       int       `json:"pages"`
	Warnings    int       `json:"warnings"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store is a SQLite-backed document table keyed by title.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite allows one writer; serialize through a single connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		title TEXT PRIMARY KEY,
		source TEXT NOT NULL DEFAULT '',
		content_hash TEXT NOT NULL,
		chunks_json TEXT NOT NULL,
		annotated_json TEXT NOT NULL,
		warnings TEXT NOT NULL,
		section_count INTEGER NOT NULL DEFAULT 0,
		page_count INTEGER NOT NULL DEFAULT 0,
		warning_count INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_documents_content_hash ON documents(content_hash);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Put inserts rec or replaces the document with the same title.
func (s *Store) Put(ctx context.Context, rec *Record) error {
	if rec == nil || rec.Title == "" {
		return errors.New("store: record needs a title")
	}
	if rec.Annotated == nil {
		rec.Annotated = &doctree.AnnotatedText{}
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	chunks, err := json.Marshal(rec.Chunks)
	if err != nil {
		return fmt.Errorf("marshal chunks: %w", err)
	}
	annotated, err := json.Marshal(rec.Annotated)
	if err != nil {
		return fmt.Errorf("marshal annotations: %w", err)
	}
	warnings, err := json.Marshal(rec.Warnings)
	if err != nil {
		return fmt.Errorf("marshal warnings: %w", err)
	}

	query := `
	INSERT INTO documents (title, source, content_hash, chunks_json, annotated_json, warnings,
		section_count, page_count, warning_count, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(title) DO UPDATE SET
		source = excluded.source,
		content_hash = excluded.content_hash,
		chunks_json = excluded.chunks_json,
		annotated_json = excluded.annotated_json,
		warnings = excluded.warnings,
		section_count = excluded.section_count,
		page_count = excluded.page_count,
		warning_count = excluded.warning_count,
		created_at = excluded.created_at
	`
	_, err = s.db.ExecContext(ctx, query,
		rec.Title,
		rec.Source,
		rec.ContentHash,
		string(chunks),
		string(annotated),
		string(warnings),
		len(rec.Annotated.Sections),
		len(rec.Annotated.Pages),
		len(rec.Warnings),
		rec.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("put %q: %w", rec.Title, err)
	}
	return nil
}

// Get loads the document with the given title.
func (s *Store) Get(ctx context.Context, title string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
	SELECT title, source, content_hash, chunks_json, annotated_json, warnings, created_at
	FROM documents WHERE title = ?`, title)

	var (
		rec                         Record
		chunks, annotated, warnings string
		createdAt                   string
	)
	err := row.Scan(&rec.Title, &rec.Source, &rec.ContentHash, &chunks, &annotated, &warnings, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get %q: %w", title, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", title, err)
	}

	if err := json.Unmarshal([]byte(chunks), &rec.Chunks); err != nil {
		return nil, fmt.Errorf("decode chunks of %q: %w", title, err)
	}
	rec.Annotated = &doctree.AnnotatedText{}
	if err := json.Unmarshal([]byte(annotated), rec.Annotated); err != nil {
		return nil, fmt.Errorf("decode annotations of %q: %w", title, err)
	}
	if err := json.Unmarshal([]byte(warnings), &rec.Warnings); err != nil {
		return nil, fmt.Errorf("decode warnings of %q: %w", title, err)
	}
	rec.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("decode created_at of %q: %w", title, err)
	}
	return &rec, nil
}

// List returns every stored document, newest first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT title, source, content_hash, section_count, page_count, warning_count, created_at
	FROM documents ORDER BY created_at DESC, title`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var sum Summary
		var createdAt string
		if err := rows.Scan(&sum.Title, &sum.Source, &sum.ContentHash, &sum.Sections, &sum.Pages, &sum.Warnings, &createdAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if sum.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("decode created_at of %q: %w", sum.Title, err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Delete removes the document with the given title.
func (s *Store) Delete(ctx context.Context, title string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE title = ?`, title)
	if err != nil {
		return fmt.Errorf("delete %q: %w", title, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %q: %w", title, err)
	}
	if n == 0 {
		return fmt.Errorf("delete %q: %w", title, ErrNotFound)
	}
	return nil
}

// FindByHash returns the title of a document with the given content hash.
func (s *Store) FindByHash(ctx context.Context, hash string) (string, bool, error) {
	var title string
	err := s.db.QueryRowContext(ctx, `SELECT title FROM documents WHERE content_hash = ? LIMIT 1`, hash).Scan(&title)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("find by hash: %w", err)
	}
	return title, true, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// timeLayout has a fixed width so that created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}
