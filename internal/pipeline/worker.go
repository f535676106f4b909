package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/dgallion1/wikiscan/internal/doctree"
	"github.com/dgallion1/wikiscan/internal/offsets"
	"github.com/dgallion1/wikiscan/internal/parser"
	"github.com/dgallion1/wikiscan/internal/store"
	"github.com/dgallion1/wikiscan/internal/wikiparser"
)

// Wiki is the part of the MediaWiki client the pipeline needs.
type Wiki interface {
	ScanTitles(ctx context.Context) ([]string, error)
	FetchSource(ctx context.Context, title string) (*doctree.Source, error)
}

// Worker runs one document through fetch or upload parsing, sanitizing,
// offset building and storage. A Worker holds no per-job state and is shared
// by all pool goroutines.
type Worker struct {
	wiki      Wiki
	parser    *wikiparser.Parser
	builder   *offsets.Builder
	store     *store.Store
	parseOpts parser.Options
	log       *slog.Logger

	// fetchSem bounds wiki fetches across all pool goroutines.
	fetchSem chan struct{}
}

// NewWorker wires the pipeline stages. wiki may be nil when only uploads are
// processed; st may be nil to skip deduplication and storage. At most
// maxConcurrentFetch scans are downloaded at once; values below 1 mean 1.
func NewWorker(wiki Wiki, p *wikiparser.Parser, b *offsets.Builder, st *store.Store, opts parser.Options, maxConcurrentFetch int, log *slog.Logger) *Worker {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if maxConcurrentFetch < 1 {
		maxConcurrentFetch = 1
	}
	return &Worker{
		wiki:      wiki,
		parser:    p,
		builder:   b,
		store:     st,
		parseOpts: opts,
		log:       log,
		fetchSem:  make(chan struct{}, maxConcurrentFetch),
	}
}

// Process runs the full pipeline for a job and records the outcome on it.
// The returned record is nil unless the job completed.
func (w *Worker) Process(ctx context.Context, job *Job) *store.Record {
	log := w.log.With("job_id", job.ID, "filename", job.Filename, "wiki_title", job.WikiTitle)

	rec, err := w.run(ctx, job, log)
	switch {
	case errors.Is(err, errDuplicate):
		job.SetStatus(StatusDupSkipped, "dedup")
		return nil
	case err != nil:
		phase := job.Fail(err.Error())
		log.Error("job failed", "phase", phase, "error", err)
		return nil
	}
	job.SetStatus(StatusCompleted, "done")
	log.Info("job completed", "title", rec.Title, "pages", len(rec.Annotated.Pages), "sections", len(rec.Annotated.Sections))
	return rec
}

var errDuplicate = errors.New("duplicate content")

// ErrNoWiki is returned for wiki jobs when no wiki client is configured.
var ErrNoWiki = errors.New("wiki export is not configured")

func (w *Worker) run(ctx context.Context, job *Job, log *slog.Logger) (*store.Record, error) {
	src, origin, err := w.source(ctx, job)
	if err != nil {
		return nil, err
	}
	if job.Title != "" {
		src.Title = job.Title
	}
	job.SetTitle(src.Title)

	hash := SourceHash(src.Pages)
	job.SetContentHash(hash)

	if w.store != nil && !job.Force {
		existing, found, err := w.store.FindByHash(ctx, hash)
		if err != nil {
			log.Warn("dedup check failed, proceeding", "error", err)
		} else if found {
			log.Info("duplicate document, skipping", "existing_title", existing)
			return nil, errDuplicate
		}
	}

	job.SetStatus(StatusParsing, "parsing")
	parsed, err := w.parser.Parse(*src)
	if err != nil {
		return nil, err
	}

	job.SetStatus(StatusBuilding, "building")
	annotated := w.builder.Build(parsed.Chunks)
	job.SetCounts(len(annotated.Pages), len(annotated.Sections), len(parsed.Warnings))

	rec := &store.Record{
		Title:       parsed.Title,
		Source:      origin,
		ContentHash: hash,
		Chunks:      parsed.Chunks,
		Annotated:   annotated,
		Warnings:    parsed.Warnings,
	}
	if w.store == nil {
		return rec, nil
	}

	job.SetStatus(StatusStoring, "storing")
	if err := w.store.Put(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// source loads the raw pages of a job and names where they came from.
func (w *Worker) source(ctx context.Context, job *Job) (*doctree.Source, string, error) {
	if job.WikiTitle != "" {
		if w.wiki == nil {
			return nil, "", ErrNoWiki
		}
		job.SetStatus(StatusFetching, "fetching")
		src, err := w.fetch(ctx, job.WikiTitle)
		if err != nil {
			return nil, "", fmt.Errorf("fetch %q: %w", job.WikiTitle, err)
		}
		return src, "wiki", nil
	}

	job.SetStatus(StatusParsing, "reading upload")
	p, err := parser.ForFile(job.Filename, w.parseOpts)
	if err != nil {
		return nil, "", err
	}
	src, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", job.Filename, err)
	}
	job.releaseFileData()
	return src, "upload:" + job.Filename, nil
}

// fetch downloads one scan once a fetch slot is free.
func (w *Worker) fetch(ctx context.Context, title string) (*doctree.Source, error) {
	select {
	case w.fetchSem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-w.fetchSem }()
	return w.wiki.FetchSource(ctx, title)
}
