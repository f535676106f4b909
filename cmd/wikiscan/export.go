package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/wikiscan/internal/config"
	"github.com/dgallion1/wikiscan/internal/doctree"
	"github.com/dgallion1/wikiscan/internal/mediawiki"
	"github.com/dgallion1/wikiscan/internal/offsets"
	"github.com/dgallion1/wikiscan/internal/parser"
	"github.com/dgallion1/wikiscan/internal/pipeline"
	"github.com/dgallion1/wikiscan/internal/store"
	"github.com/dgallion1/wikiscan/internal/wikiparser"
)

var (
	exportDir     string
	exportDB      string
	exportWorkers int
	exportForce   bool
	exportTSV     bool
)

// exportResult is one line of the export report.
type exportResult struct {
	Title    string `json:"title" yaml:"title"`
	Status   string `json:"status" yaml:"status"`
	Pages    int    `json:"pages" yaml:"pages"`
	Sections int    `json:"sections" yaml:"sections"`
	Warnings int    `json:"warnings" yaml:"warnings"`
	File     string `json:"file,omitempty" yaml:"file,omitempty"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

var exportCmd = &cobra.Command{
	Use:   "export [TITLE...]",
	Short: "Fetch scans from the wiki and write one annotated document per scan",
	Long: `Reads the wiki named by WIKI_API_URL, logging in with WIKI_USER and
WIKI_PASSWORD when they are set. Every transcription page of each scan is
fetched and <title>.json (and optionally <title>.tsv) is written into the
output directory. With no titles, every scan listed on the index page is
exported.

A scan that fails is reported and skipped; the command exits non-zero after
all scans have been tried if any of them failed.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportDir, "dir", "d", "out", "output directory")
	exportCmd.Flags().StringVar(&exportDB, "db", "", "also store documents in this SQLite database, skipping known content")
	exportCmd.Flags().IntVarP(&exportWorkers, "workers", "w", 4, "scans fetched in parallel")
	exportCmd.Flags().BoolVar(&exportForce, "force", false, "process scans even if identical content is already stored")
	exportCmd.Flags().BoolVar(&exportTSV, "tsv", false, "also write WebAnno TSV files")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := config.Load()

	wiki, err := mediawiki.NewClient(mediawiki.Config{
		APIURL:    cfg.WikiAPIURL,
		User:      cfg.WikiUser,
		Password:  cfg.WikiPassword,
		IndexPage: cfg.WikiIndexPage,
	}, logger)
	if err != nil {
		return err
	}
	defer wiki.Close()

	titles := args
	if len(titles) == 0 {
		if titles, err = wiki.ScanTitles(ctx); err != nil {
			return err
		}
	}
	if len(titles) == 0 {
		return fmt.Errorf("no scans listed on %s", cfg.WikiIndexPage)
	}

	var st *store.Store
	if exportDB != "" {
		if st, err = store.Open(exportDB); err != nil {
			return err
		}
		defer st.Close()
	}

	wp, err := wikiparser.New(format, logger)
	if err != nil {
		return err
	}
	b, err := offsets.NewBuilder(format, logger)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(exportDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	worker := pipeline.NewWorker(wiki, wp, b, st, parser.Options{TitleOpen: format.TitleOpen}, exportWorkers, logger)
	jobs := make([]*pipeline.Job, len(titles))
	for i, title := range titles {
		jobs[i] = pipeline.NewWikiJob(title, exportForce)
	}
	outcomes := pipeline.RunBatch(ctx, worker, jobs, exportWorkers)

	report := make([]exportResult, 0, len(outcomes))
	failed := 0
	for _, o := range outcomes {
		res := exportResult{
			Title:    o.Job.Title,
			Status:   string(o.Job.Status),
			Pages:    o.Job.Progress.Pages,
			Sections: o.Job.Progress.Sections,
			Warnings: o.Job.Progress.Warnings,
		}
		if len(o.Job.Progress.Errors) > 0 {
			res.Error = strings.Join(o.Job.Progress.Errors, "; ")
		}
		if o.Record != nil {
			file, err := writeDocument(cmd, o.Record)
			if err != nil {
				res.Status = string(pipeline.StatusFailed)
				res.Error = err.Error()
			}
			res.File = file
		}
		if res.Status == string(pipeline.StatusFailed) {
			failed++
		}
		report = append(report, res)
	}

	if err := writeOutput(cmd.OutOrStdout(), report); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scans failed", failed, len(outcomes))
	}
	return nil
}

// writeDocument saves one exported scan and returns the JSON file path.
func writeDocument(cmd *cobra.Command, rec *store.Record) (string, error) {
	base := filepath.Join(exportDir, safeName(rec.Title))

	data, err := json.MarshalIndent(doctree.Document{
		Title:     rec.Title,
		Content:   rec.Chunks,
		Annotated: rec.Annotated,
	}, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(base+".json", data, 0o644); err != nil {
		return "", err
	}

	if exportTSV {
		out, err := convertTSV(cmd, &wikiparser.Result{Title: rec.Title, Chunks: rec.Chunks})
		if err != nil {
			return "", err
		}
		for _, typo := range out.Typos {
			logger.Warn(typo.String(), "title", rec.Title)
		}
		if err := os.WriteFile(base+".tsv", []byte(out.TSV+"\n"), 0o644); err != nil {
			return "", err
		}
	}
	return base + ".json", nil
}

func safeName(title string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(title)
	if name == "" {
		name = "unnamed"
	}
	return name
}
