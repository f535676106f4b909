package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/wikiscan/internal/api"
	"github.com/dgallion1/wikiscan/internal/config"
	"github.com/dgallion1/wikiscan/internal/mediawiki"
	"github.com/dgallion1/wikiscan/internal/offsets"
	"github.com/dgallion1/wikiscan/internal/parser"
	"github.com/dgallion1/wikiscan/internal/pipeline"
	"github.com/dgallion1/wikiscan/internal/store"
	"github.com/dgallion1/wikiscan/internal/tsv"
	"github.com/dgallion1/wikiscan/internal/wikiparser"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	format, err := config.LoadFormat(cfg.FormatConfig)
	if err != nil {
		log.Error("invalid format configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize text processing.
	wp, err := wikiparser.New(format, log)
	if err != nil {
		log.Error("init parser", "error", err)
		os.Exit(1)
	}
	builder, err := offsets.NewBuilder(format, log)
	if err != nil {
		log.Error("init offsets", "error", err)
		os.Exit(1)
	}
	conv, err := tsv.NewConverter(format, nil, log)
	if err != nil {
		log.Error("init tsv", "error", err)
		os.Exit(1)
	}

	// Initialize storage and clients.
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Error("open store", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}

	var (
		wiki  pipeline.Wiki
		stats *mediawiki.RequestStats
		mw    *mediawiki.Client
	)
	if cfg.HasWiki() {
		mw, err = mediawiki.NewClient(mediawiki.Config{
			APIURL:    cfg.WikiAPIURL,
			User:      cfg.WikiUser,
			Password:  cfg.WikiPassword,
			IndexPage: cfg.WikiIndexPage,
		}, log)
		if err != nil {
			log.Error("init wiki client", "error", err)
			os.Exit(1)
		}
		wiki, stats = mw, mw.Stats()
	} else {
		log.Warn("WIKI_API_URL not set, export endpoints disabled")
	}

	// Initialize pipeline.
	worker := pipeline.NewWorker(wiki, wp, builder, st, parser.Options{
		TitleOpen:         format.TitleOpen,
		FallbackPdftotext: cfg.PDFFallbackPdftotext,
	}, cfg.MaxConcurrentFetch, log)
	orch := pipeline.NewOrchestrator(cfg, worker, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(api.Deps{
		Orchestrator: orch,
		Parser:       wp,
		Builder:      builder,
		Converter:    conv,
		Store:        st,
		Stats:        stats,
	}, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		// Drain in-flight requests before closing the queue they submit to.
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()

		if mw != nil {
			mw.Close()
		}
		st.Close()
	}()

	log.Info("starting wikiscan", "port", cfg.Port, "db", cfg.DBPath)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	<-done
}
