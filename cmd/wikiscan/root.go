package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/wikiscan/internal/config"
)

var (
	formatFile   string
	outputFormat string
	verbose      bool

	// Set by the root command before any subcommand runs.
	format config.Format
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "wikiscan",
	Short: "Turn wiki scan transcriptions into annotated text",
	Long: `wikiscan reads page-by-page scan transcriptions, repairs common OCR and
encoding artifacts, groups the text into sections and records where every
section and physical page sits in the final document.

Sources are JSON files of the form {"title": ..., "pages": [...]} or any
supported document (.txt, .md, .html, .pdf, .docx, .csv). The export command
fetches scans directly from a MediaWiki installation.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

		if outputFormat != "yaml" && outputFormat != "json" {
			return fmt.Errorf("unknown output format %q: use yaml or json", outputFormat)
		}

		f, err := config.LoadFormat(formatFile)
		if err != nil {
			return err
		}
		format = f
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&formatFile, "format-config", os.Getenv("FORMAT_CONFIG"), "YAML file overriding the text format conventions",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false, "log every sanitizer fix and warning",
	)

	rootCmd.AddCommand(parseCmd, offsetsCmd, annotateCmd, tsvCmd, exportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
