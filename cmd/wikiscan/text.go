package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/wikiscan/internal/doctree"
	"github.com/dgallion1/wikiscan/internal/offsets"
	"github.com/dgallion1/wikiscan/internal/tsv"
	"github.com/dgallion1/wikiscan/internal/wikiparser"
)

var parseCmd = &cobra.Command{
	Use:   "parse SOURCE",
	Short: "Sanitize a scan and group it into section chunks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := parseSource(cmd, args[0])
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), res)
	},
}

var offsetsCmd = &cobra.Command{
	Use:   "offsets CHUNKS.json",
	Short: "Build the annotated text from a parsed chunk list",
	Long: `Reads the JSON chunk list produced by "wikiscan parse -o json" (its content
field) and prints the final text with section and page ranges. Use - for stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(args[0], cmd.InOrStdin())
		if err != nil {
			return err
		}
		chunks, err := offsets.ParseChunks(data)
		if err != nil {
			return err
		}
		b, err := offsets.NewBuilder(format, logger)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), b.Build(chunks))
	},
}

var annotateCmd = &cobra.Command{
	Use:   "annotate SOURCE",
	Short: "Parse a scan and build its annotated text in one step",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := parseSource(cmd, args[0])
		if err != nil {
			return err
		}
		b, err := offsets.NewBuilder(format, logger)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), doctree.Document{
			Title:     res.Title,
			Content:   res.Chunks,
			Annotated: b.Build(res.Chunks),
		})
	},
}

var (
	tsvOut       string
	tsvSegmenter string
)

var tsvCmd = &cobra.Command{
	Use:   "tsv SOURCE",
	Short: "Render a scan as WebAnno TSV with section and page layers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := parseSource(cmd, args[0])
		if err != nil {
			return err
		}
		out, err := convertTSV(cmd, res)
		if err != nil {
			return err
		}
		for _, typo := range out.Typos {
			logger.Warn(typo.String(), "title", res.Title)
		}

		if tsvOut == "" {
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out.TSV)
			return err
		}
		return os.WriteFile(tsvOut, []byte(out.TSV+"\n"), 0o644)
	},
}

func init() {
	tsvCmd.Flags().StringVarP(&tsvOut, "file", "f", "", "write the TSV to this file instead of stdout")
	tsvCmd.Flags().StringVar(&tsvSegmenter, "segmenter", "", "external segmenter command reading text on stdin and printing sentence JSON")
}

func parseSource(cmd *cobra.Command, path string) (*wikiparser.Result, error) {
	src, err := loadSource(path, cmd.InOrStdin())
	if err != nil {
		return nil, err
	}
	p, err := wikiparser.New(format, logger)
	if err != nil {
		return nil, err
	}
	return p.Parse(*src)
}

func newConverter() (*tsv.Converter, error) {
	var seg tsv.Segmenter
	if fields := strings.Fields(tsvSegmenter); len(fields) > 0 {
		seg = tsv.ExecSegmenter{Command: fields[0], Args: fields[1:]}
	}
	return tsv.NewConverter(format, seg, logger)
}

func convertTSV(cmd *cobra.Command, res *wikiparser.Result) (*tsv.Result, error) {
	conv, err := newConverter()
	if err != nil {
		return nil, err
	}
	return conv.Convert(cmd.Context(), res.Title, res.Chunks)
}
