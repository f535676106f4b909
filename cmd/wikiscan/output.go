package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dgallion1/wikiscan/internal/doctree"
	"github.com/dgallion1/wikiscan/internal/parser"
)

// writeOutput encodes data to w in the format chosen with --output.
func writeOutput(w io.Writer, data any) error {
	switch outputFormat {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(data)
	default:
		return fmt.Errorf("unknown output format: %s", outputFormat)
	}
}

// readInput reads a file, or stdin when path is "-".
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// loadSource reads a scan from a JSON or YAML source file or from any
// document format the parser package supports.
func loadSource(path string, stdin io.Reader) (*doctree.Source, error) {
	data, err := readInput(path, stdin)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json", ".yaml", ".yml", "":
		var src doctree.Source
		if ext == ".json" || (ext == "" && bytes.HasPrefix(bytes.TrimSpace(data), []byte("{"))) {
			err = json.Unmarshal(data, &src)
		} else {
			err = yaml.Unmarshal(data, &src)
		}
		if err != nil {
			return nil, fmt.Errorf("decode source %s: %w", path, err)
		}
		if src.Title == "" && path != "-" {
			src.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		return &src, nil
	}

	p, err := parser.ForFile(path, parser.Options{TitleOpen: format.TitleOpen, FallbackPdftotext: true})
	if err != nil {
		return nil, err
	}
	return p.Parse(bytes.NewReader(data), filepath.Base(path))
}
