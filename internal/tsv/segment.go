package tsv

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/dgallion1/wikiscan/internal/chunker"
)

// Segmenter splits chunk text into sentences and tokens.
type Segmenter interface {
	Segment(ctx context.Context, text string) ([]chunker.Sentence, error)
}

// BuiltinSegmenter splits on sentence terminators and whitespace.
type BuiltinSegmenter struct{}

func (BuiltinSegmenter) Segment(_ context.Context, text string) ([]chunker.Sentence, error) {
	return chunker.Segment(text), nil
}

// ExecSegmenter pipes the text to an external process which must print
// [{"sentence": str, "tokens": [str, ...]}, ...] on stdout. Anything written
// to stderr is treated as a failure.
type ExecSegmenter struct {
	Command string
	Args    []string
}

func (s ExecSegmenter) Segment(ctx context.Context, text string) ([]chunker.Sentence, error) {
	cmd := exec.CommandContext(ctx, s.Command, s.Args...)
	cmd.Stdin = strings.NewReader(text)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("run segmenter %s: %w: %s", s.Command, err, strings.TrimSpace(stderr.String()))
	}
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		return nil, fmt.Errorf("segmenter %s: %s", s.Command, msg)
	}

	var out []chunker.Sentence
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return nil, fmt.Errorf("decode segmenter output: %w", err)
	}
	return out, nil
}
