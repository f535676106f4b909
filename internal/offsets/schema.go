package offsets

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/dgallion1/wikiscan/internal/doctree"
)

const chunksSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["section", "text"],
    "properties": {
      "section": {"type": ["string", "null"]},
      "text": {"type": "string"}
    }
  }
}`

var chunkSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("chunks.json", strings.NewReader(chunksSchema)); err != nil {
		panic(err)
	}
	return compiler.MustCompile("chunks.json")
}

// ParseChunks decodes a serialized chunk sequence after checking it against
// the chunk schema.
func ParseChunks(data []byte) ([]doctree.Chunk, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode chunks: %w", err)
	}
	if err := chunkSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("chunks do not match schema: %w", err)
	}

	var chunks []doctree.Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, fmt.Errorf("decode chunks: %w", err)
	}
	return chunks, nil
}
