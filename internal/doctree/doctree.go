package doctree

// Source is one document's raw transcription input.
type Source struct {
	Title string   `json:"title" yaml:"title"` // Scan title, e.g. "Attaiyin.djvu"
	Pages []string `json:"pages" yaml:"pages"` // Raw page texts in scan order; page i+1 is Pages[i]
}

// Chunk is one section's body in document order. Text may carry inline page markers.
type Chunk struct {
	Section *string `json:"section" yaml:"section"`
	Text    string  `json:"text" yaml:"text"`
}

// NewChunk builds a chunk; an empty section name means "no section".
func NewChunk(section, text string) Chunk {
	if section == "" {
		return Chunk{Text: text}
	}
	s := section
	return Chunk{Section: &s, Text: text}
}

// SectionName returns the section title, or "" when the chunk has none.
func (c Chunk) SectionName() string {
	if c.Section == nil {
		return ""
	}
	return *c.Section
}

// Range locates an annotation in AnnotatedText.Text. Offsets are 0-based,
// end-inclusive character (code point) indices.
type Range struct {
	Name  string `json:"name" yaml:"name"`
	Start int    `json:"start" yaml:"start"`
	End   int    `json:"end" yaml:"end"`
}

// AnnotatedText is the final document with section and page annotations.
type AnnotatedText struct {
	Text     string  `json:"text" yaml:"text"`
	Sections []Range `json:"sections" yaml:"sections"`
	Pages    []Range `json:"pages" yaml:"pages"`
}

// Document bundles everything produced for one source.
type Document struct {
	Title     string         `json:"title" yaml:"title"`
	Content   []Chunk        `json:"content" yaml:"content"`
	Annotated *AnnotatedText `json:"annotated,omitempty" yaml:"annotated,omitempty"`
}
