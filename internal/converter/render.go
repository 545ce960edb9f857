package converter

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/kenaz-jekyll/internal/models"
	"github.com/starford/kenaz-jekyll/internal/parser"
	"github.com/starford/kenaz-jekyll/internal/slug"
)

// postFrontmatter fixes the key order of the emitted block.
type postFrontmatter struct {
	Title      string   `yaml:"title"`
	Date       postDate `yaml:"date"`
	Categories []string `yaml:"categories,omitempty"`
	Tags       []string `yaml:"tags,omitempty"`
}

// postDate encodes as a bare YYYY-MM-DD timestamp rather than a quoted string.
type postDate time.Time

func (d postDate) MarshalYAML() (any, error) {
	return &yaml.Node{
		Kind:  yaml.ScalarNode,
		Tag:   "!!timestamp",
		Value: time.Time(d).Format(slug.DateLayout),
	}, nil
}

// RenderPost returns the Jekyll post for note with body as its content.
func RenderPost(note models.Note, body string) ([]byte, error) {
	fm := postFrontmatter{
		Title:      note.Title,
		Date:       postDate(note.Date),
		Categories: note.Categories,
		Tags:       note.Tags,
	}

	var buf bytes.Buffer
	buf.WriteString(parser.Delimiter + "\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(fm); err != nil {
		return nil, fmt.Errorf("converter: encode front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("converter: encode front matter: %w", err)
	}
	buf.WriteString(parser.Delimiter + "\n\n")
	buf.WriteString(body)
	if body != "" && !strings.HasSuffix(body, "\n") {
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}
