// Package frontmatter splits YAML frontmatter from markdown sources and
// decodes the document metadata fields docsite understands.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Meta holds the frontmatter fields used for routing and navigation.
// Unrecognized keys are kept in Document.Fields.
type Meta struct {
	ID                  string `yaml:"id"`
	Title               string `yaml:"title"`
	Description         string `yaml:"description"`
	Slug                string `yaml:"slug"`
	SidebarLabel        string `yaml:"sidebar_label"`
	SidebarPosition     int    `yaml:"sidebar_position"`
	Draft               bool   `yaml:"draft"`
	HideTableOfContents bool   `yaml:"hide_table_of_contents"`
	TOCMinHeadingLevel  int    `yaml:"toc_min_heading_level"`
	TOCMaxHeadingLevel  int    `yaml:"toc_max_heading_level"`
}

// Document is a parsed markdown source.
type Document struct {
	Meta   Meta
	Fields map[string]any
	Body   []byte
	// Had reports whether the source carried a frontmatter block.
	Had bool
}

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Parse splits content and decodes its frontmatter.
func Parse(content []byte) (*Document, error) {
	fm, body, had, err := Split(content)
	if err != nil {
		return nil, err
	}
	doc := &Document{Body: body, Had: had, Fields: map[string]any{}}
	if !had || len(bytes.TrimSpace(fm)) == 0 {
		return doc, nil
	}

	fields, err := ParseYAML(fm)
	if err != nil {
		return nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	doc.Fields = fields
	if err := yaml.Unmarshal(fm, &doc.Meta); err != nil {
		return nil, fmt.Errorf("decode frontmatter: %w", err)
	}
	return doc, nil
}

// Split separates YAML frontmatter (`---` delimited) from the markdown body.
//
// If the document does not start with a frontmatter delimiter, had is false
// and body is the full input.
func Split(content []byte) (frontmatter []byte, body []byte, had bool, err error) {
	nl := detectNewline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	start := len(open)
	if bytes.HasPrefix(content[start:], open) {
		return []byte{}, content[start+len(open):], true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[start:], closeSeq)
	if idx < 0 {
		// A closing delimiter on the last line without a trailing newline.
		if bytes.HasSuffix(content, []byte(nl+"---")) {
			end := len(content) - len(nl+"---")
			return content[start : end+len(nl)], []byte{}, true, nil
		}
		return nil, nil, false, ErrMissingClosingDelimiter
	}

	end := start + idx + len(nl)
	return content[start:end], content[start+idx+len(closeSeq):], true, nil
}

// ParseYAML parses raw YAML frontmatter (without --- delimiters) into a map.
func ParseYAML(frontmatter []byte) (map[string]any, error) {
	if len(frontmatter) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(frontmatter, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
