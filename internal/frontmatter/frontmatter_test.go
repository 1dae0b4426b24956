package frontmatter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.False(t, had)
	require.Empty(t, fm)
	require.Equal(t, input, body)
}

func TestSplit_YAMLFrontmatter_SplitsFrontmatterAndBody(t *testing.T) {
	input := []byte("---\nkey: value\n---\n# Title\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("key: value\n"), fm)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestSplit_MissingClosingDelimiter_ReturnsError(t *testing.T) {
	_, _, had, err := Split([]byte("---\nkey: value\n# Title\n"))
	require.Error(t, err)
	require.False(t, had)
	require.True(t, errors.Is(err, ErrMissingClosingDelimiter))
}

func TestSplit_CRLF_SplitsFrontmatterAndBody(t *testing.T) {
	input := []byte("---\r\nkey: value\r\n---\r\n# Title\r\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("key: value\r\n"), fm)
	require.Equal(t, []byte("# Title\r\n"), body)
}

func TestSplit_EmptyFrontmatterBlock(t *testing.T) {
	fm, body, had, err := Split([]byte("---\n---\n# Title\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Empty(t, fm)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestSplit_FrontmatterOnly(t *testing.T) {
	fm, body, had, err := Split([]byte("---\nid: x\n---"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("id: x\n"), fm)
	require.Empty(t, body)
}

func TestParse_DecodesMeta(t *testing.T) {
	doc, err := Parse([]byte("---\nid: cli\ntitle: Command line\nsidebar_position: 2\ncustom: [a]\n---\nBody\n"))
	require.NoError(t, err)
	require.True(t, doc.Had)
	require.Equal(t, "cli", doc.Meta.ID)
	require.Equal(t, "Command line", doc.Meta.Title)
	require.Equal(t, 2, doc.Meta.SidebarPosition)
	require.Equal(t, []any{"a"}, doc.Fields["custom"])
	require.Equal(t, []byte("Body\n"), doc.Body)
}

func TestParse_InvalidFrontmatter(t *testing.T) {
	_, err := Parse([]byte("---\nsidebar_position: first\n---\nBody\n"))
	require.Error(t, err)
}

func TestParseYAML_Empty_ReturnsEmptyMap(t *testing.T) {
	fields, err := ParseYAML(nil)
	require.NoError(t, err)
	require.Empty(t, fields)
}

func TestParseYAML_InvalidYAML_ReturnsError(t *testing.T) {
	_, err := ParseYAML([]byte(": not yaml"))
	require.Error(t, err)
}
