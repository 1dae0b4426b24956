package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRender_HeadingsAndTitle(t *testing.T) {
	res, err := Render([]byte("# Command line\n\n## Flags\n\n### Verbose *mode*\n\n#### Deep\n"), Options{})
	require.NoError(t, err)

	require.Equal(t, "Command line", res.Title)
	require.Len(t, res.Headings, 4)
	require.Equal(t, Heading{Level: 2, ID: "flags", Text: "Flags"}, res.Headings[1])
	require.Equal(t, "Verbose mode", res.Headings[2].Text)
	require.Contains(t, string(res.HTML), `<h2 id="flags">Flags</h2>`)

	toc := FilterHeadings(res.Headings, 2, 3)
	require.Len(t, toc, 2)
	require.Equal(t, "flags", toc[0].ID)
}

func TestRender_RewritesMarkdownLinks(t *testing.T) {
	body := []byte("See [CLI](./cli.md#flags), [missing](gone.md), [site](https://example.com/x.md) and ![img](pic.png).\n")
	res, err := Render(body, Options{ResolveLink: func(dest string) (string, bool) {
		p, frag := SplitFragment(dest)
		if p == "./cli.md" {
			return "/docs/cli#" + frag, true
		}
		return "", false
	}})
	require.NoError(t, err)

	html := string(res.HTML)
	require.Contains(t, html, `href="/docs/cli#flags"`)
	require.Contains(t, html, `href="gone.md"`)
	require.Equal(t, []string{"gone.md"}, res.Unresolved)
	require.Len(t, res.Links, 4)
	require.Equal(t, LinkKindImage, res.Links[3].Kind)
}

func TestRender_GFMTable(t *testing.T) {
	res, err := Render([]byte("| a | b |\n|---|---|\n| 1 | 2 |\n"), Options{})
	require.NoError(t, err)
	require.True(t, strings.Contains(string(res.HTML), "<table>"))
}

func TestTitle(t *testing.T) {
	require.Equal(t, "Intro", Title([]byte("Some text\n\n# Intro\n\n# Second\n")))
	require.Empty(t, Title([]byte("## Only h2\n")))
}

func TestIsMarkdownLink(t *testing.T) {
	require.True(t, IsMarkdownLink("cli.md"))
	require.True(t, IsMarkdownLink("../guides/setup.MDX#top"))
	require.False(t, IsMarkdownLink("https://example.com/readme.md"))
	require.False(t, IsMarkdownLink("/docs/cli"))
	require.False(t, IsMarkdownLink("#anchor"))
}
