package markdown

import (
	"net/url"
	"path"
	"strings"
)

// Options controls markdown rendering.
type Options struct {
	// ResolveLink maps a markdown file link (e.g. ./cli.md#flags) to a site
	// URL. It returns false when the target file is not part of the site.
	ResolveLink func(dest string) (string, bool)
}

type LinkKind string

const (
	LinkKindInline LinkKind = "inline"
	LinkKindImage  LinkKind = "image"
	LinkKindAuto   LinkKind = "auto"
)

type Link struct {
	Kind        LinkKind
	Destination string
}

// IsMarkdownLink reports whether dest is a relative link to a .md or .mdx file.
func IsMarkdownLink(dest string) bool {
	u, err := url.Parse(dest)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return false
	}
	switch strings.ToLower(path.Ext(u.Path)) {
	case ".md", ".mdx":
		return true
	default:
		return false
	}
}

// SplitFragment splits a link destination into its path and #fragment.
func SplitFragment(dest string) (string, string) {
	p, frag, _ := strings.Cut(dest, "#")
	return p, frag
}
